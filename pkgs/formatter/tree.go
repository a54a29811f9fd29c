package formatter

import (
	"fmt"
	"io"

	"github.com/aledsdavies/makeprof/pkgs/graph"
)

// FormatBlastTree renders what must be rebuilt when name changes: the direct
// dependents as a tree expanded through further influence edges, followed by
// a summary of the direct and ripple counts. A name already shown higher up
// is printed once more with a marker and not expanded again.
func FormatBlastTree(w io.Writer, g *graph.Graph, name string, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s:\n", name)

	direct := g.InfluencesOf(name)
	if len(direct) == 0 {
		_, _ = fmt.Fprintf(w, "(no dependents)\n")
		return
	}

	seen := graph.Set{name: {}}
	renderBlastLevel(w, g, direct, "", seen, useColor)

	_, _ = fmt.Fprintf(w, "\n%s %d, %s %d\n",
		Colorize("direct:", ColorGreen, useColor), len(direct),
		Colorize("ripple:", ColorYellow, useColor), len(g.IndirectInfluencesOf(name)))
}

// renderBlastLevel renders one level of dependents with proper indentation
func renderBlastLevel(w io.Writer, g *graph.Graph, names []string, indent string, seen graph.Set, useColor bool) {
	for i, n := range names {
		isLast := i == len(names)-1
		prefix := indent + "├─ "
		childIndent := indent + "│  "
		if isLast {
			prefix = indent + "└─ "
			childIndent = indent + "   "
		}

		if seen.Has(n) {
			_, _ = fmt.Fprintf(w, "%s%s %s\n", prefix, n, Colorize("(seen)", ColorGray, useColor))
			continue
		}
		seen.Add(n)

		_, _ = fmt.Fprintf(w, "%s%s\n", prefix, Colorize(n, ColorCyan, useColor))
		if next := g.InfluencesOf(n); len(next) > 0 {
			renderBlastLevel(w, g, next, childIndent, seen, useColor)
		}
	}
}
