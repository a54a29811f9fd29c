package formatter

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/aledsdavies/makeprof/pkgs/graph"
)

// FormatDOT writes the graph in Graphviz DOT form. Edges point along
// influence, from prerequisite to dependent; order-only edges are dashed.
func FormatDOT(w io.Writer, g *graph.Graph) {
	_, _ = fmt.Fprintln(w, "digraph makefile {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")

	for _, name := range g.Names() {
		attrs := ""
		if g.OrderOnly.Has(name) {
			attrs = " [shape=box]"
		}
		_, _ = fmt.Fprintf(w, "  %s%s;\n", strconv.Quote(name), attrs)
	}

	for _, name := range g.Names() {
		for _, dep := range g.InfluencesOf(name) {
			_, _ = fmt.Fprintf(w, "  %s -> %s;\n", strconv.Quote(name), strconv.Quote(dep))
		}
	}

	targets := make([]string, 0, len(g.Dependencies))
	for name := range g.Dependencies {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	for _, name := range targets {
		for _, od := range g.Dependencies[name].OrderDeps {
			_, _ = fmt.Fprintf(w, "  %s -> %s [style=dashed];\n", strconv.Quote(od), strconv.Quote(name))
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}
