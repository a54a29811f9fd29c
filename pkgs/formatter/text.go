// Package formatter provides human-readable formatting for parsed makefiles
// and their influence graphs. This includes text listings, blast-radius
// trees, Graphviz output and graph diffs.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/graph"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorGray   = "\033[90m"
)

// Colorize wraps text in ANSI color codes if color is enabled
func Colorize(text, color string, useColor bool) string {
	if !useColor {
		return text
	}
	return color + text + ColorReset
}

// FormatDocument writes the document as a listing, one node per line.
//
// Format:
//
//	expr    CC := gcc
//	target  app: main.o | obj ## Build the app
//	          gcc -o app main.o
func FormatDocument(w io.Writer, doc *ast.Document) {
	if len(doc.Nodes) == 0 {
		_, _ = fmt.Fprintln(w, "(empty)")
		return
	}

	for _, n := range doc.Nodes {
		switch n := n.(type) {
		case *ast.Expression:
			_, _ = fmt.Fprintf(w, "expr    %s\n", n.Text)
		case *ast.Target:
			_, _ = fmt.Fprintf(w, "target  %s\n", n.Decl.String())
			for _, cmd := range n.Decl.Body {
				_, _ = fmt.Fprintf(w, "          %s\n", cmd)
			}
		}
	}
}

// FormatGraph writes one block per known name: its direct dependents and,
// when there are any, its ripple dependents. Order-only names and cycles
// follow.
//
// Format:
//
//	file.o <- app.exe
//	  ripple: all
func FormatGraph(w io.Writer, g *graph.Graph, useColor bool) {
	names := g.Names()
	if len(names) == 0 {
		_, _ = fmt.Fprintln(w, "(no targets)")
		return
	}

	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s <- %s\n", Colorize(name, ColorBlue, useColor), list(g.InfluencesOf(name)))
		if indirect := g.IndirectInfluencesOf(name); len(indirect) > 0 {
			_, _ = fmt.Fprintf(w, "  %s %s\n", Colorize("ripple:", ColorGray, useColor), list(indirect))
		}
	}

	if g.OrderOnly.Len() > 0 {
		_, _ = fmt.Fprintf(w, "\norder-only: %s\n", list(g.OrderOnly.Sorted()))
	}
	if len(g.Cycles) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", Colorize("cycles:", ColorRed, useColor))
		for _, c := range g.Cycles {
			_, _ = fmt.Fprintf(w, "  %s\n", strings.Join(c, " -> "))
		}
	}
}

// FormatSummary returns a one-line description of the graph
func FormatSummary(g *graph.Graph) string {
	edges := 0
	for _, s := range g.Influences {
		edges += s.Len()
	}
	return fmt.Sprintf("%d targets, %d names, %d edges, %d order-only, %d cycles",
		len(g.Dependencies), len(g.Influences), edges, g.OrderOnly.Len(), len(g.Cycles))
}

func list(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, " ")
}
