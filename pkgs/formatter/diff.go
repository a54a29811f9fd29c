package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aledsdavies/makeprof/pkgs/graph"
)

// Edge is one influence edge: a change to From requires rebuilding To
type Edge struct {
	From string
	To   string
}

func (e Edge) String() string {
	return e.From + " -> " + e.To
}

// DiffResult represents the differences between two graphs.
type DiffResult struct {
	AddedNames   []string
	RemovedNames []string
	AddedEdges   []Edge
	RemovedEdges []Edge
	RippleDelta  []RippleChange // names whose ripple set size changed
}

// RippleChange records a change in the size of a name's indirect set
type RippleChange struct {
	Name   string
	Before int
	After  int
}

// Empty reports whether the two graphs had the same structure
func (r *DiffResult) Empty() bool {
	return len(r.AddedNames) == 0 && len(r.RemovedNames) == 0 &&
		len(r.AddedEdges) == 0 && len(r.RemovedEdges) == 0 && len(r.RippleDelta) == 0
}

// Diff compares two graphs and returns structured differences.
// Names and edges are compared as sets; everything is returned sorted.
func Diff(before, after *graph.Graph) *DiffResult {
	result := &DiffResult{}

	for _, name := range after.Names() {
		if !before.Has(name) {
			result.AddedNames = append(result.AddedNames, name)
		}
	}
	for _, name := range before.Names() {
		if !after.Has(name) {
			result.RemovedNames = append(result.RemovedNames, name)
		}
	}

	beforeEdges := edgeSet(before)
	afterEdges := edgeSet(after)
	for e := range afterEdges {
		if !beforeEdges[e] {
			result.AddedEdges = append(result.AddedEdges, e)
		}
	}
	for e := range beforeEdges {
		if !afterEdges[e] {
			result.RemovedEdges = append(result.RemovedEdges, e)
		}
	}
	sortEdges(result.AddedEdges)
	sortEdges(result.RemovedEdges)

	for _, name := range after.Names() {
		if !before.Has(name) {
			continue
		}
		b := before.IndirectInfluences[name].Len()
		a := after.IndirectInfluences[name].Len()
		if a != b {
			result.RippleDelta = append(result.RippleDelta, RippleChange{Name: name, Before: b, After: a})
		}
	}

	return result
}

func edgeSet(g *graph.Graph) map[Edge]bool {
	out := make(map[Edge]bool)
	for from, to := range g.Influences {
		for t := range to {
			out[Edge{From: from, To: t}] = true
		}
	}
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}

// FormatDiff returns a human-readable diff display.
// Shows added and removed names and edges with optional color coding.
func FormatDiff(result *DiffResult, useColor bool) string {
	var b strings.Builder

	if len(result.AddedNames) > 0 {
		fmt.Fprintf(&b, "%s\n", Colorize("Added targets:", ColorGreen, useColor))
		for _, n := range result.AddedNames {
			fmt.Fprintf(&b, "  %s\n", Colorize("+ "+n, ColorGreen, useColor))
		}
		fmt.Fprintln(&b)
	}

	if len(result.RemovedNames) > 0 {
		fmt.Fprintf(&b, "%s\n", Colorize("Removed targets:", ColorRed, useColor))
		for _, n := range result.RemovedNames {
			fmt.Fprintf(&b, "  %s\n", Colorize("- "+n, ColorRed, useColor))
		}
		fmt.Fprintln(&b)
	}

	if len(result.AddedEdges) > 0 || len(result.RemovedEdges) > 0 {
		fmt.Fprintf(&b, "%s\n", Colorize("Influence edges:", ColorYellow, useColor))
		for _, e := range result.AddedEdges {
			fmt.Fprintf(&b, "  %s\n", Colorize("+ "+e.String(), ColorGreen, useColor))
		}
		for _, e := range result.RemovedEdges {
			fmt.Fprintf(&b, "  %s\n", Colorize("- "+e.String(), ColorRed, useColor))
		}
		fmt.Fprintln(&b)
	}

	if len(result.RippleDelta) > 0 {
		fmt.Fprintf(&b, "%s\n", Colorize("Ripple changes:", ColorYellow, useColor))
		for _, c := range result.RippleDelta {
			fmt.Fprintf(&b, "  %s: %d -> %d\n", c.Name, c.Before, c.After)
		}
		fmt.Fprintln(&b)
	}

	if result.Empty() {
		fmt.Fprintln(&b, "No differences found.")
	}

	return b.String()
}
