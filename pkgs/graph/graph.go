// Package graph derives the dependency and influence structure of a parsed
// makefile.
//
// An influence edge d -> t means a change to d requires rebuilding t. The
// direct influences of a name are its immediate dependents; its indirect
// influences are the dependents reached through longer chains, which a
// profiler attributes as ripple cost.
package graph

import (
	"sort"

	"github.com/aledsdavies/makeprof/core/invariant"
	"github.com/aledsdavies/makeprof/pkgs/ast"
)

// Set is an unordered set of target names
type Set map[string]struct{}

// Add inserts name
func (s Set) Add(name string) { s[name] = struct{}{} }

// Has reports membership
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of members
func (s Set) Len() int { return len(s) }

// Sorted returns the members in lexicographic order. Never nil.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Deps is the prerequisite pair recorded for one target
type Deps struct {
	Deps      []string
	OrderDeps []string
}

// Graph is the result of Build. Callers must not mutate it.
type Graph struct {
	// Dependencies maps each declared target to its prerequisites. A target
	// declared more than once keeps its last declaration.
	Dependencies map[string]Deps

	// Influences maps every known name to its direct dependents. Every
	// declared target and every referenced prerequisite has a key.
	Influences map[string]Set

	// OrderOnly holds every name referenced as an order-only prerequisite
	OrderOnly Set

	// IndirectInfluences maps every key of Influences to the dependents
	// reachable through chains of two or more edges.
	IndirectInfluences map[string]Set

	// Cycles lists the strongly connected components of the influence
	// graph that contain a cycle. Empty for a well-formed makefile.
	Cycles [][]string
}

// Build derives the graph from doc. It is a pure function: doc is not
// modified and nothing is shared between calls.
func Build(doc *ast.Document, opts ...BuildOpt) (*Graph, error) {
	invariant.NotNil(doc, "doc")
	config := newConfig(opts)

	g := &Graph{
		Dependencies:       make(map[string]Deps),
		Influences:         make(map[string]Set),
		OrderOnly:          make(Set),
		IndirectInfluences: make(map[string]Set),
	}

	g.addDirectEdges(doc, config)

	g.Cycles = findCycles(g.Influences)
	for _, c := range g.Cycles {
		config.logger.Warn("influence cycle", "members", c)
	}
	if len(g.Cycles) > 0 && config.rejectCycles {
		return nil, &CycleError{Cycles: g.Cycles}
	}

	if err := g.closeIndirect(config); err != nil {
		return nil, err
	}

	config.logger.Debug("built graph",
		"targets", len(g.Dependencies),
		"names", len(g.Influences),
		"order_only", len(g.OrderOnly),
		"cycles", len(g.Cycles))
	return g, nil
}

// addDirectEdges records dependencies and reverse influence edges for every
// non-excluded target. Excluded names are dropped wherever they appear.
func (g *Graph) addDirectEdges(doc *ast.Document, config *BuildConfig) {
	for _, decl := range doc.Targets() {
		if config.excluded[decl.Name] {
			config.logger.Debug("skipping excluded target", "name", decl.Name, "line", decl.Line)
			continue
		}

		g.Dependencies[decl.Name] = Deps{
			Deps:      keep(decl.Deps, config.excluded),
			OrderDeps: keep(decl.OrderDeps, config.excluded),
		}
		g.ensure(decl.Name)

		for _, d := range decl.Deps {
			if config.excluded[d] {
				continue
			}
			g.ensure(d).Add(decl.Name)
		}
		for _, d := range decl.OrderDeps {
			if config.excluded[d] {
				continue
			}
			g.ensure(d)
			g.OrderOnly.Add(d)
		}
	}
}

// ensure returns the influence set for name, creating it if missing
func (g *Graph) ensure(name string) Set {
	s, ok := g.Influences[name]
	if !ok {
		s = make(Set)
		g.Influences[name] = s
	}
	return s
}

// keep returns names minus excluded ones, preserving order. Never nil.
func keep(names []string, excluded map[string]bool) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !excluded[n] {
			out = append(out, n)
		}
	}
	return out
}

// Names returns every key of Influences, sorted
func (g *Graph) Names() []string {
	out := make([]string, 0, len(g.Influences))
	for name := range g.Influences {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is known to the graph
func (g *Graph) Has(name string) bool {
	_, ok := g.Influences[name]
	return ok
}

// InfluencesOf returns the direct dependents of name, sorted
func (g *Graph) InfluencesOf(name string) []string {
	return g.Influences[name].Sorted()
}

// IndirectInfluencesOf returns the ripple dependents of name, sorted
func (g *Graph) IndirectInfluencesOf(name string) []string {
	return g.IndirectInfluences[name].Sorted()
}

// BlastRadius returns every target that must be rebuilt when name changes:
// direct and indirect dependents together, sorted.
func (g *Graph) BlastRadius(name string) []string {
	all := make(Set)
	for n := range g.Influences[name] {
		all.Add(n)
	}
	for n := range g.IndirectInfluences[name] {
		all.Add(n)
	}
	return all.Sorted()
}

// HasCycles reports whether any influence cycle was found
func (g *Graph) HasCycles() bool {
	return len(g.Cycles) > 0
}
