package graph

import (
	"sort"

	"github.com/aledsdavies/makeprof/core/invariant"
)

// closeIndirect fills IndirectInfluences. For each name T it walks the
// influence edges depth-first from T's direct dependents; every visited node
// v contributes Influences[v]. The visited set is per start, so the walk
// terminates on cyclic graphs and each start costs at most O(V+E).
func (g *Graph) closeIndirect(config *BuildConfig) error {
	visits := 0
	for _, start := range g.Names() {
		indirect := make(Set)
		visited := make(Set)

		stack := g.Influences[start].Sorted()
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited.Has(v) {
				continue
			}
			visited.Add(v)

			visits++
			if config.maxVisits > 0 && visits > config.maxVisits {
				return &TraversalLimitError{Target: start, Limit: config.maxVisits}
			}

			next, ok := g.Influences[v]
			invariant.Invariant(ok, "influence set for %q must exist", v)
			for w := range next {
				indirect.Add(w)
				if !visited.Has(w) {
					stack = append(stack, w)
				}
			}
		}

		g.IndirectInfluences[start] = indirect
	}
	return nil
}

// findCycles returns the strongly connected components of the influence
// graph that contain a cycle: more than one member, or a self-loop. Each
// component is sorted and the list is ordered by first member.
func findCycles(edges map[string]Set) [][]string {
	t := &tarjan{
		edges:   edges,
		index:   make(map[string]int),
		lowlink: make(map[string]int),
		onStack: make(Set),
	}

	names := make([]string, 0, len(edges))
	for name := range edges {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, seen := t.index[name]; !seen {
			t.connect(name)
		}
	}

	var cycles [][]string
	for _, comp := range t.components {
		if len(comp) == 1 && !edges[comp[0]].Has(comp[0]) {
			continue
		}
		sort.Strings(comp)
		cycles = append(cycles, comp)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// tarjan holds the bookkeeping for Tarjan's strongly connected components
type tarjan struct {
	edges      map[string]Set
	next       int
	index      map[string]int
	lowlink    map[string]int
	stack      []string
	onStack    Set
	components [][]string
}

func (t *tarjan) connect(v string) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack.Add(v)

	for _, w := range t.edges[v].Sorted() {
		if _, seen := t.index[w]; !seen {
			t.connect(w)
			t.lowlink[v] = min(t.lowlink[v], t.lowlink[w])
		} else if t.onStack.Has(w) {
			t.lowlink[v] = min(t.lowlink[v], t.index[w])
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}

	var comp []string
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		delete(t.onStack, w)
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.components = append(t.components, comp)
}
