package graph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/parser"
)

// build parses input and builds its graph
func build(t *testing.T, input string, opts ...BuildOpt) *Graph {
	t.Helper()
	doc, err := parser.ParseString(input)
	require.NoError(t, err)
	g, err := Build(doc, opts...)
	require.NoError(t, err)
	return g
}

// sets flattens a set map to sorted slices for comparison
func sets(m map[string]Set) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = v.Sorted()
	}
	return out
}

func TestInfluenceDirection(t *testing.T) {
	g := build(t, "app.exe: file.o\n")

	want := map[string][]string{
		"app.exe": {},
		"file.o":  {"app.exe"},
	}
	if diff := cmp.Diff(want, sets(g.Influences)); diff != "" {
		t.Errorf("influences mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Deps{Deps: []string{"file.o"}, OrderDeps: []string{}}, g.Dependencies["app.exe"])
	_, declared := g.Dependencies["file.o"]
	assert.False(t, declared)
}

func TestOrderOnlyIsolation(t *testing.T) {
	g := build(t, "build: x | y\n")

	assert.True(t, g.OrderOnly.Has("y"))
	assert.False(t, g.OrderOnly.Has("x"))
	require.Contains(t, g.Influences, "y")
	assert.Equal(t, 0, g.Influences["y"].Len())
	assert.Equal(t, []string{"build"}, g.InfluencesOf("x"))
	assert.Equal(t, Deps{Deps: []string{"x"}, OrderDeps: []string{"y"}}, g.Dependencies["build"])
}

func TestIndirectClosure(t *testing.T) {
	g := build(t, "a: b\nb: c\nc:\n")

	wantDirect := map[string][]string{
		"a": {},
		"b": {"a"},
		"c": {"b"},
	}
	wantIndirect := map[string][]string{
		"a": {},
		"b": {},
		"c": {"a"},
	}
	if diff := cmp.Diff(wantDirect, sets(g.Influences)); diff != "" {
		t.Errorf("influences mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantIndirect, sets(g.IndirectInfluences)); diff != "" {
		t.Errorf("indirect influences mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"a", "b"}, g.BlastRadius("c"))
	assert.Empty(t, g.Cycles)
}

func TestIndirectIncludesNeighbourOnlyViaLongerPath(t *testing.T) {
	// a is a prerequisite of both b and c; c also depends on b
	g := build(t, "b: a\nc: a b\nd: b\n")

	assert.Equal(t, []string{"b", "c"}, g.InfluencesOf("a"))
	assert.Equal(t, []string{"c", "d"}, g.InfluencesOf("b"))
	assert.Equal(t, []string{"c", "d"}, g.IndirectInfluencesOf("a"))
	assert.Equal(t, []string{}, g.IndirectInfluencesOf("b"))
}

func TestLongChain(t *testing.T) {
	g := build(t, "e: d\nd: c\nc: b\nb: a\n")

	assert.Equal(t, []string{"c", "d", "e"}, g.IndirectInfluencesOf("a"))
	assert.Equal(t, []string{"d", "e"}, g.IndirectInfluencesOf("b"))
	assert.Equal(t, []string{"b", "c", "d", "e"}, g.BlastRadius("a"))
}

func TestEveryInfluenceKeyHasIndirectKey(t *testing.T) {
	g := build(t, "all: a b | out\na: src\n")

	for name := range g.Influences {
		_, ok := g.IndirectInfluences[name]
		assert.True(t, ok, "missing indirect entry for %q", name)
	}
	assert.Len(t, g.IndirectInfluences, len(g.Influences))
}

func TestPhonyExcluded(t *testing.T) {
	g := build(t, ".PHONY: build clean\nbuild: x\nclean:\ntest: .PHONY build\n")

	for _, m := range []map[string]Set{g.Influences, g.IndirectInfluences} {
		_, ok := m[PhonyMarker]
		assert.False(t, ok)
	}
	_, ok := g.Dependencies[PhonyMarker]
	assert.False(t, ok)
	assert.Equal(t, []string{"build"}, g.Dependencies["test"].Deps)
	assert.Equal(t, []string{"build", "clean", "test", "x"}, g.Names())
}

func TestWithExcluded(t *testing.T) {
	g := build(t, ".PHONY: all\nall: gen\ngen:\n", WithExcluded("gen"))

	assert.True(t, g.Has(PhonyMarker))
	assert.False(t, g.Has("gen"))
	assert.Equal(t, []string{}, g.Dependencies["all"].Deps)
}

func TestRedeclaredTargetLastWins(t *testing.T) {
	g := build(t, "build: a\nbuild: b\n")

	assert.Equal(t, []string{"b"}, g.Dependencies["build"].Deps)
	assert.Equal(t, []string{"build"}, g.InfluencesOf("a"))
	assert.Equal(t, []string{"build"}, g.InfluencesOf("b"))
}

func TestDuplicateDepsAddOneEdge(t *testing.T) {
	g := build(t, "all: x x\n")

	assert.Equal(t, []string{"x", "x"}, g.Dependencies["all"].Deps)
	assert.Equal(t, []string{"all"}, g.InfluencesOf("x"))
}

func TestCyclesTerminateAndAreReported(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantCycles [][]string
		wantA      []string
	}{
		{
			name:       "two node cycle",
			input:      "a: b\nb: a\n",
			wantCycles: [][]string{{"a", "b"}},
			wantA:      []string{"a", "b"},
		},
		{
			name:       "self loop",
			input:      "a: a\n",
			wantCycles: [][]string{{"a"}},
			wantA:      []string{"a"},
		},
		{
			name:       "cycle with tail",
			input:      "a: c\nb: a\nc: b\nd: a\n",
			wantCycles: [][]string{{"a", "b", "c"}},
			wantA:      []string{"a", "b", "c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.input)
			assert.True(t, g.HasCycles())
			if diff := cmp.Diff(tt.wantCycles, g.Cycles); diff != "" {
				t.Errorf("cycles mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantA, g.IndirectInfluencesOf("a"))
		})
	}
}

func TestRejectCycles(t *testing.T) {
	doc, err := parser.ParseString("a: b\nb: a\nc: c\n")
	require.NoError(t, err)

	g, err := Build(doc, WithRejectCycles())
	require.Error(t, err)
	assert.Nil(t, g)

	var cerr *CycleError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, cerr.Cycles)
	assert.Equal(t, "influence graph has 2 cycles: {a, b} {c}", err.Error())
}

func TestMaxVisits(t *testing.T) {
	doc, err := parser.ParseString("e: d\nd: c\nc: b\nb: a\n")
	require.NoError(t, err)

	_, err = Build(doc, WithMaxVisits(3))
	var lerr *TraversalLimitError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "a", lerr.Target)
	assert.Equal(t, 3, lerr.Limit)

	_, err = Build(doc, WithMaxVisits(100))
	assert.NoError(t, err)
}

func TestBuildIsPure(t *testing.T) {
	doc := ast.NewDocument(
		ast.Expr("CC := gcc"),
		ast.Tgt("app", "main.o", "util.o"),
		ast.Tgt("main.o", "main.c").OrderOnly("obj"),
	)

	first, err := Build(doc)
	require.NoError(t, err)
	second, err := Build(doc)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("builds differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, []string{"main.o", "util.o"}, doc.Nodes[1].(*ast.Target).Decl.Deps)
}

func TestEmptyDocument(t *testing.T) {
	g, err := Build(ast.NewDocument())
	require.NoError(t, err)
	assert.Empty(t, g.Influences)
	assert.Empty(t, g.IndirectInfluences)
	assert.Empty(t, g.Names())
	assert.Equal(t, []string{}, g.BlastRadius("missing"))
}
