package formatter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/graph"
	"github.com/aledsdavies/makeprof/pkgs/parser"
)

func buildGraph(t *testing.T, input string) *graph.Graph {
	t.Helper()
	doc, err := parser.ParseString(input)
	require.NoError(t, err)
	g, err := graph.Build(doc)
	require.NoError(t, err)
	return g
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "x", Colorize("x", ColorRed, false))
	assert.Equal(t, ColorRed+"x"+ColorReset, Colorize("x", ColorRed, true))
}

func TestFormatDocument(t *testing.T) {
	doc := ast.NewDocument(
		ast.Expr("CC := gcc"),
		ast.Tgt("app", "main.o").OrderOnly("obj").Documented("Build the app").Recipe("gcc -o app main.o"),
		ast.Tgt("clean"),
	)

	var buf bytes.Buffer
	FormatDocument(&buf, doc)

	want := "expr    CC := gcc\n" +
		"target  app: main.o | obj ## Build the app\n" +
		"          gcc -o app main.o\n" +
		"target  clean:\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatDocumentEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatDocument(&buf, ast.NewDocument())
	assert.Equal(t, "(empty)\n", buf.String())
}

func TestFormatGraph(t *testing.T) {
	g := buildGraph(t, "a: b\nb: c | out\nc:\n")

	var buf bytes.Buffer
	FormatGraph(&buf, g, false)

	want := "a <- (none)\n" +
		"b <- a\n" +
		"c <- b\n" +
		"  ripple: a\n" +
		"out <- (none)\n" +
		"\n" +
		"order-only: out\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatGraphCycles(t *testing.T) {
	g := buildGraph(t, "a: b\nb: a\n")

	var buf bytes.Buffer
	FormatGraph(&buf, g, false)
	assert.Contains(t, buf.String(), "cycles:\n  a -> b\n")
}

func TestFormatSummary(t *testing.T) {
	g := buildGraph(t, "a: b c\nb: c | d\n")
	assert.Equal(t, "2 targets, 4 names, 3 edges, 1 order-only, 0 cycles", FormatSummary(g))
}

func TestFormatBlastTree(t *testing.T) {
	g := buildGraph(t, "lib.a: file.o\napp: lib.a file.o\nall: app\n")

	var buf bytes.Buffer
	FormatBlastTree(&buf, g, "file.o", false)

	want := "file.o:\n" +
		"├─ app\n" +
		"│  └─ all\n" +
		"└─ lib.a\n" +
		"   └─ app (seen)\n" +
		"\n" +
		"direct: 2, ripple: 2\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatBlastTreeNoDependents(t *testing.T) {
	g := buildGraph(t, "all: app\n")

	var buf bytes.Buffer
	FormatBlastTree(&buf, g, "all", false)
	assert.Equal(t, "all:\n(no dependents)\n", buf.String())
}

func TestFormatBlastTreeCycleTerminates(t *testing.T) {
	g := buildGraph(t, "a: b\nb: a\n")

	var buf bytes.Buffer
	FormatBlastTree(&buf, g, "a", false)
	assert.Contains(t, buf.String(), "└─ b\n   └─ a (seen)\n")
}

func TestFormatDOT(t *testing.T) {
	g := buildGraph(t, "app: file.o | bin\n")

	var buf bytes.Buffer
	FormatDOT(&buf, g)

	want := "digraph makefile {\n" +
		"  rankdir=LR;\n" +
		"  \"app\";\n" +
		"  \"bin\" [shape=box];\n" +
		"  \"file.o\";\n" +
		"  \"file.o\" -> \"app\";\n" +
		"  \"bin\" -> \"app\" [style=dashed];\n" +
		"}\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name        string
		before      string
		after       string
		wantAdded   []string
		wantRemoved []string
		wantEdges   int
		wantEmpty   bool
	}{
		{
			name:      "identical graphs",
			before:    "a: b\n",
			after:     "a: b\n",
			wantEmpty: true,
		},
		{
			name:      "target added",
			before:    "a: b\n",
			after:     "a: b\nc: a\n",
			wantAdded: []string{"c"},
			wantEdges: 1,
		},
		{
			name:        "target removed",
			before:      "a: b\nc: a\n",
			after:       "a: b\n",
			wantRemoved: []string{"c"},
			wantEdges:   1,
		},
		{
			name:      "dependency order does not matter",
			before:    "a: b c\n",
			after:     "a: c b\n",
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Diff(buildGraph(t, tt.before), buildGraph(t, tt.after))
			assert.Equal(t, tt.wantEmpty, result.Empty())
			assert.Equal(t, tt.wantAdded, result.AddedNames)
			assert.Equal(t, tt.wantRemoved, result.RemovedNames)
			assert.Equal(t, tt.wantEdges, len(result.AddedEdges)+len(result.RemovedEdges))
		})
	}
}

func TestFormatDiff(t *testing.T) {
	before := buildGraph(t, "app: lib\nlib: src\n")
	after := buildGraph(t, "app: lib src\nlib: src\ntest: app\n")

	out := FormatDiff(Diff(before, after), false)

	assert.Contains(t, out, "Added targets:\n  + test\n")
	assert.Contains(t, out, "  + app -> test\n")
	assert.Contains(t, out, "  + src -> app\n")
	assert.Contains(t, out, "Ripple changes:\n")
	assert.False(t, strings.Contains(out, "No differences found."))

	assert.Equal(t, "No differences found.\n", FormatDiff(Diff(before, before), false))
}
