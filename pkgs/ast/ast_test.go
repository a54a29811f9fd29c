package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleDocument() *Document {
	return NewDocument(
		Expr("CC := gcc"),
		Tgt("app", "util.o", "main.o").OrderOnly("bin").Recipe("$(CC) -o app main.o util.o").At(2),
		Expr("ifdef debug"),
		Tgt("app", "debug.o").At(4),
		Tgt("help").Documented("Show help").At(5),
	)
}

func TestTargetDeclString(t *testing.T) {
	tests := []struct {
		name string
		decl TargetDecl
		want string
	}{
		{"bare", Tgt("clean").Decl, "clean:"},
		{"deps sorted", Tgt("app", "b.o", "a.o").Decl, "app: a.o b.o"},
		{"order only", Tgt("app").OrderOnly("out").Decl, "app: | out"},
		{"documented", Tgt("test", "app").Documented("Run tests").Decl, "test: app ## Run tests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.decl.String())
		})
	}
}

func TestHasDoc(t *testing.T) {
	assert.False(t, Tgt("app").Decl.HasDoc())
	assert.True(t, Tgt("app").Documented("Build it").Decl.HasDoc())
}

func TestDocumentString(t *testing.T) {
	want := "CC := gcc\n" +
		"app: main.o util.o | bin\n" +
		"\t$(CC) -o app main.o util.o\n" +
		"ifdef debug\n" +
		"app: debug.o\n" +
		"help: ## Show help"
	assert.Equal(t, want, sampleDocument().String())
}

func TestDocumentQueries(t *testing.T) {
	doc := sampleDocument()

	assert.Len(t, doc.Targets(), 3)
	assert.Equal(t, []string{"CC := gcc", "ifdef debug"}, doc.Expressions())
	assert.Equal(t, []string{"app", "help"}, doc.Names())

	decl, ok := doc.Lookup("app")
	assert.True(t, ok)
	assert.Equal(t, 2, decl.Line)
	assert.Equal(t, []string{"main.o", "util.o"}, decl.Deps)

	_, ok = doc.Lookup("missing")
	assert.False(t, ok)
}

func TestPositions(t *testing.T) {
	doc := sampleDocument()
	assert.Equal(t, 2, doc.Nodes[1].Position())
	assert.Equal(t, 0, doc.Nodes[0].Position())
}

func TestBuilderCopiesDeps(t *testing.T) {
	deps := []string{"b", "a"}
	tgt := Tgt("x", deps...)
	assert.Equal(t, []string{"b", "a"}, deps)
	assert.Equal(t, []string{"a", "b"}, tgt.Decl.Deps)
	assert.Equal(t, []string{}, tgt.Decl.OrderDeps)
	assert.Equal(t, []string{}, tgt.Decl.Body)
}
