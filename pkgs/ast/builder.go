package ast

import "sort"

// NewDocument creates a document from nodes
func NewDocument(nodes ...Node) *Document {
	return &Document{Nodes: nodes}
}

// Expr creates an expression node
func Expr(text string) *Expression {
	return &Expression{Text: text}
}

// Tgt creates a target node with the given deps (sorted) and doc defaulted to name
func Tgt(name string, deps ...string) *Target {
	return &Target{Decl: TargetDecl{
		Name:      name,
		Deps:      sortedCopy(deps),
		OrderDeps: []string{},
		Doc:       name,
		Body:      []string{},
	}}
}

// OrderOnly sets the order-only prerequisites (sorted)
func (t *Target) OrderOnly(deps ...string) *Target {
	t.Decl.OrderDeps = sortedCopy(deps)
	return t
}

// Documented sets the doc label
func (t *Target) Documented(doc string) *Target {
	t.Decl.Doc = doc
	return t
}

// Recipe appends recipe lines to the body
func (t *Target) Recipe(cmds ...string) *Target {
	t.Decl.Body = append(t.Decl.Body, cmds...)
	return t
}

// At sets the source line
func (t *Target) At(line int) *Target {
	t.Decl.Line = line
	return t
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
