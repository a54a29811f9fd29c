// Package ast holds the flat document model recovered from a makefile:
// target declarations with their prerequisites and recipe bodies, and every
// other logical line kept as an opaque expression, all in source order.
package ast

import (
	"fmt"
	"strings"
)

// Node is a single entry of a Document. It is implemented by *Expression
// and *Target only.
type Node interface {
	String() string
	Position() int
	node()
}

// Document is the parse result: one flat ordered sequence of nodes.
// Directive blocks (ifdef/else/endif) are not nested; each directive line is
// its own Expression.
type Document struct {
	Nodes []Node
}

// Expression is any logical line that is not a target declaration:
// assignments, directives, conditionals, stray recipe lines.
type Expression struct {
	Text string
	Line int
}

func (e *Expression) String() string { return e.Text }
func (e *Expression) Position() int  { return e.Line }
func (e *Expression) node()          {}

// Target wraps a declaration so it can sit in the node sequence
type Target struct {
	Decl TargetDecl
}

func (t *Target) String() string { return t.Decl.String() }
func (t *Target) Position() int  { return t.Decl.Line }
func (t *Target) node()          {}

// TargetDecl is one "name: deps | order-deps ## doc" declaration and the
// recipe lines that follow it.
//
// Deps and OrderDeps are sorted lexicographically and never deduplicated.
// Both are non-nil. Doc is the "##" label, or Name when there is none.
type TargetDecl struct {
	Name      string
	Deps      []string
	OrderDeps []string
	Doc       string
	Body      []string
	Line      int
}

func (d TargetDecl) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	b.WriteString(":")
	if len(d.Deps) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(d.Deps, " "))
	}
	if len(d.OrderDeps) > 0 {
		b.WriteString(" | ")
		b.WriteString(strings.Join(d.OrderDeps, " "))
	}
	if d.Doc != d.Name {
		fmt.Fprintf(&b, " ## %s", d.Doc)
	}
	return b.String()
}

// HasDoc reports whether the declaration carried an explicit "##" label
func (d TargetDecl) HasDoc() bool {
	return d.Doc != d.Name
}

func (doc *Document) String() string {
	lines := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		lines = append(lines, n.String())
		if t, ok := n.(*Target); ok {
			for _, cmd := range t.Decl.Body {
				lines = append(lines, "\t"+cmd)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Targets returns every target declaration in source order, duplicates included
func (doc *Document) Targets() []TargetDecl {
	var out []TargetDecl
	for _, n := range doc.Nodes {
		if t, ok := n.(*Target); ok {
			out = append(out, t.Decl)
		}
	}
	return out
}

// Expressions returns the text of every expression node in source order
func (doc *Document) Expressions() []string {
	var out []string
	for _, n := range doc.Nodes {
		if e, ok := n.(*Expression); ok {
			out = append(out, e.Text)
		}
	}
	return out
}

// Lookup returns the first declaration of name
func (doc *Document) Lookup(name string) (TargetDecl, bool) {
	for _, n := range doc.Nodes {
		if t, ok := n.(*Target); ok && t.Decl.Name == name {
			return t.Decl, true
		}
	}
	return TargetDecl{}, false
}

// Names returns declared target names in order of first appearance
func (doc *Document) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range doc.Nodes {
		t, ok := n.(*Target)
		if !ok || seen[t.Decl.Name] {
			continue
		}
		seen[t.Decl.Name] = true
		out = append(out, t.Decl.Name)
	}
	return out
}
