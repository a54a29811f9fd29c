package snapshot

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/graph"
)

// Node kinds in the canonical body
const (
	kindExpression uint8 = 1
	kindTarget     uint8 = 2
)

// canonicalBody is the deterministic form of a document and its graph.
// Maps become slices sorted by name so the encoding is byte-stable.
type canonicalBody struct {
	_            struct{} `cbor:",toarray"`
	Nodes        []canonicalNode
	Dependencies []canonicalDeps
	Influences   []canonicalSet
	OrderOnly    []string
	Indirect     []canonicalSet
	Cycles       [][]string
}

// canonicalNode is a union of Expression and Target
type canonicalNode struct {
	_         struct{} `cbor:",toarray"`
	Kind      uint8
	Line      int
	Text      string // expression text, or target name
	Deps      []string
	OrderDeps []string
	Doc       string
	Body      []string
}

type canonicalDeps struct {
	_         struct{} `cbor:",toarray"`
	Name      string
	Deps      []string
	OrderDeps []string
}

type canonicalSet struct {
	_       struct{} `cbor:",toarray"`
	Name    string
	Members []string
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoder options: %v", err))
	}
	return em
}()

// canonicalize converts doc and g to their canonical form
func canonicalize(doc *ast.Document, g *graph.Graph) *canonicalBody {
	body := &canonicalBody{
		Nodes:     make([]canonicalNode, 0, len(doc.Nodes)),
		OrderOnly: g.OrderOnly.Sorted(),
		Cycles:    g.Cycles,
	}

	for _, n := range doc.Nodes {
		switch n := n.(type) {
		case *ast.Expression:
			body.Nodes = append(body.Nodes, canonicalNode{Kind: kindExpression, Line: n.Line, Text: n.Text})
		case *ast.Target:
			d := n.Decl
			body.Nodes = append(body.Nodes, canonicalNode{
				Kind:      kindTarget,
				Line:      d.Line,
				Text:      d.Name,
				Deps:      d.Deps,
				OrderDeps: d.OrderDeps,
				Doc:       d.Doc,
				Body:      d.Body,
			})
		}
	}

	names := make([]string, 0, len(g.Dependencies))
	for name := range g.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d := g.Dependencies[name]
		body.Dependencies = append(body.Dependencies, canonicalDeps{Name: name, Deps: d.Deps, OrderDeps: d.OrderDeps})
	}

	for _, name := range g.Names() {
		body.Influences = append(body.Influences, canonicalSet{Name: name, Members: g.InfluencesOf(name)})
		body.Indirect = append(body.Indirect, canonicalSet{Name: name, Members: g.IndirectInfluencesOf(name)})
	}

	return body
}

// marshal produces the deterministic CBOR encoding of the body
func (b *canonicalBody) marshal() ([]byte, error) {
	data, err := encMode.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// restore rebuilds the document and graph from the canonical form
func (b *canonicalBody) restore() (*ast.Document, *graph.Graph, error) {
	doc := &ast.Document{Nodes: make([]ast.Node, 0, len(b.Nodes))}
	for i, n := range b.Nodes {
		switch n.Kind {
		case kindExpression:
			doc.Nodes = append(doc.Nodes, &ast.Expression{Text: n.Text, Line: n.Line})
		case kindTarget:
			doc.Nodes = append(doc.Nodes, &ast.Target{Decl: ast.TargetDecl{
				Name:      n.Text,
				Deps:      nonNil(n.Deps),
				OrderDeps: nonNil(n.OrderDeps),
				Doc:       n.Doc,
				Body:      nonNil(n.Body),
				Line:      n.Line,
			}})
		default:
			return nil, nil, fmt.Errorf("node %d: unknown kind %d", i, n.Kind)
		}
	}

	g := &graph.Graph{
		Dependencies:       make(map[string]graph.Deps, len(b.Dependencies)),
		Influences:         make(map[string]graph.Set, len(b.Influences)),
		OrderOnly:          toSet(b.OrderOnly),
		IndirectInfluences: make(map[string]graph.Set, len(b.Indirect)),
	}
	for _, d := range b.Dependencies {
		g.Dependencies[d.Name] = graph.Deps{Deps: nonNil(d.Deps), OrderDeps: nonNil(d.OrderDeps)}
	}
	for _, s := range b.Influences {
		g.Influences[s.Name] = toSet(s.Members)
	}
	for _, s := range b.Indirect {
		g.IndirectInfluences[s.Name] = toSet(s.Members)
	}
	for _, s := range b.Influences {
		for m := range g.Influences[s.Name] {
			if !g.Has(m) {
				return nil, nil, fmt.Errorf("influence %q -> %q references unknown name", s.Name, m)
			}
		}
	}
	if len(b.Cycles) > 0 {
		g.Cycles = b.Cycles
	}

	return doc, g, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func toSet(names []string) graph.Set {
	s := make(graph.Set, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}
