// Package export renders an analysed makefile as a JSON report for the
// profiling layer. Every report is checked against an embedded JSON Schema
// before it is written.
package export

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aledsdavies/makeprof/core/invariant"
	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/graph"
)

//go:embed report.schema.json
var schemaJSON []byte

const schemaURL = "schema://makeprof/report.json"

// Report is the JSON form of a document and its graph. Slices are sorted
// and never null.
type Report struct {
	Source             string              `json:"source,omitempty"`
	Digest             string              `json:"digest,omitempty"`
	Targets            []Target            `json:"targets"`
	Expressions        int                 `json:"expressions"`
	Influences         map[string][]string `json:"influences"`
	IndirectInfluences map[string][]string `json:"indirect_influences"`
	OrderOnly          []string            `json:"order_only"`
	Cycles             [][]string          `json:"cycles"`
}

// Target is one declaration in the report
type Target struct {
	Name        string   `json:"name"`
	Deps        []string `json:"deps"`
	OrderDeps   []string `json:"order_deps"`
	Doc         string   `json:"doc"`
	Body        []string `json:"body"`
	Line        int      `json:"line"`
	BlastRadius int      `json:"blast_radius"` // direct plus indirect dependents
}

// Build creates the report for doc and g. Targets appear in source order,
// duplicates included.
func Build(doc *ast.Document, g *graph.Graph) *Report {
	invariant.NotNil(doc, "doc")
	invariant.NotNil(g, "graph")

	r := &Report{
		Targets:            []Target{},
		Influences:         make(map[string][]string, len(g.Influences)),
		IndirectInfluences: make(map[string][]string, len(g.IndirectInfluences)),
		OrderOnly:          g.OrderOnly.Sorted(),
		Cycles:             [][]string{},
		Expressions:        len(doc.Expressions()),
	}

	for _, decl := range doc.Targets() {
		r.Targets = append(r.Targets, Target{
			Name:        decl.Name,
			Deps:        orEmpty(decl.Deps),
			OrderDeps:   orEmpty(decl.OrderDeps),
			Doc:         decl.Doc,
			Body:        orEmpty(decl.Body),
			Line:        decl.Line,
			BlastRadius: len(g.BlastRadius(decl.Name)),
		})
	}
	for _, name := range g.Names() {
		r.Influences[name] = g.InfluencesOf(name)
		r.IndirectInfluences[name] = g.IndirectInfluencesOf(name)
	}
	r.Cycles = append(r.Cycles, g.Cycles...)

	return r
}

// WithDigest records the snapshot digest identifying this analysis
func (r *Report) WithDigest(sum [32]byte) *Report {
	r.Digest = hex.EncodeToString(sum[:])
	return r
}

// WithSource records the makefile path
func (r *Report) WithSource(source string) *Report {
	r.Source = source
	return r
}

// WriteJSON validates the report and writes it as indented JSON
func WriteJSON(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Validate checks JSON data against the report schema
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// compiledSchema compiles the embedded schema once
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load report schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile report schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
