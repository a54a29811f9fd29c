package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aledsdavies/makeprof/core/invariant"
	"github.com/aledsdavies/makeprof/pkgs/ast"
	"github.com/aledsdavies/makeprof/pkgs/lexer"
)

// targetRegex decomposes a glued target line:
//
//	NAME ':' DEPS? ('|' ORDER_DEPS?)? DOC?
//
// NAME runs to the first ':'. DEPS stops at '|' or '#', ORDER_DEPS stops at
// '#', DOC is "##" to end of line. Anything after an unmatched '#' is ignored,
// which is how single-'#' trailing comments disappear.
var targetRegex = regexp.MustCompile(`^([^:]*):\s?([^|#]+)?\s?\|?\s?([^#]+)?\s?(##.+)?`)

// ParseTargetLine splits a target token's text into a declaration with no
// body. ok is false when the line does not fit the grammar (empty name).
func ParseTargetLine(text string) (decl ast.TargetDecl, ok bool) {
	m := targetRegex.FindStringSubmatch(text)
	if m == nil {
		return ast.TargetDecl{}, false
	}

	name := strings.TrimSpace(m[1])
	if name == "" {
		return ast.TargetDecl{}, false
	}

	doc := name
	if m[4] != "" {
		doc = strings.TrimSpace(strings.Trim(strings.TrimSpace(m[4]), "#"))
	}

	return ast.TargetDecl{
		Name:      name,
		Deps:      splitSorted(m[2]),
		OrderDeps: splitSorted(m[3]),
		Doc:       doc,
		Body:      []string{},
	}, true
}

// splitSorted splits on whitespace and sorts. Source order is deliberately
// discarded; duplicates are kept.
func splitSorted(s string) []string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return fields
}

// Parse reads a makefile from r and returns its document
func Parse(r io.Reader, opts ...ParserOpt) (*ast.Document, error) {
	doc, _, err := ParseWithStats(r, opts...)
	return doc, err
}

// ParseString parses makefile content held in memory
func ParseString(content string, opts ...ParserOpt) (*ast.Document, error) {
	return Parse(strings.NewReader(content), opts...)
}

// ParseFile opens and parses the makefile at path. The path is used as the
// filename in errors unless WithFilename overrides it.
func ParseFile(path string, opts ...ParserOpt) (*ast.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening makefile %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f, append([]ParserOpt{WithFilename(path)}, opts...)...)
}

// ParseWithStats parses like Parse and also reports what it saw
func ParseWithStats(r io.Reader, opts ...ParserOpt) (*ast.Document, Stats, error) {
	invariant.NotNil(r, "reader")

	config := newConfig(opts)
	var lexOpts []lexer.LexerOpt
	lexOpts = append(lexOpts, lexer.WithLogger(config.logger))
	if config.maxLineSize > 0 {
		lexOpts = append(lexOpts, lexer.WithMaxLineSize(config.maxLineSize))
	}

	p := &parser{
		lex:    lexer.New(r, lexOpts...),
		config: config,
	}

	var start time.Time
	if config.timing {
		start = time.Now()
	}

	doc, err := p.parseDocument()
	p.stats.Lines = p.lex.Line()
	if config.timing {
		p.stats.Duration = time.Since(start)
	}
	if err != nil {
		return nil, p.stats, err
	}

	config.logger.Debug("parsed makefile",
		"file", config.filename,
		"lines", p.stats.Lines,
		"targets", p.stats.Targets,
		"expressions", p.stats.Expressions)
	return doc, p.stats, nil
}

// parser consumes the token stream with one token of lookahead
type parser struct {
	lex    *lexer.Lexer
	config *ParserConfig
	stats  Stats
}

// parseDocument is the top-level loop: targets pull in their recipe lines,
// everything else becomes an expression in place.
func (p *parser) parseDocument() (*ast.Document, error) {
	doc := &ast.Document{}

	for {
		tok, err := p.lex.NextToken()
		if errors.Is(err, io.EOF) {
			return doc, nil
		}
		if err != nil {
			return nil, p.lexError(err)
		}
		p.stats.Tokens++

		if tok.Type != lexer.TARGET {
			p.stats.Expressions++
			doc.Nodes = append(doc.Nodes, &ast.Expression{Text: tok.Value, Line: tok.Line})
			continue
		}

		target, err := p.parseTarget(tok)
		if err != nil {
			return nil, err
		}
		p.stats.Targets++
		doc.Nodes = append(doc.Nodes, target)
	}
}

// parseTarget builds one Target node from a TARGET token and its body
func (p *parser) parseTarget(tok lexer.Token) (*ast.Target, error) {
	invariant.Precondition(tok.Type == lexer.TARGET, "expected TARGET token, got %s", tok.Type)

	decl, ok := ParseTargetLine(tok.Value)
	if !ok {
		return nil, &ParseError{
			Kind:     ErrorMalformedTarget,
			Filename: p.config.filename,
			Line:     tok.Line,
			Message:  "missing target name before ':'",
			Context:  tok.Value,
		}
	}
	decl.Line = tok.Line

	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	decl.Body = body

	p.config.logger.Debug("target",
		"name", decl.Name,
		"line", decl.Line,
		"deps", len(decl.Deps),
		"order_deps", len(decl.OrderDeps),
		"body", len(decl.Body))
	return &ast.Target{Decl: decl}, nil
}

// parseBody consumes the run of COMMAND tokens following a target.
// An empty body is valid.
func (p *parser) parseBody() ([]string, error) {
	body := []string{}
	for {
		next, err := p.lex.Peek()
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		if err != nil {
			return nil, p.lexError(err)
		}
		if next.Type != lexer.COMMAND {
			return body, nil
		}

		tok, err := p.lex.NextToken()
		invariant.ExpectNoError(err, "consuming peeked token")
		p.stats.Tokens++
		p.stats.Commands++
		body = append(body, tok.Value)
	}
}

// lexError converts a lexer failure into a ParseError
func (p *parser) lexError(err error) error {
	var contErr *lexer.UnterminatedContinuationError
	if errors.As(err, &contErr) {
		return &ParseError{
			Kind:     ErrorUnterminatedContinuation,
			Filename: p.config.filename,
			Line:     contErr.Line,
			Message:  "input ended while a line continuation was pending",
			Err:      err,
		}
	}
	return &ParseError{
		Kind:     ErrorRead,
		Filename: p.config.filename,
		Line:     p.lex.Line() + 1,
		Message:  err.Error(),
		Err:      err,
	}
}
