package parser

import (
	"fmt"
	"strings"
)

// ErrorKind categorizes parse failures
type ErrorKind int

const (
	ErrorMalformedTarget ErrorKind = iota
	ErrorUnterminatedContinuation
	ErrorRead
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorMalformedTarget:
		return "malformed target line"
	case ErrorUnterminatedContinuation:
		return "unterminated continuation"
	case ErrorRead:
		return "read error"
	default:
		return "error"
	}
}

// ParseError is the single fatal error a parse can produce. Parsing stops at
// the first one; there is no partial document.
type ParseError struct {
	Kind     ErrorKind
	Filename string // empty for stdin/string input
	Line     int
	Message  string
	Context  string // offending raw text, when there is one
	Err      error  // underlying cause
}

// Error formats the parse error with its location and a snippet of the
// offending text
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Filename != "" {
		fmt.Fprintf(&b, "%s:", e.Filename)
	}
	fmt.Fprintf(&b, "%d: %s", e.Line, e.Kind)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Context != "" {
		b.WriteString("\n   |\n")
		fmt.Fprintf(&b, "%3d | %s", e.Line, e.Context)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *ParseError) Unwrap() error {
	return e.Err
}
