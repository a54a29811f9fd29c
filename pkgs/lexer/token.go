package lexer

import (
	"fmt"
)

// TokenType represents the kind of a logical makefile line
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota

	// Line kinds
	TARGET     // name: deps | order-deps ## doc
	COMMAND    // tab-indented recipe line
	EXPRESSION // anything else: assignments, directives, conditionals
)

// Pre-computed token name lookup for fast debugging
var tokenNames = [...]string{
	EOF:        "EOF",
	TARGET:     "TARGET",
	COMMAND:    "COMMAND",
	EXPRESSION: "EXPRESSION",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) && int(t) >= 0 {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one logical line of input. Continuation lines glued onto a
// TARGET or COMMAND are folded into a single token.
type Token struct {
	Type    TokenType
	Value   string
	Line    int // 1-based physical line the token starts on
	EndLine int // last physical line consumed, > Line when continuations were glued
}

// Position returns a formatted position string for error reporting
func (t Token) Position() string {
	if t.Line == t.EndLine {
		return fmt.Sprintf("%d", t.Line)
	}
	return fmt.Sprintf("%d-%d", t.Line, t.EndLine)
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Type, t.Value, t.Position())
}
