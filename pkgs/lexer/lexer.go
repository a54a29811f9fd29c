package lexer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DefaultMaxLineSize bounds a single physical line. Generated makefiles can
// carry very long recipe lines, so this is well above bufio's 64KiB default.
const DefaultMaxLineSize = 4 * 1024 * 1024

// UnterminatedContinuationError is returned when a line ends in an odd number
// of backslashes but the input ends before the continuation line arrives.
type UnterminatedContinuationError struct {
	Line int // physical line where the continued token started
}

func (e *UnterminatedContinuationError) Error() string {
	return fmt.Sprintf("line %d: unterminated line continuation at end of input", e.Line)
}

// Unwrap lets callers match the condition with errors.Is(err, io.ErrUnexpectedEOF).
func (e *UnterminatedContinuationError) Unwrap() error {
	return io.ErrUnexpectedEOF
}

// LexerOpt configures a Lexer
type LexerOpt func(*Lexer)

// WithLogger attaches a debug logger
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(l *Lexer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMaxLineSize overrides DefaultMaxLineSize
func WithMaxLineSize(n int) LexerOpt {
	return func(l *Lexer) {
		if n > 0 {
			l.maxLineSize = n
		}
	}
}

// Lexer turns physical lines into a forward-only token stream. It owns the
// underlying reader and consumes it exactly once, including lines swallowed
// by continuation. One token of lookahead is available through Peek.
type Lexer struct {
	scanner     *bufio.Scanner
	line        int // last physical line read (1-based)
	maxLineSize int
	logger      *slog.Logger

	// Lookahead slot. err is sticky once the stream is exhausted or broken.
	peeked *Token
	err    error
}

// New creates a Lexer reading from r
func New(r io.Reader, opts ...LexerOpt) *Lexer {
	l := &Lexer{
		maxLineSize: DefaultMaxLineSize,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.scanner = bufio.NewScanner(r)
	l.scanner.Buffer(make([]byte, 0, min(64*1024, l.maxLineSize)), l.maxLineSize)
	return l
}

// NextToken consumes and returns the next token. At end of input it returns
// an EOF token together with io.EOF; every later call does the same.
func (l *Lexer) NextToken() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	if l.err != nil {
		return l.eofToken(), l.err
	}

	tok, err := l.scan()
	if err != nil {
		l.err = err
		return l.eofToken(), err
	}
	return tok, nil
}

// Peek returns the next token without consuming it
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.NextToken()
	if err != nil {
		return tok, err
	}
	l.peeked = &tok
	return tok, nil
}

// Line returns the last physical line read
func (l *Lexer) Line() int {
	return l.line
}

func (l *Lexer) eofToken() Token {
	return Token{Type: EOF, Line: l.line, EndLine: l.line}
}

// readLine returns the next physical line without its terminator.
// ok is false at end of input.
func (l *Lexer) readLine() (line string, ok bool, err error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", false, fmt.Errorf("reading line %d: %w", l.line+1, err)
		}
		return "", false, nil
	}
	l.line++
	return l.scanner.Text(), true, nil
}

// scan produces the next token, skipping blank and comment lines
func (l *Lexer) scan() (Token, error) {
	for {
		raw, ok, err := l.readLine()
		if err != nil {
			return Token{}, err
		}
		if !ok {
			return Token{}, io.EOF
		}

		stripped := strings.TrimSpace(raw)
		if stripped == "" || IsComment(raw) {
			continue
		}

		start := l.line
		typ := Classify(raw)
		if typ == EXPRESSION {
			return Token{Type: EXPRESSION, Value: TrimExpression(raw), Line: start, EndLine: start}, nil
		}

		value, err := l.glue(stripped, start)
		if err != nil {
			return Token{}, err
		}
		if l.line > start {
			l.logger.Debug("glued continuation", "type", typ, "start", start, "end", l.line)
		}
		return Token{Type: typ, Value: value, Line: start, EndLine: l.line}, nil
	}
}

// glue joins continuation lines onto first. Each continued fragment loses one
// trailing backslash and is trimmed; fragments are joined with one space.
// The final fragment keeps any (even) run of trailing backslashes verbatim.
func (l *Lexer) glue(first string, start int) (string, error) {
	current := first
	if !Continued(current) {
		return current, nil
	}

	var parts []string
	for Continued(current) {
		parts = append(parts, strings.TrimSpace(current[:len(current)-1]))
		raw, ok, err := l.readLine()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &UnterminatedContinuationError{Line: start}
		}
		current = strings.TrimSpace(raw)
	}
	parts = append(parts, current)
	return strings.Join(parts, " "), nil
}

// Tokenize reads r to the end and returns every token. The trailing EOF token
// is not included.
func Tokenize(r io.Reader, opts ...LexerOpt) ([]Token, error) {
	l := New(r, opts...)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if errors.Is(err, io.EOF) {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}
