package lexer

import "strings"

// IsComment reports whether a raw physical line is a comment. A line whose
// stripped form starts with '#' is a comment unless the raw line itself
// starts with "##", which marks a doc line and is kept.
func IsComment(raw string) bool {
	stripped := strings.TrimSpace(raw)
	if stripped == "" || stripped[0] != '#' {
		return false
	}
	return !strings.HasPrefix(raw, "##")
}

// Classify decides the kind of a raw (non-blank, non-comment) line.
// A leading tab makes a recipe command; otherwise a line with ':' and no '='
// is a target declaration. Everything else is an opaque expression, so
// "CC := gcc" or "ifeq ($(X),a:=b)" never reach the target grammar.
func Classify(raw string) TokenType {
	switch {
	case strings.HasPrefix(raw, "\t"):
		return COMMAND
	case strings.Contains(raw, ":") && !strings.Contains(raw, "="):
		return TARGET
	default:
		return EXPRESSION
	}
}

// Continued reports whether a stripped line continues onto the next one:
// its trailing run of backslashes has odd length. Quotes and comment markers
// are not special.
func Continued(stripped string) bool {
	n := 0
	for i := len(stripped) - 1; i >= 0 && stripped[i] == '\\'; i-- {
		n++
	}
	return n&1 == 1
}

// TrimExpression strips spaces, tabs, newlines and semicolons from both
// ends of an expression line
func TrimExpression(raw string) string {
	return strings.Trim(raw, " ;\t\n")
}
