package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/makeprof/pkgs/formatter"
	"github.com/aledsdavies/makeprof/pkgs/graph"
	"github.com/aledsdavies/makeprof/pkgs/lexer"
	"github.com/aledsdavies/makeprof/pkgs/parser"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Code    int
	Message string
	Details string // Additional context
	Hint    string // How to fix it
	Err     error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

func ioError(msg string, err error) *CLIError {
	return &CLIError{Code: ExitIOError, Message: msg, Err: err}
}

func usageError(msg, hint string) *CLIError {
	return &CLIError{Code: ExitInvalidArguments, Message: msg, Hint: hint}
}

// exitCode maps an error to the process exit code
func exitCode(err error) int {
	var cliErr *CLIError
	var parseErr *parser.ParseError
	var cycleErr *graph.CycleError
	var limitErr *graph.TraversalLimitError
	var contErr *lexer.UnterminatedContinuationError

	switch {
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.As(err, &parseErr), errors.As(err, &contErr):
		return ExitParseError
	case errors.As(err, &cycleErr), errors.As(err, &limitErr):
		return ExitGraphError
	default:
		return ExitInvalidArguments
	}
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		formatCLIError(w, cliErr, useColor)
		return
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", formatter.Colorize("Error: ", formatter.ColorRed, useColor), err.Error())
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	msg := err.Message
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	_, _ = fmt.Fprintf(w, "%s%s\n", formatter.Colorize("Error: ", formatter.ColorRed, useColor), msg)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", formatter.Colorize("Hint: ", formatter.ColorYellow, useColor), err.Hint)
	}
}

// findClosestMatch finds the closest string match using fuzzy matching.
// Subsequence matches are preferred; otherwise the nearest name by edit
// distance is returned when it is close enough to be a typo.
func findClosestMatch(target string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", len(target)/2+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(target), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
