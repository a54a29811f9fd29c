package graph

import (
	"fmt"
	"strings"
)

// CycleError reports influence cycles when WithRejectCycles is set.
// Each cycle is a strongly connected component, sorted.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		parts[i] = "{" + strings.Join(c, ", ") + "}"
	}
	noun := "cycle"
	if len(e.Cycles) != 1 {
		noun = "cycles"
	}
	return fmt.Sprintf("influence graph has %d %s: %s", len(e.Cycles), noun, strings.Join(parts, " "))
}

// TraversalLimitError is returned when the indirect closure exceeds the
// configured visit budget
type TraversalLimitError struct {
	Target string // start target whose traversal crossed the limit
	Limit  int
}

func (e *TraversalLimitError) Error() string {
	return fmt.Sprintf("indirect influence traversal from %q exceeded %d visits", e.Target, e.Limit)
}
