package graph

import "log/slog"

// PhonyMarker is the special target name excluded from the graph by default
const PhonyMarker = ".PHONY"

// BuildOpt represents a graph build option
type BuildOpt func(*BuildConfig)

// BuildConfig holds graph build configuration
type BuildConfig struct {
	logger       *slog.Logger
	excluded     map[string]bool
	rejectCycles bool
	maxVisits    int
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(logger *slog.Logger) BuildOpt {
	return func(c *BuildConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithExcluded replaces the set of names kept out of the graph.
// Calling it with no names excludes nothing.
func WithExcluded(names ...string) BuildOpt {
	return func(c *BuildConfig) {
		c.excluded = make(map[string]bool, len(names))
		for _, n := range names {
			c.excluded[n] = true
		}
	}
}

// WithRejectCycles makes Build fail with *CycleError when the influence graph
// has a cycle, instead of recording it in Graph.Cycles.
func WithRejectCycles() BuildOpt {
	return func(c *BuildConfig) {
		c.rejectCycles = true
	}
}

// WithMaxVisits bounds the total number of nodes the indirect closure may
// visit across all targets. Zero means unbounded.
func WithMaxVisits(n int) BuildOpt {
	return func(c *BuildConfig) {
		if n >= 0 {
			c.maxVisits = n
		}
	}
}

func newConfig(opts []BuildOpt) *BuildConfig {
	c := &BuildConfig{
		logger:   slog.New(slog.DiscardHandler),
		excluded: map[string]bool{PhonyMarker: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
