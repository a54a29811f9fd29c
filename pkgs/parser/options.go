package parser

import (
	"log/slog"
	"time"
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// ParserConfig holds parser configuration
type ParserConfig struct {
	logger      *slog.Logger
	filename    string
	maxLineSize int
	timing      bool
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFilename names the source in error messages
func WithFilename(name string) ParserOpt {
	return func(c *ParserConfig) {
		c.filename = name
	}
}

// WithMaxLineSize bounds a single physical line
func WithMaxLineSize(n int) ParserOpt {
	return func(c *ParserConfig) {
		c.maxLineSize = n
	}
}

// WithTelemetryTiming records wall-clock parse time in Stats
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.timing = true
	}
}

// Stats describes one parse
type Stats struct {
	Lines       int // physical lines read
	Tokens      int
	Targets     int
	Expressions int
	Commands    int           // recipe lines attached to targets
	Duration    time.Duration // zero unless WithTelemetryTiming
}

func newConfig(opts []ParserOpt) *ParserConfig {
	c := &ParserConfig{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
