// Package config resolves makeprof settings. Later layers override earlier
// ones: built-in defaults, the .makeprof.hcl file, a .env file, MAKEPROF_*
// environment variables, and finally command-line flags (applied by the
// caller).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"

	"github.com/aledsdavies/makeprof/internal/logging"
	"github.com/aledsdavies/makeprof/pkgs/graph"
)

const (
	// DefaultConfigFile is read from the working directory when present
	DefaultConfigFile = ".makeprof.hcl"

	// DefaultEnvFile is read from the working directory when present
	DefaultEnvFile = ".env"

	envPrefix = "MAKEPROF_"
)

// Config holds resolved settings
type Config struct {
	File         string // makefile path, "-" for stdin
	LogLevel     string
	LogFormat    string
	NoColor      bool
	MaxVisits    int // zero is unbounded
	RejectCycles bool
	PhonyTargets []string
	CacheSize    int
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		File:         "Makefile",
		LogLevel:     "warn",
		LogFormat:    "text",
		PhonyTargets: []string{graph.PhonyMarker},
		CacheSize:    128,
	}
}

// Options controls where Load looks
type Options struct {
	// ConfigFile is the HCL file to read. Empty means DefaultConfigFile,
	// which may be absent; an explicitly named file must exist.
	ConfigFile string

	// EnvFile is the dotenv file to read. Empty means DefaultEnvFile,
	// which may be absent.
	EnvFile string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	Logger *slog.Logger
}

// Load resolves the configuration from defaults, file and environment
func Load(opts Options) (Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	path, required := opts.ConfigFile, true
	if path == "" {
		path, required = DefaultConfigFile, false
	}
	fc, err := readFile(path, required)
	if err != nil {
		return Config{}, err
	}
	if fc != nil {
		logger.Debug("loaded config file", "path", path)
		fc.apply(&cfg)
	}

	envPath := firstNonEmpty(opts.EnvFile, DefaultEnvFile)
	dotenv, err := godotenv.Read(envPath)
	switch {
	case err == nil:
		logger.Debug("loaded env file", "path", envPath, "keys", len(dotenv))
	case errors.Is(err, fs.ErrNotExist) && opts.EnvFile == "":
		dotenv = map[string]string{}
	default:
		return Config{}, fmt.Errorf("failed to read env file %s: %w", envPath, err)
	}

	// Real environment wins over the dotenv file, as with godotenv.Load.
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := applyEnv(&cfg, get); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fileConfig mirrors the HCL file. Pointers distinguish unset from zero.
type fileConfig struct {
	File         *string   `hcl:"file,optional"`
	LogLevel     *string   `hcl:"log_level,optional"`
	LogFormat    *string   `hcl:"log_format,optional"`
	NoColor      *bool     `hcl:"no_color,optional"`
	MaxVisits    *int      `hcl:"max_visits,optional"`
	RejectCycles *bool     `hcl:"reject_cycles,optional"`
	PhonyTargets *[]string `hcl:"phony_targets,optional"`
	CacheSize    *int      `hcl:"cache_size,optional"`
}

// readFile parses and decodes the HCL config file. A missing optional file
// yields nil without error.
func readFile(path string, required bool) (*fileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.File != nil {
		cfg.File = *fc.File
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	if fc.NoColor != nil {
		cfg.NoColor = *fc.NoColor
	}
	if fc.MaxVisits != nil {
		cfg.MaxVisits = *fc.MaxVisits
	}
	if fc.RejectCycles != nil {
		cfg.RejectCycles = *fc.RejectCycles
	}
	if fc.PhonyTargets != nil {
		cfg.PhonyTargets = *fc.PhonyTargets
	}
	if fc.CacheSize != nil {
		cfg.CacheSize = *fc.CacheSize
	}
}

// applyEnv overrides cfg from MAKEPROF_* variables. NO_COLOR is honoured
// too, following the no-color.org convention.
func applyEnv(cfg *Config, get func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := get(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(name string, dst *bool) error {
		v, ok := get(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, name, v, err)
		}
		*dst = b
		return nil
	}
	integer := func(name string, dst *int) error {
		v, ok := get(envPrefix + name)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s%s %q: %w", envPrefix, name, v, err)
		}
		*dst = n
		return nil
	}

	str("FILE", &cfg.File)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	if v, ok := get("NO_COLOR"); ok && v != "" {
		cfg.NoColor = true
	}
	if v, ok := get(envPrefix + "PHONY_TARGETS"); ok {
		cfg.PhonyTargets = splitList(v)
	}

	return errors.Join(
		boolean("NO_COLOR", &cfg.NoColor),
		boolean("REJECT_CYCLES", &cfg.RejectCycles),
		integer("MAX_VISITS", &cfg.MaxVisits),
		integer("CACHE_SIZE", &cfg.CacheSize),
	)
}

// Validate reports every invalid setting at once
func (c Config) Validate() error {
	var errs []error
	if c.File == "" {
		errs = append(errs, errors.New("file must not be empty"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}
	if c.MaxVisits < 0 {
		errs = append(errs, fmt.Errorf("max_visits must be >= 0, got %d", c.MaxVisits))
	}
	if c.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("cache_size must be > 0, got %d", c.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// GraphOptions returns the graph build options these settings imply
func (c Config) GraphOptions(logger *slog.Logger) []graph.BuildOpt {
	opts := []graph.BuildOpt{
		graph.WithLogger(logger),
		graph.WithExcluded(c.PhonyTargets...),
		graph.WithMaxVisits(c.MaxVisits),
	}
	if c.RejectCycles {
		opts = append(opts, graph.WithRejectCycles())
	}
	return opts
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
