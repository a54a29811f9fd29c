package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/makeprof/internal/cache"
	"github.com/aledsdavies/makeprof/internal/config"
	"github.com/aledsdavies/makeprof/internal/logging"
	"github.com/aledsdavies/makeprof/pkgs/graph"
	"github.com/aledsdavies/makeprof/pkgs/parser"
	"github.com/aledsdavies/makeprof/pkgs/snapshot"
)

// app holds what every subcommand shares: streams, resolved settings and
// the logger built from them
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	flags struct {
		file       string
		configFile string
		envFile    string
		logLevel   string
		logFormat  string
		noColor    bool
	}

	cfg    config.Config
	logger *slog.Logger
	cache  *cache.Cache
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "makeprof",
		Short:         "Analyse makefile targets and their rebuild influence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.flags.file, "file", "f", "Makefile", "Path to the makefile (- for stdin)")
	flags.StringVar(&a.flags.configFile, "config", "", "Config file (default "+config.DefaultConfigFile+" if present)")
	flags.StringVar(&a.flags.envFile, "env-file", "", "Dotenv file (default "+config.DefaultEnvFile+" if present)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.flags.logFormat, "log-format", "", "Log format: text or json")
	flags.BoolVar(&a.flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newParseCmd(a),
		newGraphCmd(a),
		newBlastCmd(a),
		newSnapshotCmd(a),
		newDiffCmd(a),
		newWatchCmd(a),
	)
	return root
}

// configure resolves settings and applies flags that were set explicitly
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		ConfigFile: a.flags.configFile,
		EnvFile:    a.flags.envFile,
	})
	if err != nil {
		return usageError(err.Error(), "check "+config.DefaultConfigFile+" and MAKEPROF_* variables")
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.File = a.flags.file
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.flags.logFormat
	}
	if flags.Changed("no-color") {
		cfg.NoColor = a.flags.noColor
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err.Error(), "")
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)
	a.cache, err = cache.New(cfg.CacheSize)
	if err != nil {
		return usageError(err.Error(), "")
	}

	a.logger.Debug("configured", "file", cfg.File, "log_level", cfg.LogLevel, "cache_size", cfg.CacheSize)
	return nil
}

func (a *app) useColor() bool {
	return !a.cfg.NoColor && !a.flags.noColor && isTerminal(a.stdout)
}

// isTerminal reports whether w is a character device
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice != 0
}

// readInput returns the makefile content and the name it is reported under
func (a *app) readInput() ([]byte, string, error) {
	if a.cfg.File == "-" {
		content, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, "", ioError("error reading stdin", err)
		}
		return content, "<stdin>", nil
	}

	content, err := os.ReadFile(a.cfg.File)
	if err != nil {
		return nil, "", ioError(fmt.Sprintf("error reading makefile %s", a.cfg.File), err)
	}
	return content, a.cfg.File, nil
}

// analyse parses content and builds its graph
func (a *app) analyse(source string, content []byte, extra ...graph.BuildOpt) (*cache.Analysis, error) {
	doc, err := parser.Parse(bytes.NewReader(content),
		parser.WithFilename(source),
		parser.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(doc, append(a.cfg.GraphOptions(a.logger), extra...)...)
	if err != nil {
		return nil, err
	}

	digest, err := snapshot.Digest(doc, g)
	if err != nil {
		return nil, err
	}
	return &cache.Analysis{Document: doc, Graph: g, Digest: digest}, nil
}

// load reads the configured makefile and analyses it through the cache
func (a *app) load(extra ...graph.BuildOpt) (*cache.Analysis, string, error) {
	content, source, err := a.readInput()
	if err != nil {
		return nil, "", err
	}
	if len(extra) > 0 {
		result, err := a.analyse(source, content, extra...)
		return result, source, err
	}
	result, _, err := a.cache.GetOrAnalyse(content, func(c []byte) (*cache.Analysis, error) {
		return a.analyse(source, c)
	})
	return result, source, err
}
