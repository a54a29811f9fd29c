package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env returns a LookupEnv backed by a map
func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// isolated runs the test from an empty directory and hides the process env
func isolated(t *testing.T) Options {
	t.Helper()
	t.Chdir(t.TempDir())
	return Options{LookupEnv: env(nil)}
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(Options{LookupEnv: env(nil)})
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadHCLFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "makeprof.hcl", `
file          = "build/Makefile"
log_level     = "debug"
log_format    = "json"
no_color      = true
max_visits    = 5000
reject_cycles = true
phony_targets = [".PHONY", ".SUFFIXES"]
cache_size    = 16
`)

	opts := isolated(t)
	opts.ConfigFile = path
	cfg, err := Load(opts)
	require.NoError(t, err)

	want := Config{
		File:         "build/Makefile",
		LogLevel:     "debug",
		LogFormat:    "json",
		NoColor:      true,
		MaxVisits:    5000,
		RejectCycles: true,
		PhonyTargets: []string{".PHONY", ".SUFFIXES"},
		CacheSize:    16,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestPartialHCLKeepsDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "makeprof.hcl", `log_level = "info"`)

	opts := isolated(t)
	opts.ConfigFile = path
	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Makefile", cfg.File)
	assert.Equal(t, 128, cfg.CacheSize)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	opts := isolated(t)
	opts.ConfigFile = filepath.Join(t.TempDir(), "missing.hcl")

	_, err := Load(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestInvalidHCL(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax error", `log_level = `, "failed to parse HCL file"},
		{"unknown key", `colour = true`, "failed to decode HCL file"},
		{"wrong type", `max_visits = "lots"`, "failed to decode HCL file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := isolated(t)
			opts.ConfigFile = writeFile(t, t.TempDir(), "bad.hcl", tt.content)
			_, err := Load(opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	opts := isolated(t)
	opts.ConfigFile = writeFile(t, t.TempDir(), "makeprof.hcl", `
log_level  = "debug"
cache_size = 16
`)
	opts.LookupEnv = env(map[string]string{
		"MAKEPROF_LOG_LEVEL":     "error",
		"MAKEPROF_PHONY_TARGETS": ".PHONY, .DEFAULT ,",
		"MAKEPROF_REJECT_CYCLES": "true",
		"MAKEPROF_MAX_VISITS":    "10",
	})

	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, 16, cfg.CacheSize)
	assert.Equal(t, []string{".PHONY", ".DEFAULT"}, cfg.PhonyTargets)
	assert.True(t, cfg.RejectCycles)
	assert.Equal(t, 10, cfg.MaxVisits)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	opts := isolated(t)
	opts.EnvFile = writeFile(t, dir, ".env", "MAKEPROF_FILE=GNUmakefile\nMAKEPROF_LOG_FORMAT=json\n")
	opts.LookupEnv = env(map[string]string{"MAKEPROF_LOG_FORMAT": "text"})

	cfg, err := Load(opts)
	require.NoError(t, err)

	assert.Equal(t, "GNUmakefile", cfg.File)
	assert.Equal(t, "text", cfg.LogFormat, "process environment wins over .env")
}

func TestExplicitEnvFileMustExist(t *testing.T) {
	opts := isolated(t)
	opts.EnvFile = filepath.Join(t.TempDir(), "nope.env")
	_, err := Load(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read env file")
}

func TestNoColorConvention(t *testing.T) {
	opts := isolated(t)
	opts.LookupEnv = env(map[string]string{"NO_COLOR": "1"})

	cfg, err := Load(opts)
	require.NoError(t, err)
	assert.True(t, cfg.NoColor)
}

func TestInvalidEnvironment(t *testing.T) {
	opts := isolated(t)
	opts.LookupEnv = env(map[string]string{
		"MAKEPROF_MAX_VISITS":    "many",
		"MAKEPROF_REJECT_CYCLES": "perhaps",
	})

	_, err := Load(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAKEPROF_MAX_VISITS")
	assert.Contains(t, err.Error(), "MAKEPROF_REJECT_CYCLES")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "chatty"
	cfg.LogFormat = "xml"
	cfg.MaxVisits = -1
	cfg.CacheSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"unknown log level", "unknown log format", "max_visits", "cache_size"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestGraphOptions(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.GraphOptions(nil), 3)

	cfg.RejectCycles = true
	assert.Len(t, cfg.GraphOptions(nil), 4)
}
