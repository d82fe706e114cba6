package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 20, cfg.Benchmark.Window)
	assert.Equal(t, []string{"sequential", "threading", "multiprocessing"}, cfg.Benchmark.Strategies)
	assert.Equal(t, 50*time.Millisecond, cfg.Benchmark.SampleInterval)
	assert.Equal(t, 8080, cfg.Server.Port)
}

// chdir switches to dir for the duration of the test; it stands in for
// testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadMissingDefaultFileFallsBackToDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollbench.yaml")
	raw := `
benchmark:
  window: 30
  strategies: [sequential, threading]
  seed: 7
report:
  dir: out
  formats: [markdown, excel]
server:
  port: 9999
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Benchmark.Window)
	assert.Equal(t, []string{"sequential", "threading"}, cfg.Benchmark.Strategies)
	assert.Equal(t, int64(7), cfg.Benchmark.Seed)
	assert.Equal(t, "out", cfg.Report.Dir)
	assert.Equal(t, 9999, cfg.Server.Port)

	// Untouched sections keep their defaults.
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 252, cfg.Benchmark.SeriesLength)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark:\n  window: 30\n"), 0o644))

	t.Setenv("ROLLBENCH_BENCHMARK_WINDOW", "40")
	t.Setenv("ROLLBENCH_LOGGING_LEVEL", "debug")
	t.Setenv("ROLLBENCH_BENCHMARK_STRATEGIES", "sequential,multiprocessing")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Benchmark.Window)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"sequential", "multiprocessing"}, cfg.Benchmark.Strategies)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero window", func(c *Config) { c.Benchmark.Window = 0 }},
		{"unknown strategy", func(c *Config) { c.Benchmark.Strategies = []string{"gevent"} }},
		{"no strategies", func(c *Config) { c.Benchmark.Strategies = nil }},
		{"no symbols", func(c *Config) { c.Benchmark.Symbols = nil }},
		{"series too short", func(c *Config) { c.Benchmark.SeriesLength = 1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad report format", func(c *Config) { c.Report.Formats = []string{"pdf"} }},
		{"empty report dir", func(c *Config) { c.Report.Dir = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"file output without path", func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rollbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("benchmark: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}
