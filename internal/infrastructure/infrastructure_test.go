package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"rollbench/internal/config"
	"rollbench/pkg/contracts/domain"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestInitializeLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, closer, err := InitializeLogger(config.LoggingConfig{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	})
	require.NoError(t, err)

	logger.Info("logger smoke test", slog.String("key", "value"))
	require.NoError(t, closer())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "logger smoke test", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestInitializeLoggerFileOutputNeedsPath(t *testing.T) {
	_, _, err := InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "file",
	})
	require.Error(t, err)
}

func TestMetricsObserver(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	obs, err := NewMetricsObserver(provider.Meter("test"))
	require.NoError(t, err)

	obs.RunStarted("metrics", "sequential")
	obs.RunCompleted(domain.StrategyRun{
		Task:           "metrics",
		Strategy:       "sequential",
		ElapsedSeconds: 1.5,
		PeakMemoryMiB:  256,
		MemorySamples:  30,
		StartedAt:      time.Now(),
		CompletedAt:    time.Now(),
	})
	obs.RunFailed("metrics", "threading", fmt.Errorf("induced"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["benchmark_runs_total"])
	assert.True(t, names["benchmark_run_failures_total"])
	assert.True(t, names["benchmark_run_duration_seconds"])
	assert.True(t, names["benchmark_run_peak_memory_mib"])
}

func TestInitializeOTel(t *testing.T) {
	ctx := context.Background()
	providers, err := InitializeOTel(ctx, OTelConfig{EnableMetrics: true}, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)

	require.NoError(t, providers.Shutdown(ctx))
}
