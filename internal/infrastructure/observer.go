package infrastructure

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rollbench/pkg/contracts/domain"
)

// MetricsObserver records run lifecycle events as OpenTelemetry metrics. It
// implements the manager's Observer contract.
type MetricsObserver struct {
	runsTotal     metric.Int64Counter
	runFailures   metric.Int64Counter
	runDuration   metric.Float64Histogram
	peakMemory    metric.Float64Gauge
	memorySamples metric.Int64Histogram
}

// NewMetricsObserver creates the benchmark instruments on the given meter.
func NewMetricsObserver(meter metric.Meter) (*MetricsObserver, error) {
	runsTotal, err := meter.Int64Counter(
		"benchmark_runs_total",
		metric.WithDescription("Total number of completed benchmark runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs counter: %w", err)
	}

	runFailures, err := meter.Int64Counter(
		"benchmark_run_failures_total",
		metric.WithDescription("Total number of failed benchmark runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("create failures counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram(
		"benchmark_run_duration_seconds",
		metric.WithDescription("Benchmark run wall time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}

	peakMemory, err := meter.Float64Gauge(
		"benchmark_run_peak_memory_mib",
		metric.WithDescription("Peak resident memory of the latest run in MiB"),
		metric.WithUnit("MiBy"),
	)
	if err != nil {
		return nil, fmt.Errorf("create peak memory gauge: %w", err)
	}

	memorySamples, err := meter.Int64Histogram(
		"benchmark_run_memory_samples",
		metric.WithDescription("Memory samples taken per benchmark run"),
	)
	if err != nil {
		return nil, fmt.Errorf("create samples histogram: %w", err)
	}

	return &MetricsObserver{
		runsTotal:     runsTotal,
		runFailures:   runFailures,
		runDuration:   runDuration,
		peakMemory:    peakMemory,
		memorySamples: memorySamples,
	}, nil
}

// RunStarted implements the observer contract. Starts are not counted
// separately; completions and failures cover the lifecycle.
func (o *MetricsObserver) RunStarted(task, strategy string) {}

// RunCompleted records the run's duration, peak memory and sample count.
func (o *MetricsObserver) RunCompleted(run domain.StrategyRun) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("task", run.Task),
		attribute.String("strategy", run.Strategy),
	)
	o.runsTotal.Add(ctx, 1, attrs)
	o.runDuration.Record(ctx, run.ElapsedSeconds, attrs)
	o.peakMemory.Record(ctx, run.PeakMemoryMiB, attrs)
	o.memorySamples.Record(ctx, int64(run.MemorySamples), attrs)
}

// RunFailed counts the failure.
func (o *MetricsObserver) RunFailed(task, strategy string, err error) {
	o.runFailures.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("task", task),
		attribute.String("strategy", strategy),
	))
}
