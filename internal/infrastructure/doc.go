// Package infrastructure wires the ambient concerns: structured logging via
// slog and observability via OpenTelemetry with a Prometheus metric exporter
// and a stdout trace exporter. Nothing here knows about benchmarks beyond
// the instrument names; the bridge to run lifecycle events is the
// MetricsObserver.
package infrastructure
