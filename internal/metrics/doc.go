// Package metrics implements the rolling financial metrics the benchmark
// harness dispatches across execution strategies.
//
// All functions are pure: deterministic for a given input, no shared mutable
// state, no I/O. That property is what makes results comparable across the
// sequential, thread-pool and process-pool strategies: strategy choice may
// only ever affect timing and memory, never values.
//
// # Window Semantics
//
// Rolling metrics return a series the same length as the input. Entries whose
// window is not yet full are NaN rather than an error, so a window equal to or
// larger than the series still produces a well-defined partial result.
//
// # Undefined Values
//
// The Sharpe ratio over a window with zero realized volatility is reported as
// NaN, the documented undefined marker. It is never an error: one degenerate
// series must not abort an entire parallel batch.
//
//   - rolling.go: SMA, volatility, returns, Sharpe
//   - drawdown.go: peak-to-date drawdown and maximum drawdown
//   - compute.go: the per-symbol unit of work combining all metrics
package metrics
