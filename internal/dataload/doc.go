// Package dataload feeds the benchmark harness: market data series from CSV,
// portfolio structures from JSON, and deterministic synthetic series for runs
// without a data file.
//
// Loaded data is validated here so the harness core can treat its inputs as
// already checked.
package dataload
