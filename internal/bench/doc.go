// Package bench orchestrates the benchmark suite. A Registry holds the
// tasks, and a Manager runs every task under every configured execution
// strategy, strictly one profiled invocation at a time so wall time and peak
// memory attribute to exactly one invocation.
//
// Per-run state is tracked in RunState values and published to Observers;
// completed runs are handed to report sinks in completion order. The
// JobQueue wraps the Manager for async execution from the HTTP server.
package bench
