// Package config loads the harness configuration: defaults, then an optional
// YAML file, then ROLLBENCH_* environment variables, highest last. The
// resulting struct is validated before anything starts; a config the
// validator rejects never reaches the benchmark.
package config
