package strategy

import (
	"fmt"
	"runtime"
)

// Kind selects how a batch of units is executed. The set is closed: the
// harness benchmarks exactly these strategies against each other.
type Kind string

const (
	// Sequential iterates units in order on the calling goroutine. Baseline
	// for correctness and timing.
	Sequential Kind = "sequential"
	// Threading fans units out to a fixed-size pool of worker goroutines
	// over shared memory. Inputs are borrowed, not copied.
	Threading Kind = "threading"
	// Multiprocessing fans units out to a fixed-size pool of worker
	// processes. Inputs and outputs are serialized across the process
	// boundary, and that cost is part of the measurement.
	Multiprocessing Kind = "multiprocessing"
)

// Kinds lists all strategies in benchmark order.
func Kinds() []Kind {
	return []Kind{Sequential, Threading, Multiprocessing}
}

// ParseKind validates a configured strategy name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Sequential, Threading, Multiprocessing:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q (valid: sequential, threading, multiprocessing)", s)
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Options configures one batch execution.
type Options struct {
	// Workers is the pool size for the threading and multiprocessing
	// strategies. Zero means runtime.NumCPU().
	Workers int
	// Task names the registered worker function. Required for
	// multiprocessing, where the worker process resolves the function by
	// name; ignored by the in-process strategies.
	Task string
}

// PoolSize resolves the effective worker count for a batch of n units.
func (o Options) PoolSize(n int) int {
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
