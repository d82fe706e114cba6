// Package strategy executes a batch of independent units of work under a
// selectable concurrency strategy: sequential, a fixed-size goroutine pool, or
// a fixed-size pool of worker processes.
//
// The contract is the same for every strategy: results come back in input
// order, the whole batch is timed as one invocation, and a single failing unit
// fails the batch with a BatchExecutionError carrying the failing unit's
// index. There is no partial-success mode; an incomplete batch is never
// reported as if it completed.
//
// The process-pool strategy serializes each unit and its result across the
// process boundary (gob over the worker's stdin/stdout). That cost is part of
// what the harness measures, so nothing here hides it: spawn, encode and
// decode all happen inside the timed batch. Worker functions must be
// registered by name with RegisterTask in both parent and worker (in
// practice a package-level init in the package that owns the task) because
// the worker is a re-exec of the running binary.
//
// There is no retry or timeout policy: a strategy either completes and is
// timed, or fails and the run aborts.
package strategy
