package strategy

import (
	"context"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// workerProc is one spawned pool worker. The executor owns both ends of its
// pipe pair and must close stdin to signal end of batch.
type workerProc struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
	wait   func() error
}

// spawnFunc starts one worker. Swapped out by tests to run the worker loop
// over in-memory pipes instead of a real child process.
type spawnFunc func(ctx context.Context) (*workerProc, error)

var spawnWorker spawnFunc = spawnProcess

// spawnProcess re-execs the current binary as a pool worker. The worker
// receives its own copy of every unit through the pipe; the serialization
// cost lands inside the timed batch.
func spawnProcess(ctx context.Context) (*workerProc, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe)
	cmd.Env = append(os.Environ(), WorkerEnv+"=1")
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("worker stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	return &workerProc{stdin: stdin, stdout: stdout, wait: cmd.Wait}, nil
}

// runMultiprocessing partitions units into contiguous index ranges, one per
// worker process, streams each range through its worker, and reassembles the
// outputs by index. A computation failure in any worker fails the batch with
// that unit's index; codec failures surface as SerializationError instead so
// reports can tell the parallelism boundary apart from the metric logic.
func runMultiprocessing[I, O any](ctx context.Context, opts Options, units []I, fn WorkFunc[I, O]) ([]O, error) {
	if len(units) == 0 {
		return []O{}, nil
	}
	if opts.Task == "" {
		return nil, fmt.Errorf("multiprocessing requires a registered task name")
	}
	if _, err := lookupTask(opts.Task); err != nil {
		return nil, err
	}

	workers := opts.PoolSize(len(units))
	results := make([]O, len(units))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	// Contiguous chunks keep the index math trivial and give every worker a
	// similar share of the batch.
	chunk := (len(units) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(units) {
			hi = len(units)
		}
		if lo >= hi {
			break
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			if err := runWorkerChunk(ctx, opts.Task, units, results, lo, hi); err != nil {
				fail(err)
			}
		}(lo, hi)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// runWorkerChunk drives one worker process over units[lo:hi], writing decoded
// outputs straight into their result slots.
func runWorkerChunk[I, O any](ctx context.Context, task string, units []I, results []O, lo, hi int) error {
	proc, err := spawnWorker(ctx)
	if err != nil {
		return fmt.Errorf("spawn worker: %w", err)
	}
	defer proc.stdout.Close()

	// Feed the worker from a separate goroutine so encode and decode overlap
	// instead of deadlocking on pipe buffers.
	encodeErr := make(chan error, 1)
	go func() {
		defer proc.stdin.Close()
		enc := gob.NewEncoder(proc.stdin)
		if err := enc.Encode(batchHeader{Task: task}); err != nil {
			encodeErr <- &SerializationError{Direction: "encode", Index: -1, Cause: err}
			return
		}
		for i := lo; i < hi; i++ {
			if err := enc.Encode(unitHeader{Index: i}); err != nil {
				encodeErr <- &SerializationError{Direction: "encode", Index: i, Cause: err}
				return
			}
			if err := enc.Encode(units[i]); err != nil {
				encodeErr <- &SerializationError{Direction: "encode", Index: i, Cause: err}
				return
			}
		}
		encodeErr <- nil
	}()

	dec := gob.NewDecoder(proc.stdout)
	var chunkErr error
	for i := lo; i < hi && chunkErr == nil; i++ {
		var header resultHeader
		if err := dec.Decode(&header); err != nil {
			chunkErr = &SerializationError{Direction: "decode", Index: i, Cause: err}
			break
		}
		if header.Failed {
			if header.Serialization {
				chunkErr = &SerializationError{
					Direction: "decode",
					Index:     header.Index,
					Cause:     &RemoteError{Serialization: true, Message: header.Message},
				}
			} else {
				chunkErr = &BatchExecutionError{
					Strategy: Multiprocessing,
					Index:    header.Index,
					Cause:    &RemoteError{Message: header.Message},
				}
			}
			break
		}

		var out O
		if err := dec.Decode(&out); err != nil {
			chunkErr = &SerializationError{Direction: "decode", Index: header.Index, Cause: err}
			break
		}
		results[header.Index] = out
	}

	// On failure, tear the pipes down first so neither the worker nor the
	// encode goroutine can block on a full pipe while we drain.
	if chunkErr != nil {
		proc.stdin.Close()
		proc.stdout.Close()
	}

	// Drain both sides before deciding the outcome so the worker process is
	// always reaped.
	if err := <-encodeErr; err != nil && chunkErr == nil {
		chunkErr = err
	}
	if err := proc.wait(); err != nil && chunkErr == nil {
		chunkErr = fmt.Errorf("worker exited: %w", err)
	}
	return chunkErr
}
