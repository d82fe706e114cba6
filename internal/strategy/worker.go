package strategy

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// WorkerEnv marks a process as a pool worker. The multiprocessing executor
// re-execs the running binary with this variable set; main functions must
// call MaybeRunWorker before doing anything else.
const WorkerEnv = "ROLLBENCH_WORKER"

// batchHeader opens the parent-to-worker stream.
type batchHeader struct {
	Task string
}

// unitHeader precedes each serialized unit on the parent-to-worker stream.
type unitHeader struct {
	Index int
}

// resultHeader precedes each result on the worker-to-parent stream. When
// Failed is set no output value follows.
type resultHeader struct {
	Index         int
	Failed        bool
	Serialization bool
	Message       string
}

// IsWorkerProcess reports whether this process was spawned as a pool worker.
func IsWorkerProcess() bool {
	return os.Getenv(WorkerEnv) == "1"
}

// MaybeRunWorker runs the worker loop over stdin/stdout and exits when the
// process is a pool worker. It returns immediately otherwise.
func MaybeRunWorker() {
	if !IsWorkerProcess() {
		return
	}
	if err := RunWorker(context.Background(), os.Stdin, os.Stdout); err != nil {
		slog.Error("worker loop failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	os.Exit(0)
}

// RunWorker consumes one batch stream: a batch header naming the registered
// task, then unit headers and units until EOF. Each unit's result (or
// failure) is written back in consumption order.
func RunWorker(ctx context.Context, r io.Reader, w io.Writer) error {
	dec := gob.NewDecoder(r)
	enc := gob.NewEncoder(w)

	var header batchHeader
	if err := dec.Decode(&header); err != nil {
		return fmt.Errorf("decode batch header: %w", err)
	}

	task, err := lookupTask(header.Task)
	if err != nil {
		return err
	}

	for {
		var unit unitHeader
		if err := dec.Decode(&unit); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode unit header: %w", err)
		}
		if err := task(ctx, dec, enc, unit.Index); err != nil {
			return fmt.Errorf("unit %d: %w", unit.Index, err)
		}
	}
}
