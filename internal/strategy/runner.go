package strategy

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// WorkFunc computes the output for one unit of work. It must be pure with
// respect to the batch: no shared mutable state between units, so that the
// same inputs produce the same outputs under every strategy.
type WorkFunc[I, O any] func(ctx context.Context, unit I) (O, error)

// RunBatch executes fn over every unit under the chosen strategy and returns
// the outputs in input order along with the elapsed wall time for the whole
// batch. On any unit failure the batch fails with a BatchExecutionError and
// no results are returned.
//
// Under Multiprocessing the unit function executes in the worker process via
// the name in opts.Task; that registration must resolve to the same fn, or
// results will not be comparable across strategies.
func RunBatch[I, O any](ctx context.Context, kind Kind, opts Options, units []I, fn WorkFunc[I, O]) ([]O, time.Duration, error) {
	start := time.Now()

	var (
		results []O
		err     error
	)
	switch kind {
	case Sequential:
		results, err = runSequential(ctx, units, fn)
	case Threading:
		results, err = runThreading(ctx, opts, units, fn)
	case Multiprocessing:
		results, err = runMultiprocessing(ctx, opts, units, fn)
	default:
		err = fmt.Errorf("unknown strategy %q", kind)
	}

	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}
	return results, elapsed, nil
}

// runSequential is the baseline: in-order synchronous invocation.
func runSequential[I, O any](ctx context.Context, units []I, fn WorkFunc[I, O]) ([]O, error) {
	results := make([]O, len(units))
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, &BatchExecutionError{Strategy: Sequential, Index: i, Cause: err}
		}
		out, err := fn(ctx, unit)
		if err != nil {
			return nil, &BatchExecutionError{Strategy: Sequential, Index: i, Cause: err}
		}
		results[i] = out
	}
	return results, nil
}

// runThreading fans units out to a fixed-size goroutine pool. Each result is
// written to its input slot, so completion order never leaks into the output.
func runThreading[I, O any](ctx context.Context, opts Options, units []I, fn WorkFunc[I, O]) ([]O, error) {
	results := make([]O, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.PoolSize(len(units)))
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			out, err := fn(gctx, unit)
			if err != nil {
				return &BatchExecutionError{Strategy: Threading, Index: i, Cause: err}
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
