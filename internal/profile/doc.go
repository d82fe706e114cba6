// Package profile wraps a single benchmark invocation with wall-clock timing
// and peak resident memory sampling.
//
// Timing brackets exactly the wrapped call with a monotonic clock. Memory is
// polled on a background goroutine at a fixed interval for the lifetime of
// the call: the reported peak is the maximum resident sample observed, an
// absolute footprint rather than a delta from baseline, which is what the
// strategy comparison needs.
//
// For the process-pool strategy the sampler adds the resident memory of
// direct child processes to each sample. Summing per-process samples is
// inherently less precise than in-process sampling; the caveat is carried in
// the result, not corrected silently.
//
// The profiler never swallows an error from the wrapped callable: the sampler
// is stopped first, then the error is returned as-is.
package profile
