// Package report turns completed benchmark runs into output artifacts. A
// Sink receives runs in completion order and portfolio tree rollups as they
// are produced; Flush materializes whatever the sink buffers. Writers exist
// for markdown (the human-facing comparison table), CSV and Excel workbooks,
// plus an in-memory sink backing tests and the HTTP API.
package report
