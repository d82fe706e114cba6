// Package http exposes the benchmark harness over HTTP: completed runs and
// their results, the portfolio rollup, async suite execution through the job
// queue, Prometheus metrics and the websocket status stream.
package http
