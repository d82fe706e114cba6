package report

import (
	"errors"
	"sync"

	"rollbench/internal/portfolio"
	"rollbench/pkg/contracts/domain"
)

// Sink receives benchmark output. Record is called once per completed run,
// in completion order; TreeRecord once per portfolio task run. Flush writes
// buffered output and is called once, after the suite.
type Sink interface {
	Record(run domain.StrategyRun) error
	TreeRecord(strategy string, tree *portfolio.TreeSummary) error
	Flush() error
}

// MultiSink fans out to several sinks. Every sink sees every call even when
// an earlier sink errors; errors are joined.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink fanning out to the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Record implements Sink.
func (m *MultiSink) Record(run domain.StrategyRun) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Record(run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TreeRecord implements Sink.
func (m *MultiSink) TreeRecord(strategy string, tree *portfolio.TreeSummary) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.TreeRecord(strategy, tree); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush implements Sink.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MemorySink buffers runs in memory. It backs tests and the HTTP API.
type MemorySink struct {
	mu    sync.RWMutex
	runs  []domain.StrategyRun
	trees map[string]*portfolio.TreeSummary
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{trees: make(map[string]*portfolio.TreeSummary)}
}

// Record implements Sink.
func (s *MemorySink) Record(run domain.StrategyRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// TreeRecord implements Sink.
func (s *MemorySink) TreeRecord(strategy string, tree *portfolio.TreeSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[strategy] = tree
	return nil
}

// Flush implements Sink. Nothing to materialize.
func (s *MemorySink) Flush() error { return nil }

// Runs returns the recorded runs in completion order.
func (s *MemorySink) Runs() []domain.StrategyRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]domain.StrategyRun, len(s.runs))
	copy(runs, s.runs)
	return runs
}

// Tree returns the latest tree rollup recorded for a strategy.
func (s *MemorySink) Tree(strategy string) (*portfolio.TreeSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tree, ok := s.trees[strategy]
	return tree, ok
}
