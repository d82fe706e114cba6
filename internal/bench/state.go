package bench

import (
	"sync"
	"time"

	"rollbench/pkg/contracts/domain"
)

// RunStatus is the lifecycle state of one (task, strategy) invocation.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusActive    RunStatus = "active"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// RunState tracks one (task, strategy) invocation through its lifecycle.
type RunState struct {
	mu sync.RWMutex

	Task        string     `json:"task"`
	Strategy    string     `json:"strategy"`
	Status      RunStatus  `json:"status"`
	RunID       string     `json:"run_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// NewRunState creates a pending state for one (task, strategy) pair.
func NewRunState(task, strategy string) *RunState {
	return &RunState{
		Task:     task,
		Strategy: strategy,
		Status:   RunStatusPending,
	}
}

// Start marks the invocation active.
func (s *RunState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Status = RunStatusActive
	s.StartedAt = &now
}

// Complete marks the invocation completed and records the run ID.
func (s *RunState) Complete(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Status = RunStatusCompleted
	s.RunID = runID
	s.CompletedAt = &now
}

// Fail marks the invocation failed.
func (s *RunState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Status = RunStatusFailed
	s.CompletedAt = &now
	if err != nil {
		s.Error = err.Error()
	}
}

// Skip marks the invocation skipped because an earlier strategy of the same
// task failed.
func (s *RunState) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = RunStatusSkipped
}

// Snapshot returns a copy safe to serialize.
func (s *RunState) Snapshot() RunState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RunState{
		Task:        s.Task,
		Strategy:    s.Strategy,
		Status:      s.Status,
		RunID:       s.RunID,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
		Error:       s.Error,
	}
}

// Observer receives run lifecycle notifications. Implementations must not
// block: notifications happen inline between profiled invocations.
type Observer interface {
	RunStarted(task, strategy string)
	RunCompleted(run domain.StrategyRun)
	RunFailed(task, strategy string, err error)
}
