package bench

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an async suite run.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job is one queued benchmark suite execution.
type Job struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	RunIDs      []string   `json:"run_ids,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobQueue runs benchmark suites asynchronously with exactly one worker.
// A single worker is deliberate: concurrent suites would share the process
// and corrupt each other's memory attribution.
type JobQueue struct {
	manager *Manager
	logger  *slog.Logger
	jobs    chan string

	mu     sync.RWMutex
	byID   map[string]*Job
	closed bool

	wg       sync.WaitGroup
	shutdown chan struct{}
}

// NewJobQueue creates a queue over the manager. Capacity bounds how many
// suites may wait; further enqueues fail fast instead of blocking handlers.
func NewJobQueue(manager *Manager, capacity int, logger *slog.Logger) *JobQueue {
	if capacity <= 0 {
		capacity = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobQueue{
		manager:  manager,
		logger:   logger.With(slog.String("component", "jobqueue")),
		jobs:     make(chan string, capacity),
		byID:     make(map[string]*Job),
		shutdown: make(chan struct{}),
	}
}

// Start begins processing jobs.
func (q *JobQueue) Start(ctx context.Context) {
	q.logger.Info("starting job queue", slog.Int("capacity", cap(q.jobs)))
	q.wg.Add(1)
	go q.worker(ctx)
}

// Stop shuts the queue down, waiting up to timeout for the in-flight job.
func (q *JobQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping job queue")

	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.shutdown)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("job queue stopped")
		return nil
	case <-time.After(timeout):
		q.logger.Warn("job queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for worker to finish")
	}
}

// Enqueue queues one suite execution and returns its job.
func (q *JobQueue) Enqueue() (*Job, error) {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		CreatedAt: time.Now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, fmt.Errorf("job queue is shut down")
	}
	q.byID[job.ID] = job
	q.mu.Unlock()

	select {
	case q.jobs <- job.ID:
		q.logger.Info("job enqueued", slog.String("job_id", job.ID))
		return q.snapshot(job.ID), nil
	default:
		q.mu.Lock()
		job.Status = JobStatusFailed
		job.Error = "job queue is full"
		q.mu.Unlock()
		return nil, fmt.Errorf("job queue is full")
	}
}

// Get returns a copy of a job by ID.
func (q *JobQueue) Get(id string) (*Job, error) {
	if job := q.snapshot(id); job != nil {
		return job, nil
	}
	return nil, fmt.Errorf("job %s not found", id)
}

// List returns copies of all known jobs, newest first.
func (q *JobQueue) List() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	jobs := make([]*Job, 0, len(q.byID))
	for id := range q.byID {
		jobs = append(jobs, q.copyLocked(id))
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

func (q *JobQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.shutdown:
			return
		case id := <-q.jobs:
			q.process(ctx, id)
		}
	}
}

func (q *JobQueue) process(ctx context.Context, id string) {
	logger := q.logger.With(slog.String("job_id", id))
	logger.Info("processing job started")

	now := time.Now()
	q.mu.Lock()
	job := q.byID[id]
	job.Status = JobStatusRunning
	job.StartedAt = &now
	q.mu.Unlock()

	runs, err := q.manager.RunSuite(ctx)

	completedAt := time.Now()
	q.mu.Lock()
	job.CompletedAt = &completedAt
	for _, run := range runs {
		job.RunIDs = append(job.RunIDs, run.ID)
	}
	if err != nil {
		job.Status = JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = JobStatusCompleted
	}
	q.mu.Unlock()

	if err != nil {
		logger.Error("processing job failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("processing job completed", slog.Int("runs", len(runs)))
}

func (q *JobQueue) snapshot(id string) *Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.copyLocked(id)
}

func (q *JobQueue) copyLocked(id string) *Job {
	job, ok := q.byID[id]
	if !ok {
		return nil
	}
	cp := *job
	cp.RunIDs = append([]string(nil), job.RunIDs...)
	return &cp
}
