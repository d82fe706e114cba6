package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rollbench/internal/profile"
	"rollbench/internal/report"
	"rollbench/internal/strategy"
	"rollbench/pkg/contracts/domain"
)

// Config sets what the Manager runs.
type Config struct {
	// Kinds are the strategies each task runs under, in order. Empty means
	// all strategies.
	Kinds []strategy.Kind
	// Workers is the pool size for the pooled strategies. Zero means
	// runtime.NumCPU().
	Workers int
}

// Manager executes every registered task under every configured strategy.
// Invocations are strictly serial: the next one never starts before the
// previous profiler scope has closed, so elapsed time and peak memory
// attribute to exactly one invocation.
type Manager struct {
	registry *Registry
	profiler *profile.Profiler
	cfg      Config
	logger   *slog.Logger

	mu        sync.RWMutex
	sinks     []report.Sink
	observers []Observer
	states    []*RunState
	runs      []domain.StrategyRun
}

// NewManager creates a Manager over the given registry.
func NewManager(registry *Registry, profiler *profile.Profiler, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = strategy.Kinds()
	}
	return &Manager{
		registry: registry,
		profiler: profiler,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "bench_manager")),
	}
}

// AddSink registers a report sink. Completed runs are handed to every sink
// in completion order.
func (m *Manager) AddSink(sink report.Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, sink)
}

// AddObserver registers a run lifecycle observer.
func (m *Manager) AddObserver(obs Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// RunSuite executes the full suite: every task under every configured
// strategy, serially, each invocation profiled. A failing invocation aborts
// the rest of that task's strategies but not the remaining tasks; runs
// emitted before the failure stand. The error aggregates all failures.
func (m *Manager) RunSuite(ctx context.Context) ([]domain.StrategyRun, error) {
	tasks := m.registry.List()
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks registered")
	}

	m.logger.InfoContext(ctx, "benchmark suite started",
		slog.Int("tasks", len(tasks)),
		slog.Int("strategies", len(m.cfg.Kinds)),
		slog.Int("workers", m.cfg.Workers))

	states := make(map[string]*RunState, len(tasks)*len(m.cfg.Kinds))
	m.mu.Lock()
	m.states = m.states[:0]
	for _, task := range tasks {
		for _, kind := range m.cfg.Kinds {
			state := NewRunState(task.ID(), kind.String())
			states[task.ID()+"/"+kind.String()] = state
			m.states = append(m.states, state)
		}
	}
	m.mu.Unlock()

	var (
		suiteRuns []domain.StrategyRun
		failures  []error
	)
	for _, task := range tasks {
		taskFailed := false
		for _, kind := range m.cfg.Kinds {
			state := states[task.ID()+"/"+kind.String()]
			if taskFailed {
				state.Skip()
				continue
			}
			if err := ctx.Err(); err != nil {
				state.Skip()
				failures = append(failures, err)
				taskFailed = true
				continue
			}

			run, err := m.runOne(ctx, task, kind, state)
			if err != nil {
				failures = append(failures, fmt.Errorf("task %s under %s: %w", task.ID(), kind, err))
				taskFailed = true
				continue
			}
			suiteRuns = append(suiteRuns, run)
		}
	}

	m.logger.InfoContext(ctx, "benchmark suite finished",
		slog.Int("runs", len(suiteRuns)),
		slog.Int("failures", len(failures)))

	return suiteRuns, errors.Join(failures...)
}

// runOne executes one (task, strategy) invocation inside a profiler scope.
func (m *Manager) runOne(ctx context.Context, task Task, kind strategy.Kind, state *RunState) (domain.StrategyRun, error) {
	logger := m.logger.With(
		slog.String("task", task.ID()),
		slog.String("strategy", kind.String()))

	state.Start()
	startedAt := time.Now()
	m.notifyStarted(task.ID(), kind.String())
	logger.InfoContext(ctx, "run started")

	output, measurement, err := profile.MeasureValue(m.profiler, func() (TaskOutput, error) {
		return task.Run(ctx, kind, m.cfg.Workers)
	})
	if err != nil {
		state.Fail(err)
		m.notifyFailed(task.ID(), kind.String(), err)
		logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		return domain.StrategyRun{}, err
	}

	run := domain.StrategyRun{
		ID:             uuid.NewString(),
		Task:           task.ID(),
		Strategy:       kind.String(),
		Workers:        m.cfg.Workers,
		ElapsedSeconds: measurement.Elapsed.Seconds(),
		PeakMemoryMiB:  measurement.PeakMemoryMiB,
		MemorySamples:  measurement.Samples,
		Results:        output.Results,
		Summary:        output.Summary,
		StartedAt:      startedAt,
		CompletedAt:    time.Now(),
	}
	state.Complete(run.ID)

	m.mu.Lock()
	m.runs = append(m.runs, run)
	sinks := make([]report.Sink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Record(run); err != nil {
			logger.WarnContext(ctx, "sink record failed", slog.String("error", err.Error()))
		}
		if output.Tree != nil {
			if err := sink.TreeRecord(kind.String(), output.Tree); err != nil {
				logger.WarnContext(ctx, "sink tree record failed", slog.String("error", err.Error()))
			}
		}
	}
	m.notifyCompleted(run)

	logger.InfoContext(ctx, "run completed",
		slog.String("run_id", run.ID),
		slog.Float64("elapsed_seconds", run.ElapsedSeconds),
		slog.Float64("peak_memory_mib", run.PeakMemoryMiB))

	return run, nil
}

// Runs returns the completed runs in completion order.
func (m *Manager) Runs() []domain.StrategyRun {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]domain.StrategyRun, len(m.runs))
	copy(runs, m.runs)
	return runs
}

// Run looks up a completed run by ID.
func (m *Manager) Run(id string) (domain.StrategyRun, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, run := range m.runs {
		if run.ID == id {
			return run, true
		}
	}
	return domain.StrategyRun{}, false
}

// States returns a snapshot of all run states from the latest suite.
func (m *Manager) States() []RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	states := make([]RunState, len(m.states))
	for i, state := range m.states {
		states[i] = state.Snapshot()
	}
	return states
}

func (m *Manager) notifyStarted(task, strategy string) {
	for _, obs := range m.snapshotObservers() {
		obs.RunStarted(task, strategy)
	}
}

func (m *Manager) notifyCompleted(run domain.StrategyRun) {
	for _, obs := range m.snapshotObservers() {
		obs.RunCompleted(run)
	}
}

func (m *Manager) notifyFailed(task, strategy string, err error) {
	for _, obs := range m.snapshotObservers() {
		obs.RunFailed(task, strategy, err)
	}
}

func (m *Manager) snapshotObservers() []Observer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	return observers
}
