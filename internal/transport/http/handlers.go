package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rollbench/internal/bench"
	"rollbench/internal/errors"
	"rollbench/internal/portfolio"
	"rollbench/internal/report"
	"rollbench/pkg/contracts/domain"
)

type benchmarkHandler struct {
	manager *bench.Manager
	queue   *bench.JobQueue
	sink    *report.MemorySink
	logger  *slog.Logger
}

func (h *benchmarkHandler) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// runListEntry is a run without its result payload; series arrays belong on
// the detail endpoint.
type runListEntry struct {
	ID             string    `json:"id"`
	Task           string    `json:"task"`
	Strategy       string    `json:"strategy"`
	Workers        int       `json:"workers"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	PeakMemoryMiB  float64   `json:"peak_memory_mib"`
	MemorySamples  int       `json:"memory_samples"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

func (h *benchmarkHandler) listRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.manager.Runs()
	entries := make([]runListEntry, len(runs))
	for i, run := range runs {
		entries[i] = runListEntry{
			ID:             run.ID,
			Task:           run.Task,
			Strategy:       run.Strategy,
			Workers:        run.Workers,
			ElapsedSeconds: run.ElapsedSeconds,
			PeakMemoryMiB:  run.PeakMemoryMiB,
			MemorySamples:  run.MemorySamples,
			StartedAt:      run.StartedAt,
			CompletedAt:    run.CompletedAt,
		}
	}
	render.JSON(w, r, map[string]interface{}{
		"runs":   entries,
		"states": h.manager.States(),
	})
}

func (h *benchmarkHandler) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, ok := h.manager.Run(id)
	if !ok {
		render.Render(w, r, errors.NotFound("run", id))
		return
	}
	render.JSON(w, r, run)
}

func (h *benchmarkHandler) portfolio(w http.ResponseWriter, r *http.Request) {
	runs := h.manager.Runs()
	summaries := make(map[string]*domain.PortfolioSummary)
	for _, run := range runs {
		if run.Summary != nil {
			summaries[run.Strategy] = run.Summary
		}
	}

	trees := make(map[string]*portfolio.TreeSummary)
	for strategy := range summaries {
		if tree, ok := h.sink.Tree(strategy); ok {
			trees[strategy] = tree
		}
	}

	if len(summaries) == 0 {
		render.Render(w, r, errors.NewWithDetails(http.StatusNotFound, "NOT_FOUND",
			"no portfolio runs recorded yet", nil))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"summaries": summaries,
		"trees":     trees,
	})
}

func (h *benchmarkHandler) enqueueBenchmark(w http.ResponseWriter, r *http.Request) {
	job, err := h.queue.Enqueue()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "enqueue benchmark failed",
			slog.String("error", err.Error()))
		render.Render(w, r, errors.ErrQueueUnavailable)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, job)
}

func (h *benchmarkHandler) listBenchmarks(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"jobs": h.queue.List(),
	})
}

func (h *benchmarkHandler) getBenchmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := h.queue.Get(id)
	if err != nil {
		render.Render(w, r, errors.NotFound("job", id))
		return
	}
	render.JSON(w, r, job)
}
