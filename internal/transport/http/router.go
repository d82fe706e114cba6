package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"rollbench/internal/bench"
	"rollbench/internal/config"
	"rollbench/internal/middleware"
	"rollbench/internal/report"
	"rollbench/internal/websocket"
)

// Deps are the collaborators the router exposes.
type Deps struct {
	Manager   *bench.Manager
	Queue     *bench.JobQueue
	Sink      *report.MemorySink
	Hub       *websocket.Hub
	Metrics   http.Handler
	Logger    *slog.Logger
	RateLimit config.RateLimitConfig
}

// NewRouter builds the HTTP routing tree.
func NewRouter(deps Deps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))

	handler := &benchmarkHandler{
		manager: deps.Manager,
		queue:   deps.Queue,
		sink:    deps.Sink,
		logger:  logger,
	}

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimit.Enabled {
			rl := middleware.NewRateLimiter(deps.RateLimit.RPS, deps.RateLimit.Burst, logger)
			r.Use(rl.Handler)
		}

		r.Get("/health", handler.health)
		r.Get("/runs", handler.listRuns)
		r.Get("/runs/{id}", handler.getRun)
		r.Get("/portfolio", handler.portfolio)
		r.Post("/benchmarks", handler.enqueueBenchmark)
		r.Get("/benchmarks", handler.listBenchmarks)
		r.Get("/benchmarks/{id}", handler.getBenchmark)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
	if deps.Hub != nil {
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			websocket.ServeWS(deps.Hub, w, req)
		})
	}

	return r
}
