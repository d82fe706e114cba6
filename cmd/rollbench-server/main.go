// Command rollbench-server exposes the benchmark harness over HTTP: suites
// are enqueued through the API and executed one at a time, with run status
// pushed over websockets and metrics scraped from /metrics.
//
// Like the CLI, this binary doubles as the multiprocessing worker when
// spawned with the worker environment marker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"rollbench/internal/bench"
	"rollbench/internal/config"
	"rollbench/internal/dataload"
	"rollbench/internal/infrastructure"
	"rollbench/internal/portfolio"
	"rollbench/internal/profile"
	"rollbench/internal/report"
	"rollbench/internal/strategy"
	transporthttp "rollbench/internal/transport/http"
	"rollbench/internal/websocket"
	"rollbench/pkg/contracts/domain"
)

func main() {
	strategy.MaybeRunWorker()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, closeLog, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := infrastructure.InitializeOTel(ctx, infrastructure.OTelConfig{
		EnableMetrics: true,
		EnableTracing: true,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability shutdown failed", slog.String("error", err.Error()))
		}
	}()

	series, tree, err := loadInputs(cfg, logger)
	if err != nil {
		return err
	}

	registry := bench.NewRegistry()
	metricsTask, err := bench.NewMetricsTask(series, cfg.Benchmark.Window)
	if err != nil {
		return err
	}
	if err := registry.Register(metricsTask); err != nil {
		return err
	}
	portfolioTask, err := bench.NewPortfolioTask(tree, series, cfg.Benchmark.Window)
	if err != nil {
		return err
	}
	if err := registry.Register(portfolioTask); err != nil {
		return err
	}

	kinds := make([]strategy.Kind, 0, len(cfg.Benchmark.Strategies))
	for _, name := range cfg.Benchmark.Strategies {
		kind, err := strategy.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	manager := bench.NewManager(registry, profile.New(cfg.Benchmark.SampleInterval), bench.Config{
		Kinds:   kinds,
		Workers: cfg.Benchmark.Workers,
	}, logger)

	sink := report.NewMemorySink()
	manager.AddSink(sink)

	hub := websocket.NewHub(logger)
	hub.Start()
	defer hub.Stop()
	manager.AddObserver(websocket.NewRunObserver(hub))

	metricsObserver, err := infrastructure.NewMetricsObserver(providers.Meter)
	if err != nil {
		return err
	}
	manager.AddObserver(metricsObserver)

	queue := bench.NewJobQueue(manager, 8, logger)
	queue.Start(ctx)
	defer queue.Stop(cfg.Server.ShutdownTimeout)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Manager:   manager,
		Queue:     queue,
		Sink:      sink,
		Hub:       hub,
		Metrics:   providers.PrometheusHTTP,
		Logger:    logger,
		RateLimit: cfg.Server.RateLimit,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func loadInputs(cfg *config.Config, logger *slog.Logger) (map[string]domain.Series, *portfolio.Tree, error) {
	var (
		series map[string]domain.Series
		err    error
	)
	if cfg.Data.MarketDataPath != "" {
		series, err = dataload.LoadMarketData(cfg.Data.MarketDataPath)
		if err != nil {
			return nil, nil, err
		}
	} else {
		opts := dataload.DefaultGenerateOptions()
		opts.Length = cfg.Benchmark.SeriesLength
		opts.Seed = cfg.Benchmark.Seed
		series, err = dataload.Generate(cfg.Benchmark.Symbols, opts)
		if err != nil {
			return nil, nil, err
		}
	}
	logger.Info("market data ready", slog.Int("symbols", len(series)))

	if cfg.Data.PortfolioPath != "" {
		tree, err := dataload.LoadPortfolio(cfg.Data.PortfolioPath)
		if err != nil {
			return nil, nil, err
		}
		return series, tree, nil
	}

	// Without a portfolio file, spread the symbols across a small two-level
	// structure so the aggregation task exists.
	root := &portfolio.Tree{Name: "main"}
	growth := &portfolio.Tree{Name: "growth"}
	i := 0
	for _, symbol := range sortedSymbols(series) {
		position := domain.Position{Symbol: symbol, Quantity: float64(10 + 5*i)}
		if i%2 == 0 {
			root.Positions = append(root.Positions, position)
		} else {
			growth.Positions = append(growth.Positions, position)
		}
		i++
	}
	if len(growth.Positions) > 0 {
		root.SubPortfolios = append(root.SubPortfolios, growth)
	}
	return series, root, nil
}

func sortedSymbols(series map[string]domain.Series) []string {
	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
