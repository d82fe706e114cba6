// Command rollbench runs the benchmark suite from the command line: it
// loads or generates market data, executes every task under every
// configured strategy and writes the report artifacts.
//
// The same binary doubles as the multiprocessing worker: when spawned with
// the worker environment marker it serves work units over stdin/stdout and
// never reaches the CLI path.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"rollbench/internal/bench"
	"rollbench/internal/config"
	"rollbench/internal/dataload"
	"rollbench/internal/infrastructure"
	"rollbench/internal/portfolio"
	"rollbench/internal/profile"
	"rollbench/internal/report"
	"rollbench/internal/strategy"
	"rollbench/pkg/contracts/domain"
)

func main() {
	// Worker processes must not parse flags or touch config.
	strategy.MaybeRunWorker()

	configPath := flag.String("config", "", "path to YAML config file")
	window := flag.Int("window", 0, "rolling window override")
	workers := flag.Int("workers", 0, "worker pool size override")
	strategies := flag.String("strategies", "", "comma-separated strategy list override")
	reportDir := flag.String("report-dir", "", "report output directory override")
	marketData := flag.String("data", "", "market data CSV path override")
	portfolioPath := flag.String("portfolio", "", "portfolio JSON path override")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	applyOverrides(cfg, *window, *workers, *strategies, *reportDir, *marketData, *portfolioPath)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, closeLog, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, logger); err != nil {
		logger.Error("benchmark failed", slog.String("error", err.Error()))
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	sinks := buildSinks(cfg.Report)
	for _, sink := range sinks {
		manager.AddSink(sink)
	}

	runs, runErr := manager.RunSuite(ctx)

	for _, sink := range sinks {
		if err := sink.Flush(); err != nil {
			logger.Error("flush report sink failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("benchmark finished",
		slog.Int("runs", len(runs)),
		slog.String("report_dir", cfg.Report.Dir))
	return runErr
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
		logger.Info("market data loaded",
			slog.String("path", cfg.Data.MarketDataPath),
			slog.Int("symbols", len(series)))
	} else {
		opts := dataload.DefaultGenerateOptions()
		opts.Length = cfg.Benchmark.SeriesLength
		opts.Seed = cfg.Benchmark.Seed
		series, err = dataload.Generate(cfg.Benchmark.Symbols, opts)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("market data generated",
			slog.Int("symbols", len(series)),
			slog.Int("length", opts.Length),
			slog.Int64("seed", opts.Seed))
	}

	var tree *portfolio.Tree
	if cfg.Data.PortfolioPath != "" {
		tree, err = dataload.LoadPortfolio(cfg.Data.PortfolioPath)
		if err != nil {
			return nil, nil, err
		}
	} else {
		tree = demoPortfolio(series)
	}
	return series, tree, nil
}

// demoPortfolio builds a two-level portfolio over the available symbols so
// the aggregation task has something to chew on without an input file.
func demoPortfolio(series map[string]domain.Series) *portfolio.Tree {
	symbols := make([]string, 0, len(series))
	for symbol := range series {
		symbols = append(symbols, symbol)
	}
	// Map order is random; sort for a reproducible portfolio.
	sort.Strings(symbols)

	root := &portfolio.Tree{Name: "main"}
	growth := &portfolio.Tree{Name: "growth"}
	for i, symbol := range symbols {
		position := domain.Position{Symbol: symbol, Quantity: float64(10 + 5*i)}
		if i%2 == 0 {
			root.Positions = append(root.Positions, position)
		} else {
			growth.Positions = append(growth.Positions, position)
		}
	}
	if len(growth.Positions) > 0 {
		root.SubPortfolios = append(root.SubPortfolios, growth)
	}
	return root
}

func buildSinks(cfg config.ReportConfig) []report.Sink {
	var sinks []report.Sink
	for _, format := range cfg.Formats {
		switch format {
		case "markdown":
			sinks = append(sinks, report.NewMarkdownWriter(filepath.Join(cfg.Dir, "performance_report.md")))
		case "csv":
			sinks = append(sinks, report.NewCSVWriter(filepath.Join(cfg.Dir, "runs.csv")))
		case "excel":
			sinks = append(sinks, report.NewExcelWriter(filepath.Join(cfg.Dir, "runs.xlsx")))
		}
	}
	return sinks
}

func applyOverrides(cfg *config.Config, window, workers int, strategies, reportDir, marketData, portfolioPath string) {
	if window > 0 {
		cfg.Benchmark.Window = window
	}
	if workers > 0 {
		cfg.Benchmark.Workers = workers
	}
	if strategies != "" {
		cfg.Benchmark.Strategies = splitList(strategies)
	}
	if reportDir != "" {
		cfg.Report.Dir = reportDir
	}
	if marketData != "" {
		cfg.Data.MarketDataPath = marketData
	}
	if portfolioPath != "" {
		cfg.Data.PortfolioPath = portfolioPath
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
