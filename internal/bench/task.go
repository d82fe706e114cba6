package bench

import (
	"context"
	"fmt"
	"sort"

	"rollbench/internal/metrics"
	"rollbench/internal/portfolio"
	"rollbench/internal/strategy"
	"rollbench/pkg/contracts/domain"
)

// Wire names under which the work functions are registered. The
// multiprocessing worker process resolves functions by these names, so they
// must be stable across parent and child.
const (
	TaskSymbolMetrics      = "metrics.symbols"
	TaskPortfolioPositions = "portfolio.positions"
)

// TaskOutput is what one task invocation produces under one strategy.
type TaskOutput struct {
	Results []domain.MetricResult
	Summary *domain.PortfolioSummary
	Tree    *portfolio.TreeSummary
}

// Task is one benchmarkable workload. Run must be deterministic for a given
// kind-independent input: every strategy is required to produce identical
// output, and the comparison tests hold tasks to that.
type Task interface {
	ID() string
	Name() string
	Run(ctx context.Context, kind strategy.Kind, workers int) (TaskOutput, error)
}

// SymbolUnit is the per-symbol unit of work. Exported fields only: units
// cross the process boundary under the multiprocessing strategy.
type SymbolUnit struct {
	Series domain.Series
	Window int
}

func computeSymbol(ctx context.Context, unit SymbolUnit) (domain.MetricResult, error) {
	return metrics.Compute(unit.Series, unit.Window)
}

func computePosition(ctx context.Context, unit portfolio.PositionInput) (portfolio.PositionMetrics, error) {
	return portfolio.ComputePosition(unit)
}

// Work functions register at init so the re-executed worker process resolves
// them by name before it starts decoding units.
func init() {
	strategy.RegisterTask(TaskSymbolMetrics, computeSymbol)
	strategy.RegisterTask(TaskPortfolioPositions, computePosition)
}

// MetricsTask computes the rolling metric set for every symbol, one unit per
// symbol.
type MetricsTask struct {
	series map[string]domain.Series
	window int
}

// NewMetricsTask creates the per-symbol metrics task. Symbol order is fixed
// at construction so unit order, and therefore result order, is stable.
func NewMetricsTask(series map[string]domain.Series, window int) (*MetricsTask, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("metrics task needs at least one series")
	}
	if window <= 0 {
		return nil, fmt.Errorf("metrics task window must be positive, got %d", window)
	}
	return &MetricsTask{series: series, window: window}, nil
}

// ID implements Task.
func (t *MetricsTask) ID() string { return "symbol_metrics" }

// Name implements Task.
func (t *MetricsTask) Name() string { return "Per-symbol rolling metrics" }

// Run implements Task.
func (t *MetricsTask) Run(ctx context.Context, kind strategy.Kind, workers int) (TaskOutput, error) {
	symbols := make([]string, 0, len(t.series))
	for symbol := range t.series {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	units := make([]SymbolUnit, len(symbols))
	for i, symbol := range symbols {
		units[i] = SymbolUnit{Series: t.series[symbol], Window: t.window}
	}

	opts := strategy.Options{Workers: workers, Task: TaskSymbolMetrics}
	results, _, err := strategy.RunBatch(ctx, kind, opts, units, computeSymbol)
	if err != nil {
		return TaskOutput{}, err
	}
	return TaskOutput{Results: results}, nil
}

// PortfolioTask runs the per-position pass over a portfolio tree and then
// aggregates: flat positions through the strategy under test, portfolio
// summary and tree rollup in the parent afterwards.
type PortfolioTask struct {
	tree   *portfolio.Tree
	series map[string]domain.Series
	window int
}

// NewPortfolioTask creates the portfolio aggregation task.
func NewPortfolioTask(tree *portfolio.Tree, series map[string]domain.Series, window int) (*PortfolioTask, error) {
	if tree == nil {
		return nil, fmt.Errorf("portfolio task needs a portfolio")
	}
	if len(tree.Flatten()) == 0 {
		return nil, fmt.Errorf("portfolio %s has no positions", tree.Name)
	}
	if window <= 0 {
		return nil, fmt.Errorf("portfolio task window must be positive, got %d", window)
	}
	return &PortfolioTask{tree: tree, series: series, window: window}, nil
}

// ID implements Task.
func (t *PortfolioTask) ID() string { return "portfolio_aggregation" }

// Name implements Task.
func (t *PortfolioTask) Name() string { return "Portfolio aggregation" }

// Run implements Task.
func (t *PortfolioTask) Run(ctx context.Context, kind strategy.Kind, workers int) (TaskOutput, error) {
	positions := t.tree.Flatten()

	units := make([]portfolio.PositionInput, len(positions))
	for i, pos := range positions {
		series, ok := t.series[pos.Symbol]
		if !ok {
			return TaskOutput{}, fmt.Errorf("no series for position %s", pos.Symbol)
		}
		units[i] = portfolio.PositionInput{Position: pos, Series: series, Window: t.window}
	}

	opts := strategy.Options{Workers: workers, Task: TaskPortfolioPositions}
	computed, _, err := strategy.RunBatch(ctx, kind, opts, units, computePosition)
	if err != nil {
		return TaskOutput{}, err
	}

	summary, err := portfolio.Aggregate(positions, t.series, t.window)
	if err != nil {
		return TaskOutput{}, err
	}
	treeSummary, err := portfolio.AggregateTree(t.tree, computed)
	if err != nil {
		return TaskOutput{}, err
	}

	return TaskOutput{Summary: &summary, Tree: treeSummary}, nil
}
