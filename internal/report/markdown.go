package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"rollbench/internal/portfolio"
	"rollbench/pkg/contracts/domain"
)

// MarkdownWriter buffers runs and writes a human-facing comparison report
// on Flush: one table row per run, speedup against each task's sequential
// baseline, and the portfolio rollup per strategy.
type MarkdownWriter struct {
	mu    sync.Mutex
	path  string
	runs  []domain.StrategyRun
	trees []treeRecord
	now   func() time.Time
}

type treeRecord struct {
	strategy string
	tree     *portfolio.TreeSummary
}

// NewMarkdownWriter creates a writer targeting the given file path.
func NewMarkdownWriter(path string) *MarkdownWriter {
	return &MarkdownWriter{path: path, now: time.Now}
}

// Record implements Sink.
func (w *MarkdownWriter) Record(run domain.StrategyRun) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runs = append(w.runs, run)
	return nil
}

// TreeRecord implements Sink.
func (w *MarkdownWriter) TreeRecord(strategy string, tree *portfolio.TreeSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trees = append(w.trees, treeRecord{strategy: strategy, tree: tree})
	return nil
}

// Flush implements Sink, writing the report file.
func (w *MarkdownWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	content := w.render()
	if err := os.WriteFile(w.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// Render returns the report body without writing it. Used by tests and the
// HTTP report endpoint.
func (w *MarkdownWriter) Render() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.render()
}

func (w *MarkdownWriter) render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Benchmark Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", w.now().Format(time.RFC3339))

	b.WriteString("## Strategy comparison\n\n")
	b.WriteString("| Task | Strategy | Workers | Elapsed (s) | Speedup | Peak memory (MiB) | Samples |\n")
	b.WriteString("|------|----------|---------|-------------|---------|-------------------|---------|\n")

	baselines := sequentialBaselines(w.runs)
	for _, run := range w.runs {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s | %s | %d |\n",
			run.Task,
			run.Strategy,
			run.Workers,
			formatFloat(run.ElapsedSeconds, 4),
			formatSpeedup(baselines[run.Task], run.ElapsedSeconds),
			formatFloat(run.PeakMemoryMiB, 1),
			run.MemorySamples)
	}
	b.WriteString("\n")

	for _, run := range w.runs {
		if run.Summary == nil {
			continue
		}
		fmt.Fprintf(&b, "## Portfolio summary (%s)\n\n", run.Strategy)
		writeSummary(&b, run.Summary)
	}

	for _, rec := range w.trees {
		fmt.Fprintf(&b, "## Portfolio structure (%s)\n\n", rec.strategy)
		writeTree(&b, rec.tree, 0)
		b.WriteString("\n")
	}

	return b.String()
}

func writeSummary(b *strings.Builder, s *domain.PortfolioSummary) {
	fmt.Fprintf(b, "- Symbols: %s\n", strings.Join(s.Symbols, ", "))
	fmt.Fprintf(b, "- Latest value: %s\n", formatFloat(s.LatestValue, 2))
	fmt.Fprintf(b, "- Volatility: %s (%s)\n", formatFloat(s.Volatility, 6), s.VolatilityBasis)
	fmt.Fprintf(b, "- Max drawdown: %s\n", formatFloat(s.MaxDrawdown, 4))
	fmt.Fprintf(b, "- Window: %d\n\n", s.Window)
}

func writeTree(b *strings.Builder, node *portfolio.TreeSummary, depth int) {
	if node == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s- **%s**: value %s, volatility %s, max drawdown %s\n",
		indent,
		node.Name,
		formatFloat(node.TotalValue, 2),
		formatFloat(node.AggregateVolatility, 6),
		formatFloat(node.MaxDrawdown, 4))
	for _, sub := range node.SubPortfolios {
		writeTree(b, sub, depth+1)
	}
}

// sequentialBaselines maps task ID to its sequential elapsed time, when one
// was recorded.
func sequentialBaselines(runs []domain.StrategyRun) map[string]float64 {
	baselines := make(map[string]float64)
	for _, run := range runs {
		if run.Strategy == "sequential" {
			baselines[run.Task] = run.ElapsedSeconds
		}
	}
	return baselines
}

func formatSpeedup(baseline, elapsed float64) string {
	if baseline <= 0 || elapsed <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", baseline/elapsed)
}

func formatFloat(v float64, decimals int) string {
	if math.IsNaN(v) {
		return "undefined"
	}
	if math.IsInf(v, 0) {
		return "inf"
	}
	return fmt.Sprintf("%.*f", decimals, v)
}
