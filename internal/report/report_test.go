package report

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollbench/internal/portfolio"
	"rollbench/pkg/contracts/domain"
)

func sampleRun(task, strategy string, elapsed float64) domain.StrategyRun {
	now := time.Now()
	return domain.StrategyRun{
		ID:             task + "-" + strategy,
		Task:           task,
		Strategy:       strategy,
		Workers:        4,
		ElapsedSeconds: elapsed,
		PeakMemoryMiB:  128.5,
		MemorySamples:  3,
		StartedAt:      now,
		CompletedAt:    now.Add(time.Duration(elapsed * float64(time.Second))),
	}
}

func sampleTree() *portfolio.TreeSummary {
	return &portfolio.TreeSummary{
		Name:                "root",
		TotalValue:          2000,
		AggregateVolatility: 0.02,
		MaxDrawdown:         0.1,
		SubPortfolios: []*portfolio.TreeSummary{
			{Name: "growth", TotalValue: 500, AggregateVolatility: 0.03, MaxDrawdown: 0.1},
		},
	}
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()

	require.NoError(t, sink.Record(sampleRun("metrics", "sequential", 1.5)))
	require.NoError(t, sink.Record(sampleRun("metrics", "threading", 0.5)))
	require.NoError(t, sink.TreeRecord("sequential", sampleTree()))
	require.NoError(t, sink.Flush())

	runs := sink.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "sequential", runs[0].Strategy)
	assert.Equal(t, "threading", runs[1].Strategy)

	tree, ok := sink.Tree("sequential")
	require.True(t, ok)
	assert.Equal(t, "root", tree.Name)

	_, ok = sink.Tree("threading")
	assert.False(t, ok)
}

func TestMarkdownRender(t *testing.T) {
	w := NewMarkdownWriter(filepath.Join(t.TempDir(), "report.md"))
	w.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, w.Record(sampleRun("metrics", "sequential", 2.0)))
	require.NoError(t, w.Record(sampleRun("metrics", "threading", 0.5)))
	require.NoError(t, w.TreeRecord("sequential", sampleTree()))

	body := w.Render()

	assert.Contains(t, body, "# Benchmark Report")
	assert.Contains(t, body, "| metrics | sequential | 4 | 2.0000 | 1.00x | 128.5 | 3 |")
	// Threading at a quarter of the sequential time is a 4x speedup.
	assert.Contains(t, body, "| metrics | threading | 4 | 0.5000 | 4.00x | 128.5 | 3 |")
	assert.Contains(t, body, "## Portfolio structure (sequential)")
	assert.Contains(t, body, "- **root**: value 2000.00")
	assert.Contains(t, body, "  - **growth**: value 500.00")
}

func TestMarkdownUndefinedVolatility(t *testing.T) {
	w := NewMarkdownWriter(filepath.Join(t.TempDir(), "report.md"))

	run := sampleRun("portfolio", "sequential", 1.0)
	run.Summary = &domain.PortfolioSummary{
		Symbols:         []string{"AAPL"},
		LatestValue:     100,
		Volatility:      math.NaN(),
		VolatilityBasis: domain.BasisUncorrelated,
		Window:          20,
	}
	require.NoError(t, w.Record(run))

	body := w.Render()
	assert.Contains(t, body, "Volatility: undefined (uncorrelated)")
}

func TestMarkdownFlushWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "report.md")
	w := NewMarkdownWriter(path)
	require.NoError(t, w.Record(sampleRun("metrics", "sequential", 1.0)))
	require.NoError(t, w.Flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Benchmark Report")
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	w := NewCSVWriter(path)

	require.NoError(t, w.Record(sampleRun("metrics", "sequential", 1.5)))
	require.NoError(t, w.Record(sampleRun("metrics", "multiprocessing", 0.75)))
	require.NoError(t, w.Flush())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeaders, records[0])
	assert.Equal(t, "metrics", records[1][1])
	assert.Equal(t, "sequential", records[1][2])
	assert.Equal(t, "1.500000", records[1][4])
	assert.Equal(t, "multiprocessing", records[2][2])
}

func TestExcelWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.xlsx")
	w := NewExcelWriter(path)

	require.NoError(t, w.Record(sampleRun("metrics", "sequential", 1.5)))
	require.NoError(t, w.TreeRecord("sequential", sampleTree()))
	require.NoError(t, w.Flush())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), "Runs")
	assert.Contains(t, f.GetSheetList(), "Portfolio sequential")

	task, err := f.GetCellValue("Runs", "A2")
	require.NoError(t, err)
	assert.Equal(t, "metrics", task)

	name, err := f.GetCellValue("Portfolio sequential", "A2")
	require.NoError(t, err)
	assert.Equal(t, "root", name)
}

func TestMultiSinkFansOut(t *testing.T) {
	first := NewMemorySink()
	second := NewMemorySink()
	multi := NewMultiSink(first, second)

	require.NoError(t, multi.Record(sampleRun("metrics", "sequential", 1.0)))
	require.NoError(t, multi.TreeRecord("sequential", sampleTree()))
	require.NoError(t, multi.Flush())

	assert.Len(t, first.Runs(), 1)
	assert.Len(t, second.Runs(), 1)
}
