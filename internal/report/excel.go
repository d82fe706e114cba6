package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"rollbench/internal/portfolio"
	"rollbench/pkg/contracts/domain"
)

// ExcelWriter buffers runs and writes an xlsx workbook on Flush: a Runs
// summary sheet plus one Portfolio sheet per strategy that produced a
// rollup.
type ExcelWriter struct {
	mu    sync.Mutex
	path  string
	runs  []domain.StrategyRun
	trees []treeRecord
}

// NewExcelWriter creates a writer targeting the given file path.
func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

// Record implements Sink.
func (w *ExcelWriter) Record(run domain.StrategyRun) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runs = append(w.runs, run)
	return nil
}

// TreeRecord implements Sink.
func (w *ExcelWriter) TreeRecord(strategy string, tree *portfolio.TreeSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.trees = append(w.trees, treeRecord{strategy: strategy, tree: tree})
	return nil
}

// Flush implements Sink, writing the workbook.
func (w *ExcelWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeRunsSheet(f); err != nil {
		return err
	}
	for _, rec := range w.trees {
		if err := w.writePortfolioSheet(f, rec); err != nil {
			return err
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeRunsSheet(f *excelize.File) error {
	const sheet = "Runs"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []interface{}{
		"Task", "Strategy", "Workers", "Elapsed (s)", "Peak memory (MiB)", "Samples", "Run ID",
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i, run := range w.runs {
		row := []interface{}{
			run.Task,
			run.Strategy,
			run.Workers,
			run.ElapsedSeconds,
			run.PeakMemoryMiB,
			run.MemorySamples,
			run.ID,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write run row %d: %w", i, err)
		}
	}
	return nil
}

func (w *ExcelWriter) writePortfolioSheet(f *excelize.File, rec treeRecord) error {
	sheet := "Portfolio " + rec.strategy
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	headers := []interface{}{"Portfolio", "Depth", "Total value", "Volatility", "Max drawdown"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	row := 2
	var walk func(node *portfolio.TreeSummary, depth int) error
	walk = func(node *portfolio.TreeSummary, depth int) error {
		if node == nil {
			return nil
		}
		values := []interface{}{
			node.Name,
			depth,
			node.TotalValue,
			excelFloat(node.AggregateVolatility),
			excelFloat(node.MaxDrawdown),
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write portfolio row %d: %w", row, err)
		}
		row++
		for _, sub := range node.SubPortfolios {
			if err := walk(sub, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(rec.tree, 0)
}

// excelFloat maps the NaN undefined marker to a label; xlsx cells cannot
// hold NaN.
func excelFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "undefined"
	}
	return v
}
