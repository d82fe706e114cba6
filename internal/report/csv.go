package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"rollbench/internal/portfolio"
	"rollbench/pkg/contracts/domain"
)

// csvHeaders is the column set of the runs CSV, one row per strategy run.
var csvHeaders = []string{
	"run_id", "task", "strategy", "workers",
	"elapsed_seconds", "peak_memory_mib", "memory_samples",
	"results", "started_at", "completed_at",
}

// CSVWriter buffers runs and writes them as a single CSV file on Flush.
type CSVWriter struct {
	mu   sync.Mutex
	path string
	runs []domain.StrategyRun
}

// NewCSVWriter creates a writer targeting the given file path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Record implements Sink.
func (w *CSVWriter) Record(run domain.StrategyRun) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runs = append(w.runs, run)
	return nil
}

// TreeRecord implements Sink. Tree rollups have no flat row representation,
// the markdown and Excel writers carry them.
func (w *CSVWriter) TreeRecord(string, *portfolio.TreeSummary) error { return nil }

// Flush implements Sink, writing the CSV file.
func (w *CSVWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.Info("writing runs csv",
		slog.String("path", w.path),
		slog.Int("record_count", len(w.runs)))

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for _, run := range w.runs {
		if err := cw.Write(runRecord(run)); err != nil {
			return fmt.Errorf("write record for run %s: %w", run.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func runRecord(run domain.StrategyRun) []string {
	resultCount := len(run.Results)
	if run.Summary != nil {
		resultCount = len(run.Summary.Symbols)
	}
	return []string{
		run.ID,
		run.Task,
		run.Strategy,
		strconv.Itoa(run.Workers),
		strconv.FormatFloat(run.ElapsedSeconds, 'f', 6, 64),
		strconv.FormatFloat(run.PeakMemoryMiB, 'f', 2, 64),
		strconv.Itoa(run.MemorySamples),
		strconv.Itoa(resultCount),
		run.StartedAt.Format(time.RFC3339Nano),
		run.CompletedAt.Format(time.RFC3339Nano),
	}
}
