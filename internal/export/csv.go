package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
)

// CSVWriter writes one CSV file per processed input: a header of field
// names and a single row of values.
type CSVWriter struct {
	cfg    common.OutputConfig
	logger *slog.Logger
}

func NewCSVWriter(cfg common.OutputConfig, logger *slog.Logger) (*CSVWriter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	return &CSVWriter{cfg: cfg, logger: logger}, nil
}

// Path returns where the record for inputPath is written.
func (w *CSVWriter) Path(inputPath string) string {
	return filepath.Join(w.cfg.Dir, w.cfg.FileName(filepath.Base(inputPath)))
}

// Write stores record under Path(inputPath), replacing any earlier file.
func (w *CSVWriter) Write(inputPath string, record resolve.Record) (string, error) {
	if err := os.MkdirAll(w.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := w.Path(inputPath)
	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create output: %w", err)
	}

	cw := csv.NewWriter(f)
	for _, row := range [][]string{constants.FieldNames(), record.Row()} {
		if err := cw.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close output: %w", err)
	}

	w.logger.Debug("export.csv.ok", "input", inputPath, "output", out)
	return out, nil
}
