package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const jobsSheet = "Invoices"

// Service produces XLSX bytes summarising extraction jobs.
type Service struct {
	jobsRepo repository.ExtractJobRepository
	logger   *slog.Logger
}

func NewService(jobs repository.ExtractJobRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobsRepo: jobs, logger: logger}
}

// ExportXLSX returns a workbook with one row per job matching filter.
func (s *Service) ExportXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error) {
	start := time.Now()

	jobs, err := s.jobsRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	b, err := JobsWorkbook(jobs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"status", string(filter.Status),
		"rows", len(jobs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// JobsWorkbook renders jobs into an XLSX workbook.
func JobsWorkbook(jobs []*repository.ExtractJob) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// rename the default sheet rather than leaving an empty one behind
	if err := f.SetSheetName(f.GetSheetName(0), jobsSheet); err != nil {
		return nil, err
	}

	headers := []string{"Source File"}
	headers = append(headers, constants.FieldNames()...)
	headers = append(headers, "Status", "Method", "Started", "Error", "Job ID")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(jobsSheet, cell, h)
	}

	for i, j := range jobs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(jobsSheet, cell, v)
		}

		col := 1
		write(col, j.SourcePath)
		for _, v := range j.Record.Row() {
			col++
			write(col, v)
		}
		write(col+1, string(j.Status))
		write(col+2, j.Method)
		write(col+3, j.StartedAt.UTC().Format(time.RFC3339))
		write(col+4, truncate(j.ErrorMessage, 140))
		write(col+5, j.ID.String())
	}

	// Widen a few columns
	_ = f.SetColWidth(jobsSheet, "A", "A", 40) // source
	_ = f.SetColWidth(jobsSheet, "B", "B", 28) // vendor
	_ = f.SetColWidth(jobsSheet, "C", "E", 16) // invoice, due, balance
	_ = f.SetColWidth(jobsSheet, "H", "H", 22) // started
	_ = f.SetColWidth(jobsSheet, "I", "I", 48) // error
	_ = f.SetColWidth(jobsSheet, "J", "J", 38) // id

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
