package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// FieldsStage resolves invoice fields from a job's text and stores the record.
type FieldsStage struct {
	JobsRepo  repository.ExtractJobRepository
	Extractor extract.FieldExtractor
	Logger    *slog.Logger
}

func NewFieldsStage(jobs repository.ExtractJobRepository, fe extract.FieldExtractor, logger *slog.Logger) *FieldsStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FieldsStage{JobsRepo: jobs, Extractor: fe, Logger: logger}
}

// Run extracts fields from text for jobID. spans, when non-nil, are used in
// place of the configured recognizer.
func (s *FieldsStage) Run(ctx context.Context, jobID uuid.UUID, text string, spans []tokenize.Span) (extract.FieldsResult, error) {
	res, err := s.Extractor.ExtractFields(ctx, extract.FieldsRequest{Text: text, Spans: spans})
	if err != nil {
		if ferr := s.JobsRepo.FinishFailure(ctx, jobID, err.Error()); ferr != nil {
			s.Logger.Error("failed to record job failure", "job_id", jobID, "err", ferr)
		}
		return res, fmt.Errorf("extract fields: %w", err)
	}

	for _, o := range res.Overlaps {
		s.Logger.Warn("pipeline.fields.overlap", "job_id", jobID, "a", o.A.String(), "b", o.B.String())
	}
	if missing := res.Record.Missing(); len(missing) > 0 {
		s.Logger.Info("pipeline.fields.missing", "job_id", jobID, "fields", missing)
	}

	if err := s.JobsRepo.FinishFields(ctx, jobID, res.Record); err != nil {
		return res, err
	}
	return res, nil
}
