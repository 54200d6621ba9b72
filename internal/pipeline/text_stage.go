package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

// TextStage turns an input file into text and records it on a new job.
type TextStage struct {
	JobsRepo      repository.ExtractJobRepository
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(jobs repository.ExtractJobRepository, tx extract.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{JobsRepo: jobs, TextExtractor: tx, Logger: logger}
}

// Run starts an extract_job, extracts the text, and persists it.
// Returns the job ID and the extraction summary. Field extraction is NOT run.
func (s *TextStage) Run(ctx context.Context, path string) (uuid.UUID, extract.TextExtractionResult, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return uuid.Nil, extract.TextExtractionResult{}, fmt.Errorf("%s: %w", path, common.ErrUnsupported)
	}

	job, err := s.JobsRepo.Start(ctx, path, format)
	if err != nil {
		return uuid.Nil, extract.TextExtractionResult{}, err
	}

	res, err := s.TextExtractor.Extract(common.WithJobID(ctx, job.ID.String()), path)
	if err != nil {
		s.fail(ctx, job.ID, err)
		return job.ID, res, fmt.Errorf("extract text: %w", err)
	}
	if err := s.JobsRepo.FinishText(ctx, job.ID, res.Text, res.Method); err != nil {
		s.fail(ctx, job.ID, err)
		return job.ID, res, err
	}
	return job.ID, res, nil
}

func (s *TextStage) fail(ctx context.Context, jobID uuid.UUID, cause error) {
	if err := s.JobsRepo.FinishFailure(ctx, jobID, cause.Error()); err != nil {
		s.Logger.Error("failed to record job failure", "job_id", jobID, "err", err)
	}
}
