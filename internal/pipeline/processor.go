// Package pipeline runs input files through text extraction and field
// resolution, recording each run as an extract_job.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// Sink receives the record of every successfully processed file.
type Sink interface {
	Write(inputPath string, record resolve.Record) (string, error)
}

// Result is the outcome of one processed input.
type Result struct {
	JobID      uuid.UUID
	Path       string
	Record     resolve.Record
	Text       extract.TextExtractionResult
	Fields     extract.FieldsResult
	OutputPath string
}

// Processor coordinates text extraction then field resolution.
type Processor struct {
	Logger *slog.Logger
	Text   *TextStage
	Fields *FieldsStage
	Sink   Sink
}

func NewProcessor(logger *slog.Logger, text *TextStage, fields *FieldsStage, sink Sink) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Fields: fields, Sink: sink}
}

// ProcessFile extracts text from path, resolves its fields, persists both on
// one extract_job, and hands the record to the sink. Any failure after the
// job is started leaves it FAILED.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, error) {
	res := Result{Path: path}

	jobID, txt, err := p.Text.Run(ctx, path)
	res.JobID, res.Text = jobID, txt
	if err != nil {
		p.Logger.Error("processor.text.failed", "path", path, "job_id", jobID, "err", err)
		return res, err
	}
	logger := common.LoggerWith(common.WithJobID(ctx, jobID.String()), p.Logger)
	logger.Info("processor.text.ok",
		"path", path,
		"method", txt.Method,
		"pages", txt.Pages,
		"chars", len(txt.Text),
		"duration_ms", txt.Duration.Milliseconds(),
	)

	if err := p.fields(ctx, logger, &res, txt.Text, nil); err != nil {
		return res, err
	}
	return res, nil
}

// ProcessText runs field resolution over caller-supplied text, recording it
// as a TXT job named source.
func (p *Processor) ProcessText(ctx context.Context, source, text string, spans []tokenize.Span) (Result, error) {
	res := Result{Path: source}

	job, err := p.Text.JobsRepo.Start(ctx, source, constants.TXT)
	if err != nil {
		return res, err
	}
	res.JobID = job.ID
	res.Text = extract.TextExtractionResult{Text: text, Pages: 1, SourceType: constants.TXT, Method: "inline"}
	if err := p.Text.JobsRepo.FinishText(ctx, job.ID, text, "inline"); err != nil {
		p.Text.fail(ctx, job.ID, err)
		return res, err
	}

	logger := common.LoggerWith(common.WithJobID(ctx, job.ID.String()), p.Logger)
	if err := p.fields(ctx, logger, &res, text, spans); err != nil {
		return res, err
	}
	return res, nil
}

func (p *Processor) fields(ctx context.Context, logger *slog.Logger, res *Result, text string, spans []tokenize.Span) error {
	fr, err := p.Fields.Run(ctx, res.JobID, text, spans)
	res.Fields = fr
	if err != nil {
		logger.Error("processor.fields.failed", "err", err)
		return err
	}
	res.Record = fr.Record
	logger.Info("processor.fields.ok",
		"tokens", fr.Tokens,
		"matches", fr.Matches,
		"entities", fr.Entities,
		"found", len(fr.Record.Spans()),
	)

	if p.Sink == nil {
		return nil
	}
	out, err := p.Sink.Write(res.Path, fr.Record)
	if err != nil {
		logger.Error("processor.output.failed", "err", err)
		return err
	}
	res.OutputPath = out
	logger.Info("processor.output.ok", "output", out)
	return nil
}
