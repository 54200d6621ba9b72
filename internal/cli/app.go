package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/ner"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/runner"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

// app is the wired extraction stack shared by the commands.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	db        *repository.DB
	jobs      repository.ExtractJobRepository
	processor *pipeline.Processor
}

// newApp builds the stack; withSink controls whether processed files get a
// CSV result file.
func newApp(ctx context.Context, cmd *cobra.Command, withSink bool) (*app, error) {
	logger, err := newLogger(stderr(cmd))
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	lib, err := loadLibrary(cfg.Extract.PatternsFile)
	if err != nil {
		return nil, err
	}
	exec := runner.Exec{Logger: logger}
	rec, err := buildRecognizer(cfg.Extract, exec, logger)
	if err != nil {
		return nil, err
	}
	fields, err := extract.NewRulesExtractor(extract.RulesConfig{
		Library:      lib,
		Recognizer:   rec,
		VendorLabels: cfg.Extract.VendorLabels,
		MaxTokens:    cfg.Extract.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	jobs := repository.NewExtractJobRepository(db, logger)

	text := extract.NewOCRAdapter(ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		HeicConverter: cfg.OCR.HeicConverter,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		LineEnd:       cfg.OCR.LineEnd,
		Normalize:     cfg.OCR.Normalize,
	}, exec, logger), logger)

	var sink pipeline.Sink
	if withSink {
		w, err := export.NewCSVWriter(cfg.Output, logger)
		if err != nil {
			db.Close(logger)
			return nil, err
		}
		sink = w
	}

	proc := pipeline.NewProcessor(logger,
		pipeline.NewTextStage(jobs, text, logger),
		pipeline.NewFieldsStage(jobs, fields, logger),
		sink,
	)
	return &app{cfg: cfg, logger: logger, db: db, jobs: jobs, processor: proc}, nil
}

func (a *app) Close() {
	a.db.Close(a.logger)
}

func loadLibrary(path string) (*patterns.Library, error) {
	if path == "" {
		return patterns.Default()
	}
	lib, err := patterns.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	return lib, nil
}

// buildRecognizer returns the heuristic, the external command, or both
// chained when the command is configured with NERHeuristic.
func buildRecognizer(cfg common.ExtractConfig, r runner.Runner, logger *slog.Logger) (ner.Recognizer, error) {
	if cfg.NERCommand == "" {
		return ner.Heuristic{}, nil
	}
	c, err := ner.NewCommand(cfg.NERCommand, r, logger)
	if err != nil {
		return nil, err
	}
	if cfg.NERHeuristic {
		return ner.Chain{c, ner.Heuristic{}}, nil
	}
	return c, nil
}
