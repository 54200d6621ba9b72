package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/runner"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit
	PSM           int // e.g., 6 is good for uniform block of text

	// HeicConverter turns HEIC/HEIF photos into PNG before OCR:
	// heif-convert, magick or sips. Empty rejects HEIC input.
	HeicConverter string

	// LineEnd terminates every OCR JSON block; default "\n".
	LineEnd string
	// MinPDFText is the trimmed length under which a PDF text layer is
	// treated as missing and the pages are OCRed instead. Default 16.
	MinPDFText int
	// Normalize applies Normalize to JSON and plain-text input as well;
	// engine output is always normalized.
	Normalize bool
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.JSON | TXT | PDF | IMAGE
	Method     string // "ocr-json" | "plain-text" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

type Extractor struct {
	cfg    Config
	runner runner.Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, r runner.Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if r == nil {
		r = runner.Exec{Logger: logger}
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.LineEnd == "" {
		cfg.LineEnd = "\n"
	}
	if cfg.MinPDFText <= 0 {
		cfg.MinPDFText = 16
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.JSON:
		res, err = e.extractJSON(path)
	case constants.TXT:
		res, err = e.extractPlain(path)
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, path)
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("extension %q: %w", ext, common.ErrUnsupported)
	}
	res.Duration = time.Since(start)
	return res, err
}

func (e *Extractor) extractJSON(path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.JSON, Method: "ocr-json", Pages: 1}
	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	txt, err := DecodeJSON(f, e.cfg.LineEnd)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if e.cfg.Normalize {
		txt = Normalize(txt)
	}
	res.Text = txt
	return res, nil
}

func (e *Extractor) extractPlain(path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.TXT, Method: "plain-text", Pages: 1}
	b, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	res.Text = string(b)
	if e.cfg.Normalize {
		res.Text = Normalize(res.Text)
	}
	return res, nil
}
