package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.JSON | TXT | PDF | IMAGE
	Method     string // "ocr-json" | "plain-text" | "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// FieldExtractor is Stage 2: text -> resolved invoice fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req FieldsRequest) (FieldsResult, error)
}

type FieldsRequest struct {
	Text string
	// Spans, when non-nil, replaces the configured recognizer with
	// caller-computed statistical spans over Tokenize(Text).
	Spans []tokenize.Span
}

type FieldsResult struct {
	Record   resolve.Record
	Tokens   int
	Matches  int
	Entities int
	Overlaps []resolve.Overlap
	Duration time.Duration
}
