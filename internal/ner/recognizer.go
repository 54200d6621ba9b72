// Package ner supplies statistical spans (vendor candidates) for a document.
//
// The model itself is external; this package only defines the Recognizer
// seam and a few implementations: caller-supplied spans, a deterministic
// organisation heuristic, and a bridge to an external model process.
package ner

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// LabelOrg is the label used for organisation spans.
const LabelOrg = "ORG"

// Recognizer proposes labelled token spans over a document.
type Recognizer interface {
	Recognize(ctx context.Context, doc *tokenize.Document) ([]tokenize.Span, error)
}

// Static returns a fixed list of spans, e.g. spans computed by a caller.
type Static []tokenize.Span

func (s Static) Recognize(_ context.Context, doc *tokenize.Document) ([]tokenize.Span, error) {
	for i, sp := range s {
		if !doc.ValidSpan(sp.Start, sp.End) {
			return nil, fmt.Errorf("span %d [%d,%d) outside %d tokens: %w", i, sp.Start, sp.End, doc.Len(), common.ErrInvalidInput)
		}
	}
	return append([]tokenize.Span(nil), s...), nil
}

// Chain runs recognizers in order and concatenates their spans.
type Chain []Recognizer

func (c Chain) Recognize(ctx context.Context, doc *tokenize.Document) ([]tokenize.Span, error) {
	var out []tokenize.Span
	for _, r := range c {
		spans, err := r.Recognize(ctx, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, spans...)
	}
	return out, nil
}

// None never proposes spans.
type None struct{}

func (None) Recognize(context.Context, *tokenize.Document) ([]tokenize.Span, error) {
	return nil, nil
}
