// Package tokenize turns OCR text into a Document of attribute-carrying tokens.
//
// Token attributes are the predicate inputs of the pattern library: digit,
// alphabetic, whitespace, currency, punctuation and number-likeness flags, an
// orthographic shape and a rune length. A Document is immutable once built.
package tokenize

import (
	"cmp"
	"slices"
)

// Token is the minimal lexical unit.
type Token struct {
	Index      int
	Text       string
	Offset     int    // byte offset of Text in Document.Text
	Whitespace string // trailing single space, if any

	IsDigit    bool
	IsAlpha    bool
	IsSpace    bool
	IsCurrency bool
	IsPunct    bool
	LikeNum    bool

	Shape string // orthographic class, e.g. "Xxxxx", "dd/dd/dddd"
	Len   int    // rune length
}

// Span is a labelled half-open token range [Start, End).
type Span struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Document is the tokenized form of one input text plus any statistical spans
// attached by a recognizer.
type Document struct {
	Text   string
	Tokens []Token
	Ents   []Span
}

// Len returns the number of tokens.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Tokens)
}

// ValidSpan reports whether [start, end) is a non-empty range inside the document.
func (d *Document) ValidSpan(start, end int) bool {
	return start >= 0 && end <= d.Len() && start < end
}

// SpanText returns the surface text covered by tokens [start, end), including
// the whitespace between them. Invalid ranges yield "".
func (d *Document) SpanText(start, end int) string {
	if !d.ValidSpan(start, end) {
		return ""
	}
	first := d.Tokens[start]
	last := d.Tokens[end-1]
	return d.Text[first.Offset : last.Offset+len(last.Text)]
}

// WithEnts returns a shallow copy of d carrying the given statistical spans
// in document order. The receiver is left untouched.
func (d *Document) WithEnts(ents []Span) *Document {
	cp := *d
	cp.Ents = SortSpans(ents)
	return &cp
}

// SortSpans returns a copy of spans stably ordered by (Start, End). Spans
// at the same range keep their relative order.
func SortSpans(spans []Span) []Span {
	out := slices.Clone(spans)
	slices.SortStableFunc(out, func(a, b Span) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
	return out
}
