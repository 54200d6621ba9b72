// Package resolve merges pattern matches and statistical spans into a Record
// holding one winning span per field.
//
// Rule families are resolved first: matches are taken in scan order and the
// first match of each family wins. Afterwards the statistical span with the
// lowest start and a usable label becomes the vendor name. Later candidates never replace an
// accepted one.
package resolve

import (
	"slices"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/matcher"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

type Resolver struct {
	offsets      map[constants.Field]int
	vendorLabels []string
}

type Option func(*Resolver)

// WithVendorLabels restricts vendor candidates to the given recognizer labels
// (e.g. "ORG"). Without it any non-empty label is accepted.
func WithVendorLabels(labels ...string) Option {
	return func(r *Resolver) {
		r.vendorLabels = slices.Clone(labels)
	}
}

func New(lib *patterns.Library, opts ...Option) *Resolver {
	r := &Resolver{offsets: map[constants.Field]int{}}
	for _, f := range lib.Families() {
		r.offsets[f.Field] = f.SpanOffset
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve builds the Record for doc from matches (in matcher order) and
// doc.Ents (in document order). It reads but never modifies its inputs.
func (r *Resolver) Resolve(doc *tokenize.Document, matches []matcher.Match) Record {
	var rec Record
	claimed := map[string]bool{}

	for _, m := range matches {
		if claimed[m.Family] || m.Field == constants.VendorName {
			continue
		}
		start := m.Start + r.offsets[m.Field]
		if !doc.ValidSpan(start, m.End) {
			continue
		}
		if rec.set(Span{
			Field:  m.Field,
			Start:  start,
			End:    m.End,
			Text:   doc.SpanText(start, m.End),
			Source: m.Family,
		}) {
			claimed[m.Family] = true
		}
	}

	for _, ent := range tokenize.SortSpans(doc.Ents) {
		if ent.Label == "" || claimed[ent.Label] || !r.vendorLabel(ent.Label) {
			continue
		}
		if !doc.ValidSpan(ent.Start, ent.End) {
			continue
		}
		rec.set(Span{
			Field:  constants.VendorName,
			Start:  ent.Start,
			End:    ent.End,
			Text:   doc.SpanText(ent.Start, ent.End),
			Source: ent.Label,
		})
		break
	}
	return rec
}

func (r *Resolver) vendorLabel(label string) bool {
	return len(r.vendorLabels) == 0 || slices.Contains(r.vendorLabels, label)
}
