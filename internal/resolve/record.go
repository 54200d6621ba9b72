package resolve

import (
	"encoding/json"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Span is a resolved field value over tokens [Start, End).
type Span struct {
	Field  constants.Field `json:"field"`
	Start  int             `json:"start"`
	End    int             `json:"end"`
	Text   string          `json:"text"`
	Source string          `json:"source"` // family name or recognizer label
}

// Record holds at most one span per field. A field, once set, is never
// overwritten.
type Record struct {
	spans [len(fieldSlots)]*Span
}

var fieldSlots = [...]constants.Field{constants.VendorName, constants.InvoiceNumber, constants.DueDate, constants.Balance}

func (r *Record) set(s Span) bool {
	if !s.Field.Valid() || r.spans[s.Field] != nil {
		return false
	}
	r.spans[s.Field] = &s
	return true
}

// Get returns the span for f, if assigned.
func (r Record) Get(f constants.Field) (Span, bool) {
	if !f.Valid() || r.spans[f] == nil {
		return Span{}, false
	}
	return *r.spans[f], true
}

// Value returns the text for f, or "" when unassigned.
func (r Record) Value(f constants.Field) string {
	s, _ := r.Get(f)
	return s.Text
}

// Row returns the field texts in output column order.
func (r Record) Row() []string {
	row := make([]string, 0, len(fieldSlots))
	for _, f := range constants.AllFields() {
		row = append(row, r.Value(f))
	}
	return row
}

// Spans returns the assigned spans in output column order.
func (r Record) Spans() []Span {
	var out []Span
	for _, f := range constants.AllFields() {
		if s, ok := r.Get(f); ok {
			out = append(out, s)
		}
	}
	return out
}

// Missing lists unassigned fields in column order.
func (r Record) Missing() []constants.Field {
	var out []constants.Field
	for _, f := range constants.AllFields() {
		if _, ok := r.Get(f); !ok {
			out = append(out, f)
		}
	}
	return out
}

// Values maps column names to texts; unassigned fields map to "".
func (r Record) Values() map[string]string {
	m := make(map[string]string, len(fieldSlots))
	for _, f := range constants.AllFields() {
		m[f.String()] = r.Value(f)
	}
	return m
}

// Overlap is a pair of fields whose token ranges intersect.
type Overlap struct {
	A, B constants.Field
}

// Overlaps reports every pair of assigned fields whose ranges intersect.
// Overlapping assignments are allowed; this is a diagnostic.
func (r Record) Overlaps() []Overlap {
	spans := r.Spans()
	var out []Overlap
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].Start < spans[j].End && spans[j].Start < spans[i].End {
				out = append(out, Overlap{A: spans[i].Field, B: spans[j].Field})
			}
		}
	}
	return out
}

// MarshalJSON encodes the record as {"vendor_name": {...} | null, ...}.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Span, len(fieldSlots))
	for _, f := range constants.AllFields() {
		m[f.String()] = r.spans[f]
	}
	return json.Marshal(m)
}

// UnmarshalJSON is the inverse of MarshalJSON, used when reading stored jobs.
func (r *Record) UnmarshalJSON(b []byte) error {
	var m map[string]*Span
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = Record{}
	for name, s := range m {
		f, ok := constants.ParseField(name)
		if !ok || s == nil {
			continue
		}
		s.Field = f
		r.set(*s)
	}
	return nil
}
