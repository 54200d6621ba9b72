// Package matcher finds every span of a document that satisfies a pattern
// from a compiled library.
package matcher

import (
	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// Match is one pattern occurrence over tokens [Start, End).
type Match struct {
	Family  string
	Field   constants.Field
	Pattern int // index of the alternative within its family
	Start   int
	End     int
}

// Matcher scans documents against a Library. It holds no per-document state
// and is safe for concurrent use.
type Matcher struct {
	lib       *patterns.Library
	maxTokens int
}

type Option func(*Matcher)

// WithMaxTokens caps how many leading tokens are scanned; 0 means no cap.
func WithMaxTokens(n int) Option {
	return func(m *Matcher) {
		if n >= 0 {
			m.maxTokens = n
		}
	}
}

func New(lib *patterns.Library, opts ...Option) *Matcher {
	m := &Matcher{lib: lib}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Matcher) Library() *patterns.Library {
	return m.lib
}

// Find returns all matches ordered by start position, then family declaration
// order, then alternative declaration order. Each alternative contributes at
// most one match per start position. Duplicates across families or
// alternatives are kept.
func (m *Matcher) Find(doc *tokenize.Document) []Match {
	toks := doc.Tokens
	if m.maxTokens > 0 && len(toks) > m.maxTokens {
		toks = toks[:m.maxTokens]
	}
	var out []Match
	for start := range toks {
		for _, fam := range m.lib.Families() {
			for i, p := range fam.Patterns {
				end, ok := matchAt(p.Steps, toks, start)
				if !ok {
					continue
				}
				out = append(out, Match{
					Family:  fam.Name,
					Field:   fam.Field,
					Pattern: i,
					Start:   start,
					End:     end,
				})
			}
		}
	}
	return out
}

// matchAt tries steps against toks from pos. Optional steps first try to
// consume a token and fall back to being skipped.
func matchAt(steps []patterns.Step, toks []tokenize.Token, pos int) (int, bool) {
	if len(steps) == 0 {
		return pos, true
	}
	s := steps[0]
	if pos < len(toks) && s.Match(toks[pos]) {
		if end, ok := matchAt(steps[1:], toks, pos+1); ok {
			return end, true
		}
	}
	if s.Optional {
		return matchAt(steps[1:], toks, pos)
	}
	return 0, false
}
