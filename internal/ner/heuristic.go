package ner

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

var defaultSuffixes = []string{
	"inc", "incorporated", "llc", "llp", "ltd", "limited", "corp", "corporation",
	"co", "company", "gmbh", "ag", "plc", "sa", "sarl", "bv", "nv", "pty", "srl",
}

var stopWords = map[string]struct{}{
	"invoice": {}, "bill": {}, "to": {}, "from": {}, "date": {}, "due": {},
	"total": {}, "balance": {}, "ship": {}, "sold": {}, "remit": {}, "payable": {},
}

// Heuristic labels runs of capitalised words ending in a corporate suffix
// ("Acme Widgets Inc") as organisations. It is deterministic and needs no
// model, which makes it the default vendor source.
type Heuristic struct {
	Label    string   // defaults to ORG
	Suffixes []string // lowercase; defaults to common company suffixes
}

func (h Heuristic) Recognize(_ context.Context, doc *tokenize.Document) ([]tokenize.Span, error) {
	label := h.Label
	if label == "" {
		label = LabelOrg
	}
	suffixes := h.Suffixes
	if len(suffixes) == 0 {
		suffixes = defaultSuffixes
	}
	isSuffix := func(t tokenize.Token) bool {
		if !t.IsAlpha {
			return false
		}
		lower := strings.ToLower(t.Text)
		for _, s := range suffixes {
			if lower == s {
				return true
			}
		}
		return false
	}

	var out []tokenize.Span
	lastEnd := 0
	for i, tok := range doc.Tokens {
		if !isSuffix(tok) {
			continue
		}
		start := i
		for start > lastEnd && nameToken(doc.Tokens[start-1]) {
			start--
		}
		// drop leading connectors such as "&"
		for start < i && !doc.Tokens[start].IsAlpha {
			start++
		}
		if start == i {
			continue
		}
		out = append(out, tokenize.Span{Label: label, Start: start, End: i + 1})
		lastEnd = i + 1
	}
	return out, nil
}

func nameToken(t tokenize.Token) bool {
	if t.Text == "&" {
		return true
	}
	if !t.IsAlpha {
		return false
	}
	if _, stop := stopWords[strings.ToLower(t.Text)]; stop {
		return false
	}
	r, _ := utf8.DecodeRuneInString(t.Text)
	return unicode.IsUpper(r)
}
