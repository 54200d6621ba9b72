package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits text into tokens.
//
// A single space after a token is stored as that token's trailing whitespace;
// every other whitespace run becomes its own IsSpace token. Leading and
// trailing punctuation and currency symbols are split off, '#' and '@' are
// split anywhere, and inner hyphens are split when the chunk contains a letter.
// Slashes and hyphens between pure digit groups never split, so "03/15/2024" and "2024-03-15" stay whole.
func Tokenize(text string) *Document {
	doc := &Document{Text: text}
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			j := i + size
			for j < len(text) {
				r2, s2 := utf8.DecodeRuneInString(text[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += s2
			}
			doc.addWhitespace(text[i:j], i)
			i = j
			continue
		}
		j := i + size
		for j < len(text) {
			r2, s2 := utf8.DecodeRuneInString(text[j:])
			if unicode.IsSpace(r2) {
				break
			}
			j += s2
		}
		doc.addChunk(text[i:j], i)
		i = j
	}
	return doc
}

func (d *Document) addWhitespace(run string, offset int) {
	if n := len(d.Tokens); n > 0 && run[0] == ' ' && !d.Tokens[n-1].IsSpace && d.Tokens[n-1].Whitespace == "" {
		d.Tokens[n-1].Whitespace = " "
		run = run[1:]
		offset++
	}
	if run != "" {
		d.add(run, offset)
	}
}

// addChunk splits one whitespace-free chunk into prefix, infix and suffix pieces.
func (d *Document) addChunk(chunk string, offset int) {
	var suffixes []piece
	for chunk != "" {
		r, size := utf8.DecodeRuneInString(chunk)
		if !isPrefix(r) || size == len(chunk) {
			break
		}
		d.add(chunk[:size], offset)
		chunk = chunk[size:]
		offset += size
	}
	for chunk != "" {
		r, size := utf8.DecodeLastRuneInString(chunk)
		if !isSuffix(r) || size == len(chunk) {
			break
		}
		suffixes = append(suffixes, piece{chunk[len(chunk)-size:], offset + len(chunk) - size})
		chunk = chunk[:len(chunk)-size]
	}
	for _, p := range splitInfixes(chunk, offset) {
		d.add(p.text, p.offset)
	}
	for k := len(suffixes) - 1; k >= 0; k-- {
		d.add(suffixes[k].text, suffixes[k].offset)
	}
}

type piece struct {
	text   string
	offset int
}

func splitInfixes(s string, offset int) []piece {
	if s == "" {
		return nil
	}
	var out []piece
	start := 0
	hyphens := strings.IndexFunc(s, unicode.IsLetter) >= 0
	for i, r := range s {
		split := r == '#' || r == '@' || (hyphens && r == '-' && i > 0 && i+1 < len(s))
		if split {
			if i > start {
				out = append(out, piece{s[start:i], offset + start})
			}
			out = append(out, piece{s[i : i+utf8.RuneLen(r)], offset + i})
			start = i + utf8.RuneLen(r)
		}
	}
	if start < len(s) {
		out = append(out, piece{s[start:], offset + start})
	}
	return out
}

func isPrefix(r rune) bool {
	return unicode.Is(unicode.Sc, r) || strings.ContainsRune(`([{<"'#@*`, r)
}

func isSuffix(r rune) bool {
	return unicode.Is(unicode.Sc, r) || strings.ContainsRune(`)]}>"',;:!?.%`, r)
}

func (d *Document) add(text string, offset int) {
	d.Tokens = append(d.Tokens, newToken(len(d.Tokens), text, offset))
}

func newToken(idx int, text string, offset int) Token {
	return Token{
		Index:      idx,
		Text:       text,
		Offset:     offset,
		IsDigit:    all(text, unicode.IsDigit),
		IsAlpha:    all(text, unicode.IsLetter),
		IsSpace:    all(text, unicode.IsSpace),
		IsCurrency: all(text, func(r rune) bool { return unicode.Is(unicode.Sc, r) }),
		IsPunct:    all(text, unicode.IsPunct),
		LikeNum:    LikeNum(text),
		Shape:      Shape(text),
		Len:        utf8.RuneCountInString(text),
	}
}

func all(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}
