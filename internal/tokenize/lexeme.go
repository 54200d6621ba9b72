package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var numberWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`zero one two three four five six seven eight nine ten
		eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen
		twenty thirty forty fifty sixty seventy eighty ninety hundred thousand
		million billion trillion`) {
		numberWords[w] = struct{}{}
	}
}

// LikeNum reports whether text resembles a number: digits with optional sign
// and separators ("-1,200.00"), a simple fraction ("3/4") or a number word.
func LikeNum(text string) bool {
	if text == "" {
		return false
	}
	t := text
	if r, size := utf8.DecodeRuneInString(t); strings.ContainsRune("+-±~", r) {
		t = t[size:]
	}
	t = strings.NewReplacer(",", "", ".", "").Replace(t)
	if all(t, unicode.IsDigit) {
		return true
	}
	if strings.Count(t, "/") == 1 {
		num, den, _ := strings.Cut(t, "/")
		if all(num, unicode.IsDigit) && all(den, unicode.IsDigit) {
			return true
		}
	}
	_, ok := numberWords[strings.ToLower(t)]
	return ok
}

// Shape maps letters to X/x and digits to d, keeping other runes; runs of the
// same class longer than four are truncated to four.
func Shape(text string) string {
	var b strings.Builder
	var last rune
	run := 0
	for _, r := range text {
		var c rune
		switch {
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLetter(r):
			c = 'x'
		case unicode.IsDigit(r):
			c = 'd'
		default:
			c = r
		}
		if c == last {
			run++
		} else {
			last, run = c, 1
		}
		if run <= 4 {
			b.WriteRune(c)
		}
	}
	return b.String()
}
