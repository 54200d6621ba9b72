package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(doc *Document) []string {
	out := make([]string, len(doc.Tokens))
	for i, t := range doc.Tokens {
		out[i] = t.Text
	}
	return out
}

func TestTokenize_Splitting(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"invoice header", "INVOICE # 12345", []string{"INVOICE", "#", "12345"}},
		{"glued separator", "BILL@999", []string{"BILL", "@", "999"}},
		{"glued hash prefix", "INVOICE #12345", []string{"INVOICE", "#", "12345"}},
		{"currency prefix", "total $1,200.00.", []string{"total", "$", "1,200.00", "."}},
		{"slash date stays whole", "due 03/15/2024,", []string{"due", "03/15/2024", ","}},
		{"numeric hyphen date stays whole", "2024-03-15", []string{"2024-03-15"}},
		{"alpha hyphen date splits", "15-Mar-2024", []string{"15", "-", "Mar", "-", "2024"}},
		{"month first", "Mar-15-2024", []string{"Mar", "-", "15", "-", "2024"}},
		{"parenthesised", "(Acme)", []string{"(", "Acme", ")"}},
		{"lone symbol", "$", []string{"$"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(Tokenize(tt.in)))
		})
	}
}

func TestTokenize_Whitespace(t *testing.T) {
	doc := Tokenize("$  100\nAcme")
	require.Equal(t, []string{"$", " ", "100", "\n", "Acme"}, texts(doc))

	assert.Equal(t, " ", doc.Tokens[0].Whitespace)
	assert.True(t, doc.Tokens[1].IsSpace)
	assert.True(t, doc.Tokens[3].IsSpace)
	assert.False(t, doc.Tokens[2].IsSpace)
}

func TestTokenize_LeadingWhitespaceIsToken(t *testing.T) {
	doc := Tokenize("  Acme")
	require.Equal(t, []string{"  ", "Acme"}, texts(doc))
	assert.True(t, doc.Tokens[0].IsSpace)
}

func TestTokenize_OffsetsRoundTrip(t *testing.T) {
	in := "INVOICE # 12345 due 03/15/2024 total $ 1,200.00"
	doc := Tokenize(in)
	for i, tok := range doc.Tokens {
		assert.Equal(t, i, tok.Index)
		assert.Equal(t, tok.Text, in[tok.Offset:tok.Offset+len(tok.Text)])
	}
	assert.Equal(t, in, doc.SpanText(0, doc.Len()))
}

func TestTokenize_Attributes(t *testing.T) {
	doc := Tokenize("INVOICE # 12345 € 1,200.00 Mar")
	byText := map[string]Token{}
	for _, tok := range doc.Tokens {
		byText[tok.Text] = tok
	}

	assert.True(t, byText["INVOICE"].IsAlpha)
	assert.Equal(t, "XXXX", byText["INVOICE"].Shape)
	assert.True(t, byText["#"].IsPunct)
	assert.True(t, byText["12345"].IsDigit)
	assert.Equal(t, 5, byText["12345"].Len)
	assert.True(t, byText["€"].IsCurrency)
	assert.False(t, byText["1,200.00"].IsDigit)
	assert.True(t, byText["1,200.00"].LikeNum)
	assert.Equal(t, "Xxx", byText["Mar"].Shape)
}

func TestSpanText_InvalidRange(t *testing.T) {
	doc := Tokenize("a b c")
	assert.Equal(t, "", doc.SpanText(2, 2))
	assert.Equal(t, "", doc.SpanText(-1, 1))
	assert.Equal(t, "", doc.SpanText(1, 9))
	assert.Equal(t, "b c", doc.SpanText(1, 3))
}

func TestWithEnts_DoesNotMutate(t *testing.T) {
	doc := Tokenize("Acme Inc")
	withEnts := doc.WithEnts([]Span{{Label: "ORG", Start: 0, End: 2}})
	assert.Empty(t, doc.Ents)
	assert.Len(t, withEnts.Ents, 1)
}

func TestWithEnts_SortsByPosition(t *testing.T) {
	in := []Span{
		{Label: "ORG", Start: 3, End: 5},
		{Label: "B", Start: 0, End: 2},
		{Label: "A", Start: 0, End: 1},
		{Label: "C", Start: 0, End: 2},
	}
	doc := Tokenize("Acme Corp sells to Beta LLC").WithEnts(in)
	assert.Equal(t, []Span{
		{Label: "A", Start: 0, End: 1},
		{Label: "B", Start: 0, End: 2},
		{Label: "C", Start: 0, End: 2},
		{Label: "ORG", Start: 3, End: 5},
	}, doc.Ents)
	assert.Equal(t, "ORG", in[0].Label, "input slice is not reordered")
}

func TestLikeNum(t *testing.T) {
	for _, s := range []string{"100", "-1,200.00", "3/4", "twenty", "+7"} {
		assert.True(t, LikeNum(s), s)
	}
	for _, s := range []string{"", "-", "$", "12a", "1/2/3", "INVOICE"} {
		assert.False(t, LikeNum(s), s)
	}
}

func TestShape(t *testing.T) {
	assert.Equal(t, "dd/dd/dddd", Shape("03/15/2024"))
	assert.Equal(t, "Xxxxx", Shape("Acmeeeee"))
	assert.Equal(t, "d,ddd.dd", Shape("1,200.00"))
}
