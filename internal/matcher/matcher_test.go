package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

func find(t *testing.T, text string, opts ...Option) (*tokenize.Document, []Match) {
	t.Helper()
	doc := tokenize.Tokenize(text)
	return doc, New(patterns.MustDefault(), opts...).Find(doc)
}

func TestFind_InvoiceScenario(t *testing.T) {
	doc, got := find(t, "INVOICE # 12345 due 03/15/2024 total $ 1,200.00")
	require.Len(t, got, 3)

	assert.Equal(t, Match{Family: patterns.InvoiceFamily, Field: constants.InvoiceNumber, Start: 0, End: 3}, got[0])
	assert.Equal(t, Match{Family: patterns.DateFamily, Field: constants.DueDate, Start: 4, End: 5}, got[1])
	assert.Equal(t, Match{Family: patterns.BalanceFamily, Field: constants.Balance, Start: 6, End: 8}, got[2])
	assert.Equal(t, "$ 1,200.00", doc.SpanText(got[2].Start, got[2].End))
}

func TestFind_EmptyDocument(t *testing.T) {
	_, got := find(t, "")
	assert.Empty(t, got)

	_, got = find(t, "nothing to see here")
	assert.Empty(t, got)
}

func TestFind_OptionalWhitespaceConsumedWhenPresent(t *testing.T) {
	doc, got := find(t, "$  100")
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 3, got[0].End)
	assert.Equal(t, "$  100", doc.SpanText(got[0].Start, got[0].End))

	_, got = find(t, "$100")
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].End)
}

func TestFind_DateAlternatives(t *testing.T) {
	tests := []struct {
		text    string
		pattern int
		start   int
		end     int
	}{
		{"due 2024/03/15", 0, 1, 2},
		{"due 15 - 03 - 2024", 1, 1, 6},
		{"due 15-Mar-2024", 2, 1, 6},
		{"due Mar-15-2024", 3, 1, 6},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, got := find(t, tt.text)
			require.Len(t, got, 1)
			assert.Equal(t, constants.DueDate, got[0].Field)
			assert.Equal(t, tt.pattern, got[0].Pattern)
			assert.Equal(t, tt.start, got[0].Start)
			assert.Equal(t, tt.end, got[0].End)
		})
	}
}

func TestFind_NumericDashedRespectsLengths(t *testing.T) {
	_, got := find(t, "15 - 3 - 2024")
	assert.Empty(t, got)

	_, got = find(t, "2024 - 03 - 15")
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Pattern)
}

func TestFind_ScanOrderInterleavesFamilies(t *testing.T) {
	_, got := find(t, "BILL @ 999 INVOICE # 111 $5 03/15/2024 $7")
	var fams []string
	var starts []int
	for _, m := range got {
		fams = append(fams, m.Family)
		starts = append(starts, m.Start)
	}
	assert.Equal(t, []string{
		patterns.InvoiceFamily, patterns.InvoiceFamily, patterns.BalanceFamily,
		patterns.DateFamily, patterns.BalanceFamily,
	}, fams)
	assert.IsIncreasing(t, starts)
}

func TestFind_SameStartFollowsDeclarationOrder(t *testing.T) {
	lib, err := patterns.Compile([]patterns.FamilyDecl{{
		Name:  "dates",
		Field: constants.DueDate,
		Patterns: []patterns.PatternDecl{
			{Name: "long", Tokens: []patterns.TokenSpec{{Regex: `^\d+$`}, {Regex: `^\d+$`}}},
			{Name: "short", Tokens: []patterns.TokenSpec{{Regex: `^\d+$`}}},
		},
	}})
	require.NoError(t, err)

	got := New(lib).Find(tokenize.Tokenize("10 20"))
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1}, []int{got[0].Pattern, got[1].Pattern})
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 0, got[1].Start)
	assert.Equal(t, 1, got[2].Start)
}

func TestFind_MaxTokens(t *testing.T) {
	_, got := find(t, "$5 padding $7", WithMaxTokens(2))
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Start)

	_, got = find(t, "$5 padding $7", WithMaxTokens(3))
	assert.Len(t, got, 1, "a match may not extend past the cap")
}

func TestFind_Deterministic(t *testing.T) {
	text := "INVOICE # 1 BILL @ 2 $ 3 Mar-01-2024 12/12/12"
	_, a := find(t, text)
	_, b := find(t, text)
	assert.Equal(t, a, b)
}
