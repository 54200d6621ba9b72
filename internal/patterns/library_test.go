package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

func TestDefault_DeclarationOrder(t *testing.T) {
	lib, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{BalanceFamily, DateFamily, InvoiceFamily}, lib.Names())

	date, ok := lib.Family(constants.DueDate)
	require.True(t, ok)
	require.Len(t, date.Patterns, 4)
	assert.Equal(t, "single-token", date.Patterns[0].Name)
	assert.Equal(t, "month-day-year", date.Patterns[3].Name)

	inv, ok := lib.Family(constants.InvoiceNumber)
	require.True(t, ok)
	assert.Equal(t, 2, inv.SpanOffset)

	bal, _ := lib.Family(constants.Balance)
	assert.Equal(t, 2, bal.Patterns[0].MinLen())
	assert.True(t, bal.Patterns[0].Steps[1].Optional)

	_, ok = lib.Family(constants.VendorName)
	assert.False(t, ok)
}

func TestStepMatch(t *testing.T) {
	lib := MustDefault()
	inv, _ := lib.Family(constants.InvoiceNumber)
	steps := inv.Patterns[0].Steps
	doc := tokenize.Tokenize("INVOICE # 42 invoice @")

	assert.True(t, steps[0].Match(doc.Tokens[0]))
	assert.True(t, steps[1].Match(doc.Tokens[1]))
	assert.True(t, steps[2].Match(doc.Tokens[2]))
	assert.False(t, steps[0].Match(doc.Tokens[3]), "keyword match is case-sensitive")
	assert.True(t, steps[1].Match(doc.Tokens[4]))

	date, _ := lib.Family(constants.DueDate)
	numeric := date.Patterns[1].Steps
	assert.True(t, numeric[0].Match(tokenize.Tokenize("2024").Tokens[0]))
	assert.False(t, numeric[0].Match(tokenize.Tokenize("202").Tokens[0]))
	assert.True(t, date.Patterns[0].Steps[0].Match(tokenize.Tokenize("Date:2024/03/15").Tokens[0]))
}

func TestCompile_ConfigErrors(t *testing.T) {
	valid := func() FamilyDecl {
		return FamilyDecl{Name: "f", Field: constants.Balance, Patterns: []PatternDecl{
			{Name: "p", Tokens: []TokenSpec{{IsCurrency: yes()}, {LikeNum: yes()}}},
		}}
	}
	tests := []struct {
		name   string
		decls  func() []FamilyDecl
		reason string
	}{
		{"no families", func() []FamilyDecl { return nil }, "no families declared"},
		{"invalid regex", func() []FamilyDecl {
			d := valid()
			d.Patterns[0].Tokens[0] = TokenSpec{Regex: `(\d+`}
			return []FamilyDecl{d}
		}, "invalid regex"},
		{"empty spec", func() []FamilyDecl {
			d := valid()
			d.Patterns[0].Tokens[1] = TokenSpec{}
			return []FamilyDecl{d}
		}, "token spec constrains nothing"},
		{"leading optional", func() []FamilyDecl {
			d := valid()
			d.Patterns[0].Tokens[0].Optional = true
			return []FamilyDecl{d}
		}, "pattern must not start with an optional token"},
		{"offset too large", func() []FamilyDecl {
			d := valid()
			d.SpanOffset = 2
			return []FamilyDecl{d}
		}, "span offset 2 leaves no tokens in a 2-token match"},
		{"vendor field", func() []FamilyDecl {
			d := valid()
			d.Field = constants.VendorName
			return []FamilyDecl{d}
		}, "field vendor_name cannot be pattern-matched"},
		{"duplicate field", func() []FamilyDecl {
			a, b := valid(), valid()
			b.Name = "g"
			return []FamilyDecl{a, b}
		}, "field balance already has a family"},
		{"duplicate name", func() []FamilyDecl {
			a, b := valid(), valid()
			b.Field = constants.DueDate
			return []FamilyDecl{a, b}
		}, "duplicate family name"},
		{"bad length", func() []FamilyDecl {
			d := valid()
			d.Patterns[0].Tokens[1].Length = []int{0}
			return []FamilyDecl{d}
		}, "length 0 must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib, err := Compile(tt.decls())
			require.Error(t, err)
			assert.Nil(t, lib)
			assert.ErrorIs(t, err, common.ErrConfig)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.reason, ce.Reason)
		})
	}
}

func TestCompile_ErrorLocatesToken(t *testing.T) {
	d := DefaultDecls()
	d[1].Patterns[2].Tokens[2] = TokenSpec{Regex: "["}
	_, err := Compile(d)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, DateFamily, ce.Family)
	assert.Equal(t, "day-month-year", ce.Pattern)
	assert.Equal(t, 2, ce.Token)
	assert.Contains(t, err.Error(), `family "dat_matcher": pattern "day-month-year": token 2: invalid regex`)
}

const customTOML = `
[[family]]
name = "po_matcher"
field = "invoice_number"
span_offset = 1

  [[family.pattern]]
  name = "po"
  tokens = [ { text = ["PO"] }, { is_digit = true, length = [6] } ]
`

func TestParse_TOML(t *testing.T) {
	lib, err := Parse([]byte(customTOML))
	require.NoError(t, err)

	fam, ok := lib.Family(constants.InvoiceNumber)
	require.True(t, ok)
	assert.Equal(t, "po_matcher", fam.Name)
	assert.Equal(t, 1, fam.SpanOffset)
	require.Len(t, fam.Patterns[0].Steps, 2)

	doc := tokenize.Tokenize("PO 123456")
	assert.True(t, fam.Patterns[0].Steps[1].Match(doc.Tokens[1]))
}

func TestParse_UnknownFieldIsConfigError(t *testing.T) {
	_, err := Parse([]byte("[[family]]\nname = \"x\"\nfield = \"total\"\n"))
	assert.ErrorIs(t, err, common.ErrConfig)

	_, err = Parse([]byte("[[family]]\nnme = \"x\"\n"))
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestLoadFile_EncodedDefaults(t *testing.T) {
	data, err := Encode(DefaultDecls())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "patterns.toml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	lib, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, MustDefault().Names(), lib.Names())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, common.ErrConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
