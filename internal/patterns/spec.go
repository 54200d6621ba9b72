// Package patterns declares and compiles the token-sequence patterns used to
// find rule-governed invoice fields.
//
// Declarations are plain data (TokenSpec, PatternDecl, FamilyDecl) so they can
// come from code or a TOML file; Compile validates them once and returns an
// immutable Library that is safe for concurrent use.
package patterns

import (
	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// TokenSpec is a set of attribute constraints one token must satisfy. Unset
// fields do not constrain. Optional makes the token zero-or-one.
type TokenSpec struct {
	Text       []string `toml:"text,omitempty" json:"text,omitempty"`
	IsDigit    *bool    `toml:"is_digit,omitempty" json:"is_digit,omitempty"`
	IsAlpha    *bool    `toml:"is_alpha,omitempty" json:"is_alpha,omitempty"`
	IsSpace    *bool    `toml:"is_space,omitempty" json:"is_space,omitempty"`
	IsCurrency *bool    `toml:"is_currency,omitempty" json:"is_currency,omitempty"`
	IsPunct    *bool    `toml:"is_punct,omitempty" json:"is_punct,omitempty"`
	LikeNum    *bool    `toml:"like_num,omitempty" json:"like_num,omitempty"`
	Length     []int    `toml:"length,omitempty" json:"length,omitempty"`
	Regex      string   `toml:"regex,omitempty" json:"regex,omitempty"`
	Optional   bool     `toml:"optional,omitempty" json:"optional,omitempty"`
}

// PatternDecl is one alternative span shape.
type PatternDecl struct {
	Name   string      `toml:"name" json:"name"`
	Tokens []TokenSpec `toml:"tokens" json:"tokens"`
}

// FamilyDecl groups alternative patterns that fill the same field.
// SpanOffset drops that many leading tokens from every emitted span.
type FamilyDecl struct {
	Name       string          `toml:"name" json:"name"`
	Field      constants.Field `toml:"field" json:"field"`
	SpanOffset int             `toml:"span_offset,omitempty" json:"span_offset,omitempty"`
	Patterns   []PatternDecl   `toml:"pattern" json:"patterns"`
}

func yes() *bool { b := true; return &b }

// Family names of the built-in library.
const (
	BalanceFamily = "bal_matcher"
	DateFamily    = "dat_matcher"
	InvoiceFamily = "inv_matcher"
)

// DefaultDecls returns the built-in families in declaration order.
func DefaultDecls() []FamilyDecl {
	dash := TokenSpec{Text: []string{"-"}}
	return []FamilyDecl{
		{
			Name:  BalanceFamily,
			Field: constants.Balance,
			Patterns: []PatternDecl{
				{Name: "currency-amount", Tokens: []TokenSpec{
					{IsCurrency: yes()},
					{IsSpace: yes(), Optional: true},
					{LikeNum: yes()},
				}},
			},
		},
		{
			Name:  DateFamily,
			Field: constants.DueDate,
			Patterns: []PatternDecl{
				{Name: "single-token", Tokens: []TokenSpec{
					{Regex: `\b(\d{4}|\d{2})[/\-]\d{2}[/\-](\d{4}|\d{2})`},
				}},
				{Name: "numeric-dashed", Tokens: []TokenSpec{
					{IsDigit: yes(), Length: []int{2, 4}}, dash,
					{IsDigit: yes(), Length: []int{2}}, dash,
					{IsDigit: yes(), Length: []int{2, 4}},
				}},
				{Name: "day-month-year", Tokens: []TokenSpec{
					{IsDigit: yes()}, dash, {IsAlpha: yes()}, dash, {IsDigit: yes()},
				}},
				{Name: "month-day-year", Tokens: []TokenSpec{
					{IsAlpha: yes()}, dash, {IsDigit: yes()}, dash, {IsDigit: yes()},
				}},
			},
		},
		{
			Name:       InvoiceFamily,
			Field:      constants.InvoiceNumber,
			SpanOffset: 2,
			Patterns: []PatternDecl{
				{Name: "keyword-separator-number", Tokens: []TokenSpec{
					{Text: []string{"INVOICE", "BILL"}},
					{Text: []string{"#", "@"}},
					{IsDigit: yes()},
				}},
			},
		},
	}
}
