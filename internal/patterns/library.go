package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// ConfigError reports a malformed declaration. It matches common.ErrConfig
// under errors.Is.
type ConfigError struct {
	Family  string
	Pattern string
	Token   int // -1 when not token specific
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("pattern config")
	if e.Family != "" {
		fmt.Fprintf(&b, ": family %q", e.Family)
	}
	if e.Pattern != "" {
		fmt.Fprintf(&b, ": pattern %q", e.Pattern)
	}
	if e.Token >= 0 {
		fmt.Fprintf(&b, ": token %d", e.Token)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{common.ErrConfig, e.Err}
	}
	return []error{common.ErrConfig}
}

type predicate func(tokenize.Token) bool

// Step is one compiled token position of a pattern.
type Step struct {
	Optional bool
	preds    []predicate
}

// Match reports whether tok satisfies every constraint of the step.
func (s Step) Match(tok tokenize.Token) bool {
	for _, p := range s.preds {
		if !p(tok) {
			return false
		}
	}
	return true
}

// Pattern is a compiled PatternDecl.
type Pattern struct {
	Name  string
	Steps []Step
}

// MinLen is the number of required (non-optional) steps.
func (p Pattern) MinLen() int {
	n := 0
	for _, s := range p.Steps {
		if !s.Optional {
			n++
		}
	}
	return n
}

// Family is a compiled FamilyDecl.
type Family struct {
	Name       string
	Field      constants.Field
	SpanOffset int
	Patterns   []Pattern
}

// Library is an immutable, compiled set of families in declaration order.
type Library struct {
	families []Family
}

// Families returns the families in declaration order. Callers must not modify
// the returned slice.
func (l *Library) Families() []Family {
	return l.families
}

// Family looks a family up by the field it fills.
func (l *Library) Family(f constants.Field) (Family, bool) {
	for _, fam := range l.families {
		if fam.Field == f {
			return fam, true
		}
	}
	return Family{}, false
}

// Names returns the family names in declaration order.
func (l *Library) Names() []string {
	out := make([]string, len(l.families))
	for i, f := range l.families {
		out[i] = f.Name
	}
	return out
}

// Compile validates decls and builds a Library. Any malformed declaration
// yields a *ConfigError.
func Compile(decls []FamilyDecl) (*Library, error) {
	if len(decls) == 0 {
		return nil, &ConfigError{Token: -1, Reason: "no families declared"}
	}
	lib := &Library{families: make([]Family, 0, len(decls))}
	seenNames := map[string]bool{}
	seenFields := map[constants.Field]bool{}
	for _, d := range decls {
		if strings.TrimSpace(d.Name) == "" {
			return nil, &ConfigError{Token: -1, Reason: "family name is required"}
		}
		if seenNames[d.Name] {
			return nil, &ConfigError{Family: d.Name, Token: -1, Reason: "duplicate family name"}
		}
		if !d.Field.Valid() || d.Field == constants.VendorName {
			return nil, &ConfigError{Family: d.Name, Token: -1, Reason: fmt.Sprintf("field %s cannot be pattern-matched", d.Field)}
		}
		if seenFields[d.Field] {
			return nil, &ConfigError{Family: d.Name, Token: -1, Reason: fmt.Sprintf("field %s already has a family", d.Field)}
		}
		if len(d.Patterns) == 0 {
			return nil, &ConfigError{Family: d.Name, Token: -1, Reason: "family has no patterns"}
		}
		if d.SpanOffset < 0 {
			return nil, &ConfigError{Family: d.Name, Token: -1, Reason: "span offset must not be negative"}
		}
		fam := Family{Name: d.Name, Field: d.Field, SpanOffset: d.SpanOffset}
		for _, pd := range d.Patterns {
			p, err := compilePattern(d.Name, pd)
			if err != nil {
				return nil, err
			}
			if d.SpanOffset >= p.MinLen() {
				return nil, &ConfigError{Family: d.Name, Pattern: pd.Name, Token: -1,
					Reason: fmt.Sprintf("span offset %d leaves no tokens in a %d-token match", d.SpanOffset, p.MinLen())}
			}
			fam.Patterns = append(fam.Patterns, p)
		}
		seenNames[d.Name] = true
		seenFields[d.Field] = true
		lib.families = append(lib.families, fam)
	}
	return lib, nil
}

// Default compiles DefaultDecls.
func Default() (*Library, error) {
	return Compile(DefaultDecls())
}

// MustDefault is Default for package-level initialisation; the built-in
// declarations are covered by tests.
func MustDefault() *Library {
	lib, err := Default()
	if err != nil {
		panic(err)
	}
	return lib
}

func compilePattern(family string, pd PatternDecl) (Pattern, error) {
	p := Pattern{Name: pd.Name}
	if len(pd.Tokens) == 0 {
		return p, &ConfigError{Family: family, Pattern: pd.Name, Token: -1, Reason: "pattern has no tokens"}
	}
	if pd.Tokens[0].Optional {
		return p, &ConfigError{Family: family, Pattern: pd.Name, Token: 0, Reason: "pattern must not start with an optional token"}
	}
	for i, spec := range pd.Tokens {
		step, err := compileStep(spec)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) {
				ce.Family, ce.Pattern, ce.Token = family, pd.Name, i
			}
			return p, err
		}
		p.Steps = append(p.Steps, step)
	}
	if p.MinLen() == 0 {
		return p, &ConfigError{Family: family, Pattern: pd.Name, Token: -1, Reason: "pattern needs at least one required token"}
	}
	return p, nil
}

func compileStep(spec TokenSpec) (Step, error) {
	step := Step{Optional: spec.Optional}
	if len(spec.Text) > 0 {
		texts := slices.Clone(spec.Text)
		step.preds = append(step.preds, func(t tokenize.Token) bool { return slices.Contains(texts, t.Text) })
	}
	flag := func(want *bool, get func(tokenize.Token) bool) {
		if want == nil {
			return
		}
		w := *want
		step.preds = append(step.preds, func(t tokenize.Token) bool { return get(t) == w })
	}
	flag(spec.IsDigit, func(t tokenize.Token) bool { return t.IsDigit })
	flag(spec.IsAlpha, func(t tokenize.Token) bool { return t.IsAlpha })
	flag(spec.IsSpace, func(t tokenize.Token) bool { return t.IsSpace })
	flag(spec.IsCurrency, func(t tokenize.Token) bool { return t.IsCurrency })
	flag(spec.IsPunct, func(t tokenize.Token) bool { return t.IsPunct })
	flag(spec.LikeNum, func(t tokenize.Token) bool { return t.LikeNum })
	if len(spec.Length) > 0 {
		for _, n := range spec.Length {
			if n <= 0 {
				return step, &ConfigError{Reason: fmt.Sprintf("length %d must be positive", n)}
			}
		}
		lengths := slices.Clone(spec.Length)
		step.preds = append(step.preds, func(t tokenize.Token) bool { return slices.Contains(lengths, t.Len) })
	}
	if spec.Regex != "" {
		re, err := regexp.Compile(spec.Regex)
		if err != nil {
			return step, &ConfigError{Reason: "invalid regex", Err: err}
		}
		step.preds = append(step.preds, func(t tokenize.Token) bool { return re.MatchString(t.Text) })
	}
	if len(step.preds) == 0 {
		return step, &ConfigError{Reason: "token spec constrains nothing"}
	}
	return step, nil
}
