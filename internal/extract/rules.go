package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/matcher"
	"github.com/joseph-ayodele/invoice-extractor/internal/ner"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// RulesExtractor runs the fixed stage order tokenize -> recognize -> match ->
// resolve. It keeps no per-document state and is safe for concurrent use.
type RulesExtractor struct {
	matcher    *matcher.Matcher
	resolver   *resolve.Resolver
	recognizer ner.Recognizer
	logger     *slog.Logger
}

type RulesConfig struct {
	Library      *patterns.Library // nil -> built-in library
	Recognizer   ner.Recognizer    // nil -> ner.Heuristic
	VendorLabels []string          // empty -> any non-empty label
	MaxTokens    int               // 0 -> unlimited
}

func NewRulesExtractor(cfg RulesConfig, logger *slog.Logger) (*RulesExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lib := cfg.Library
	if lib == nil {
		var err error
		if lib, err = patterns.Default(); err != nil {
			return nil, err
		}
	}
	rec := cfg.Recognizer
	if rec == nil {
		rec = ner.Heuristic{}
	}
	var ropts []resolve.Option
	if len(cfg.VendorLabels) > 0 {
		ropts = append(ropts, resolve.WithVendorLabels(cfg.VendorLabels...))
	}
	return &RulesExtractor{
		matcher:    matcher.New(lib, matcher.WithMaxTokens(cfg.MaxTokens)),
		resolver:   resolve.New(lib, ropts...),
		recognizer: rec,
		logger:     logger,
	}, nil
}

func (e *RulesExtractor) ExtractFields(ctx context.Context, req FieldsRequest) (FieldsResult, error) {
	start := time.Now()
	doc := tokenize.Tokenize(req.Text)

	var recognizer ner.Recognizer = e.recognizer
	if req.Spans != nil {
		recognizer = ner.Static(req.Spans)
	}
	ents, err := recognizer.Recognize(ctx, doc)
	if err != nil {
		return FieldsResult{Tokens: doc.Len()}, fmt.Errorf("recognize: %w", err)
	}
	doc = doc.WithEnts(ents)

	matches := e.matcher.Find(doc)
	rec := e.resolver.Resolve(doc, matches)

	res := FieldsResult{
		Record:   rec,
		Tokens:   doc.Len(),
		Matches:  len(matches),
		Entities: len(ents),
		Overlaps: rec.Overlaps(),
		Duration: time.Since(start),
	}
	e.logger.Debug("extract.fields",
		"tokens", res.Tokens,
		"matches", res.Matches,
		"entities", res.Entities,
		"missing", len(rec.Missing()),
		"elapsed_us", res.Duration.Microseconds(),
	)
	return res, nil
}
