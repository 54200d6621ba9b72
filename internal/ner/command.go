package ner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/runner"
	"github.com/joseph-ayodele/invoice-extractor/internal/tokenize"
)

// Command delegates recognition to an external model process.
//
// The process receives {"text": ..., "tokens": [...]} on stdin and must print
// a JSON array of {"label","start","end"} token spans on stdout. Spans outside
// the document are dropped.
type Command struct {
	Path   string
	Args   []string
	Runner runner.Runner
	Logger *slog.Logger
}

func NewCommand(commandLine string, r runner.Runner, logger *slog.Logger) (*Command, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("ner command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if r == nil {
		r = runner.Exec{Logger: logger}
	}
	return &Command{Path: fields[0], Args: fields[1:], Runner: r, Logger: logger}, nil
}

type commandInput struct {
	Text   string   `json:"text"`
	Tokens []string `json:"tokens"`
}

func (c *Command) Recognize(ctx context.Context, doc *tokenize.Document) ([]tokenize.Span, error) {
	in := commandInput{Text: doc.Text, Tokens: make([]string, doc.Len())}
	for i, t := range doc.Tokens {
		in.Tokens[i] = t.Text
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("ner: encode input: %w", err)
	}

	out, errb, err := c.Runner.Run(ctx, payload, c.Path, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("ner: %s: %w: %s", c.Path, err, runner.Truncate(string(errb), 512))
	}

	var spans []tokenize.Span
	if err := json.Unmarshal(out, &spans); err != nil {
		return nil, fmt.Errorf("ner: decode output: %w", err)
	}
	kept := spans[:0]
	for _, sp := range spans {
		if !doc.ValidSpan(sp.Start, sp.End) {
			c.Logger.Warn("ner.span.dropped", "label", sp.Label, "start", sp.Start, "end", sp.End, "tokens", doc.Len())
			continue
		}
		kept = append(kept, sp)
	}
	return kept, nil
}
