// Package cli implements the invoice-extract command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	dbURL        string
	outDir       string
	outFile      string
	patternsFile string
	nerCommand   string
	nerHeuristic bool
	vendorLabels []string
	logLevel     string
	envFile      string
)

var rootCmd = &cobra.Command{
	Use:   "invoice-extract",
	Short: "Extract vendor, invoice number, due date and balance from invoices",
	Long: `invoice-extract reads OCR JSON, plain text, PDF and image invoices,
matches invoice number, balance and due date patterns over their tokens,
and picks the vendor from named-entity spans. Each file yields one CSV row
and one stored extraction job.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return common.LoadDotEnv(envFile)
	},
}

func init() {
	cfg := common.LoadConfig()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbURL, "db", cfg.Database.URL, "job store: sqlite://<path>, :memory: or a postgres:// URL")
	pf.StringVar(&outDir, "out-dir", cfg.Output.Dir, "directory for per-file CSV results")
	pf.StringVar(&outFile, "out-file", cfg.Output.FileTemplate, "CSV file name template; {} is replaced by the input file name")
	pf.StringVar(&patternsFile, "patterns", cfg.Extract.PatternsFile, "TOML pattern library (default: built-in)")
	pf.StringVar(&nerCommand, "ner-command", cfg.Extract.NERCommand, "external entity recognizer command (default: built-in heuristic)")
	pf.BoolVar(&nerHeuristic, "ner-heuristic", cfg.Extract.NERHeuristic, "run the built-in heuristic alongside --ner-command")
	pf.StringSliceVar(&vendorLabels, "vendor-label", cfg.Extract.VendorLabels, "entity labels accepted as vendor (default: any)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&envFile, "env-file", common.DefaultEnvFile, "optional KEY=VALUE file; variables already set in the environment win")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges explicitly set command-line flags over the environment
// configuration (including anything loaded from --env-file).
func loadConfig() (*common.Config, error) {
	cfg := common.LoadConfig()
	pf := rootCmd.PersistentFlags()
	if pf.Changed("db") {
		cfg.Database.URL = dbURL
	}
	if pf.Changed("out-dir") {
		cfg.Output.Dir = outDir
	}
	if pf.Changed("out-file") {
		cfg.Output.FileTemplate = outFile
	}
	if pf.Changed("patterns") {
		cfg.Extract.PatternsFile = patternsFile
	}
	if pf.Changed("ner-command") {
		cfg.Extract.NERCommand = nerCommand
	}
	if pf.Changed("ner-heuristic") {
		cfg.Extract.NERHeuristic = nerHeuristic
	}
	if pf.Changed("vendor-label") {
		cfg.Extract.VendorLabels = vendorLabels
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})), nil
}

func stderr(cmd *cobra.Command) io.Writer {
	if w := cmd.ErrOrStderr(); w != nil {
		return w
	}
	return os.Stderr
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
