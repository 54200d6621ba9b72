package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

var (
	extractJSON   bool
	extractNoFile bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract invoice fields from files",
	Long: `Extracts vendor_name, invoice_number, due_date and balance from each file
and writes one CSV per file into the output directory.
Supported inputs: OCR JSON, .txt, .pdf and common image formats.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print results as JSON")
	extractCmd.Flags().BoolVar(&extractNoFile, "no-csv", false, "do not write CSV result files")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	a, err := newApp(ctx, cmd, !extractNoFile)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []pipeline.Result
	var failed []string
	for _, path := range args {
		res, err := a.processor.ProcessFile(ctx, path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed = append(failed, path)
			continue
		}
		results = append(results, res)
	}

	if extractJSON {
		if err := printResultsJSON(cmd, results); err != nil {
			return err
		}
	} else {
		printResultsTable(cmd, results)
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s", len(failed), len(args), strings.Join(failed, ", "))
	}
	return nil
}

type resultJSON struct {
	Path   string            `json:"path"`
	JobID  string            `json:"job_id"`
	Output string            `json:"output,omitempty"`
	Values map[string]string `json:"values"`
}

func printResultsJSON(cmd *cobra.Command, results []pipeline.Result) error {
	out := make([]resultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, resultJSON{
			Path:   r.Path,
			JobID:  r.JobID.String(),
			Output: r.OutputPath,
			Values: r.Record.Values(),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func printResultsTable(cmd *cobra.Command, results []pipeline.Result) {
	if len(results) == 0 {
		return
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", r.Path)
		for _, f := range constants.AllFields() {
			v := r.Record.Value(f)
			if v == "" {
				v = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-15s %s\n", f.String(), v)
		}
		if r.OutputPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  -> %s\n", r.OutputPath)
		}
	}
}
