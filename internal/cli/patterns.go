package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Work with the pattern library",
}

var patternsDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the built-in pattern library as TOML",
	Long: `Prints the built-in invoice_number, balance and due_date patterns in the
TOML format accepted by --patterns, as a starting point for a custom library.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := patterns.Encode(patterns.DefaultDecls())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var patternsCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Validate a TOML pattern library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := patterns.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d families)\n", args[0], len(lib.Names()))
		return nil
	},
}

func init() {
	patternsCmd.AddCommand(patternsDumpCmd, patternsCheckCmd)
	rootCmd.AddCommand(patternsCmd)
}
