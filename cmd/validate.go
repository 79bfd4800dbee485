// =============================================================================
// Budget Builder - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the configuration,
// runs the pipeline as a dry run and lists every diagnostic without
// writing anything.
//
// COMMAND USAGE:
//   budget validate [flags]
//
// EXIT STATUS:
//   Non-zero when the build would fail, or with --strict when any error or
//   warning was raised.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check an export and the configuration without writing files",
	Long: `The validate command runs every build stage on the export and prints the
problems it finds: skipped rows, unknown extras keys, diverging cut
percentages and missing parent rows. No files are written.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		result, err := runBuild(out, true)
		if err != nil {
			return err
		}

		var r validation.Result
		r.Add(result.Issues...)
		printStages(out, &r)

		if strict && !r.Clean() {
			return fmt.Errorf("%d error(s) and %d warning(s) found", r.ErrorCount, r.WarningCount)
		}
		fmt.Fprintln(out, "\nValidation passed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to the budget export (.xlsx or .csv)")
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Fail on any error or warning")
}

// printStages writes the issue count of every stage that raised one.
func printStages(out io.Writer, r *validation.Result) {
	if len(r.Issues) == 0 {
		return
	}
	fmt.Fprintln(out, "\nIssues by stage:")
	for _, stage := range validation.Stages {
		if n := len(r.ByStage(stage)); n > 0 {
			fmt.Fprintf(out, "  %-10s %d\n", stage, n)
		}
	}
}
