// =============================================================================
// Budget Builder - Build Command
// =============================================================================
//
// This file defines the 'build' command, the main command of the tool. It
// runs the whole pipeline for one export and writes the report.
//
// COMMAND USAGE:
//   budget build [flags]
//
// FLAGS:
//   --input       : The export to read (overrides input.file)
//   --output-dir  : Where to write the report and logs (overrides output.dir)
//   --dry-run     : Run every stage without writing any files
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/converter"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	inputFile string
	outputDir string
	dryRun    bool
)

// =============================================================================
// BUILD COMMAND DEFINITION
// =============================================================================

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the XML report from a budget export",
	Long: `The build command reads the export, classifies and validates its rows,
builds the chapter / category / item tree, computes the summary figures and
writes the XML report to the output directory.

On success:
  - The report is written to the output directory
  - A processing summary is written next to it
  - Skipped rows are listed in an error log

On a structural error:
  - No report is written
  - The processing summary records the failure`,

	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runBuild(cmd.OutOrStdout(), dryRun)
		return err
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to the budget export (.xlsx or .csv)")
	buildCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the report and logs")
	buildCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run every stage without writing output files")
}

// =============================================================================
// MAIN BUILD FUNCTION
// =============================================================================

// runBuild loads the configuration, runs one conversion and prints the
// outcome to out.
func runBuild(out io.Writer, dry bool) (converter.Result, error) {
	cfg, err := loadConfig()
	if err != nil {
		return converter.Result{}, err
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	log, err := newLogger(cfg)
	if err != nil {
		return converter.Result{}, err
	}

	fmt.Fprintln(out, "=== Budget Builder ===")

	result := converter.New(cfg, log, converter.Options{
		InputFile: inputFile,
		DryRun:    dry,
		Version:   Version,
	}).Run()

	printResult(out, result)

	if !result.Success {
		return result, fmt.Errorf("build failed: %w", result.Error)
	}
	return result, nil
}

// printResult writes the run statistics and diagnostics.
func printResult(out io.Writer, result converter.Result) {
	s := result.Stats

	switch {
	case !result.Success:
		fmt.Fprintf(out, "  ✗ %s: %v\n", result.FilePath, result.Error)
	case result.OutputFile == "":
		fmt.Fprintf(out, "  ✓ %s (dry run)\n", result.FilePath)
	default:
		fmt.Fprintf(out, "  ✓ %s -> %s\n", result.FilePath, result.OutputFile)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total rows:      %d\n", s.TotalRows)
	fmt.Fprintf(out, "Budget rows:     %d\n", s.BudgetRows)
	fmt.Fprintf(out, "Skipped rows:    %d\n", s.SkippedRows)
	if s.SynthesizedRows > 0 {
		fmt.Fprintf(out, "Synthesized:     %d\n", s.SynthesizedRows)
	}
	fmt.Fprintf(out, "Chapters:        %d\n", s.Chapters)
	fmt.Fprintf(out, "Time elapsed:    %s\n", s.ProcessingTime)

	if len(result.Issues) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, validation.FormatIssues(result.Issues))
	}
	if result.ErrorLog != "" {
		fmt.Fprintf(out, "\nIssues have been logged to %s\n", result.ErrorLog)
	}
}
