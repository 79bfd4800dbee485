// =============================================================================
// Budget Builder - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a build run:
//   - Output directory management
//   - Output file naming
//   - Writing the report atomically
//   - Error log and run summary generation
//
// FILES WRITTEN PER RUN (all in the output directory):
//   - the report XML, named from output.file_name_format
//   - error_log_<timestamp>.txt, when the run produced diagnostics
//   - processing_summary_<timestamp>.txt
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

// now is replaced in tests.
var now = time.Now

const logTimestamp = "20060102_150405"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a build run.
type FileManager struct {
	// OutputDir is the directory where the report and logs are placed.
	OutputDir string
}

// NewFileManager creates a new FileManager writing to outputDir.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{OutputDir: outputDir}
}

// EnsureDirectories creates the output directory if it doesn't exist.
//
// RETURNS:
//   - An error if the directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// WriteOutput writes data to name inside the output directory. The data is
// written to a temporary file first and renamed into place, so a reader
// never sees a half-written report.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
func (fm *FileManager) WriteOutput(name string, data []byte) (string, error) {
	path := filepath.Join(fm.OutputDir, name)

	tmp, err := os.CreateTemp(fm.OutputDir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move output file into place: %w", err)
	}

	return path, nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//       {uuid}      - A random UUID, or params["uuid"] when given
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//       {original}  - Input file name without extension (from params)
//   - params: Additional placeholder values.
//
// RETURNS:
//   - The generated file name, always ending in ".xml".
//
// EXAMPLE:
//   format: "budget_{original}_{date}.xml"
//   params: {"original": "talousarvio_2024"}
//   output: "budget_talousarvio_2024_20240115.xml"
func GenerateOutputFileName(format string, params map[string]string) string {
	t := now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": t.Format(logTimestamp),
		"{date}":      t.Format("20060102"),
		"{time}":      t.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}

	return result
}

// OriginalName returns the base name of path without its extension.
func OriginalName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// WriteErrorLog writes the run's diagnostics to a log file.
//
// PARAMETERS:
//   - issues: The diagnostics to write.
//   - inputFile: The input file the run read, shown in the header.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the error log file, empty when there was nothing to write.
//   - An error if writing fails.
func WriteErrorLog(issues []validation.Issue, inputFile, outputDir string) (string, error) {
	if len(issues) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now().Format(logTimestamp)))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	var result validation.Result
	result.Add(issues...)

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Budget Builder - Error Log\n"+
		"Generated: %s\n"+
		"Input:     %s\n"+
		"Errors: %d  Warnings: %d  Info: %d\n"+
		"================================================================================\n\n",
		now().Format("2006-01-02 15:04:05"),
		inputFile,
		result.ErrorCount, result.WarningCount, result.InfoCount)

	for i, issue := range issues {
		fmt.Fprintf(writer, "Issue #%d\n"+
			"  Severity:       %s\n"+
			"  Stage:          %s\n"+
			"  Message:        %s\n",
			i+1, issue.Severity, issue.Stage, issue.Message)

		if issue.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", issue.RowNumber)
		}
		if issue.Field != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", issue.Field)
		}
		if issue.Value != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", issue.Value)
		}
		if len(issue.Raw) > 0 {
			fmt.Fprintf(writer, "  Raw Row:        %s\n", strings.Join(issue.Raw, " | "))
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// RunSummary contains summary information about a build run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time

	InputFile  string
	OutputFile string
	DryRun     bool

	TotalRows       int
	BudgetRows      int
	SkippedRows     int
	EmptyRows       int
	SynthesizedRows int
	Chapters        int
	Nodes           int

	Errors   int
	Warnings int
	Infos    int

	Success      bool
	ErrorMessage string
}

// WriteSummaryLog writes a run summary to a log file.
//
// PARAMETERS:
//   - summary: The run summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", now().Format(logTimestamp)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	status := "SUCCESS"
	if !summary.Success {
		status = "FAILED"
	}
	output := summary.OutputFile
	if summary.DryRun {
		output = "(dry run, nothing written)"
	}

	fmt.Fprintf(writer, "Budget Builder - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Status:         %s\n"+
		"  Input:          %s\n"+
		"  Output:         %s\n\n"+
		"Statistics:\n"+
		"  Total Rows:         %d\n"+
		"  Budget Rows:        %d\n"+
		"  Skipped Rows:       %d\n"+
		"  Empty Rows:         %d\n"+
		"  Synthesized Rows:   %d\n"+
		"  Chapters:           %d\n"+
		"  Tree Nodes:         %d\n"+
		"  Errors:             %d\n"+
		"  Warnings:           %d\n"+
		"  Info:               %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		status,
		summary.InputFile,
		output,
		summary.TotalRows,
		summary.BudgetRows,
		summary.SkippedRows,
		summary.EmptyRows,
		summary.SynthesizedRows,
		summary.Chapters,
		summary.Nodes,
		summary.Errors,
		summary.Warnings,
		summary.Infos)

	if summary.ErrorMessage != "" {
		fmt.Fprintf(writer, "Failure:\n"+
			"--------------------------------------------------------------------------------\n"+
			"  %s\n\n", summary.ErrorMessage)
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
