// =============================================================================
// Budget Builder - Converter Module
// =============================================================================
//
// This module orchestrates one build run, from the raw export to the
// written report.
//
// BUILD PIPELINE:
//   1. Read the main sheet (XLSX or CSV) and the extras table
//   2. Classify raw rows into budget rows, skipping bad ones
//   3. Optionally synthesize missing parent rows
//   4. Build the chapter / category / item tree
//   5. Compute the summary figures
//   6. Assemble the view-model
//   7. Render the XML document
//   8. Write the report, the error log and the run summary
//
// Recoverable problems become validation.Issue values and never stop the
// run. A structural problem (a row whose parent does not exist) stops the
// run after stage 4 and no report is written.
//
// =============================================================================

package converter

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/classifier"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/config"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/csvparser"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/hierarchy"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/logging"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/report"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/rollup"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/summary"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/xlsxparser"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/xmlwriter"
	"github.com/vaihtoehtobudjetti/budget-builder/pkg/utils"
)

// Input formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one build run.
type Result struct {
	// RunID identifies the run in logs, file names and the document.
	RunID string

	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the path to the generated XML file.
	// This is empty if the build failed or was a dry run.
	OutputFile string

	// ErrorLog and SummaryLog are the paths of the written log files.
	ErrorLog   string
	SummaryLog string

	// Success indicates whether a report was produced.
	Success bool

	// Error contains the fatal error if the build failed.
	Error error

	// Issues are all diagnostics in pipeline order.
	Issues []validation.Issue

	// Report and Document are set when assembly succeeded.
	Report   *report.ViewModel
	Document []byte

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	// TotalRows is the number of rows in the main sheet, header included.
	TotalRows int

	// BudgetRows is the number of rows the classifier accepted.
	BudgetRows int

	// SkippedRows counts rows dropped by the classifier, repeated header
	// rows included.
	SkippedRows int
	HeaderRows  int
	EmptyRows   int

	// SynthesizedRows counts parents created by the rollup step.
	SynthesizedRows int

	// Chapters and Nodes describe the built tree.
	Chapters int
	Nodes    int

	Errors   int
	Warnings int
	Infos    int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options adjusts a single run.
type Options struct {
	// InputFile overrides cfg.Input.File when set.
	InputFile string

	// DryRun runs every stage but writes no files.
	DryRun bool

	// Version is stamped on the document root when set.
	Version string
}

// Converter handles one build run.
type Converter struct {
	cfg    *config.Config
	opts   Options
	logger *zap.Logger
	runID  string

	startedAt time.Time
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - cfg: The validated configuration.
//   - logger: The logger. Nil disables logging.
//   - opts: Per-run options.
//
// RETURNS:
//   - A new Converter instance with a fresh run id.
func New(cfg *config.Config, logger *zap.Logger, opts Options) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.New().String()
	return &Converter{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With(zap.String("run_id", runID)),
		runID:  runID,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the build pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome of the run.
func (c *Converter) Run() Result {
	startTime := time.Now()
	c.startedAt = startTime

	inputPath := c.cfg.Input.File
	if c.opts.InputFile != "" {
		inputPath = c.opts.InputFile
	}

	result := Result{
		RunID:    c.runID,
		FilePath: inputPath,
	}

	c.build(&result)

	result.Stats.ProcessingTime = time.Since(startTime)
	c.countIssues(&result)

	if !c.opts.DryRun {
		c.writeLogs(&result, startTime)
	}

	if result.Success {
		c.logger.Info("Build complete",
			zap.String("output", result.OutputFile),
			zap.Int("rows", result.Stats.BudgetRows),
			zap.Int("skipped", result.Stats.SkippedRows),
			zap.Int("issues", len(result.Issues)),
			zap.Duration("elapsed", result.Stats.ProcessingTime))
	} else {
		c.logger.Error("Build failed", zap.Error(result.Error))
	}

	return result
}

// build runs stages 1 to 8 and fills result.
func (c *Converter) build(result *Result) {
	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	if result.FilePath == "" {
		result.Error = fmt.Errorf("no input file configured")
		return
	}

	if !utils.FileExists(result.FilePath) {
		result.Error = fmt.Errorf("input file %s not found", result.FilePath)
		return
	}

	c.logger.Info("Processing file", zap.String("input", result.FilePath))

	rawRows, err := c.readRows(result.FilePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return
	}
	result.Stats.TotalRows = len(rawRows)

	extraRows, err := c.readExtras(result.FilePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read extras: %w", err)
		return
	}

	c.logger.Debug("Read input",
		zap.Int("rows", len(rawRows)),
		zap.Int("extras", len(extraRows)))

	// =========================================================================
	// STEP 2: CLASSIFY ROWS
	// =========================================================================

	cls := classifier.New(c.cfg.Columns.Indices(), c.cfg.Markers, c.cfg.Report.DefaultSourceLink)
	batch := cls.ClassifyAll(rawRows)

	result.Stats.BudgetRows = len(batch.Rows)
	result.Stats.SkippedRows = len(batch.Skipped)
	result.Stats.HeaderRows = batch.Count(classifier.ReasonHeaderRow)
	result.Stats.EmptyRows = batch.EmptyRows
	c.record(result, batch.Issues())

	rows := batch.Rows

	// =========================================================================
	// STEP 3: ROLL UP MISSING PARENTS
	// =========================================================================

	if c.cfg.Report.RollupMissingParents {
		var issues []validation.Issue
		rows, issues = rollup.Synthesize(rows)
		result.Stats.SynthesizedRows = len(rows) - len(batch.Rows)
		c.record(result, issues)
	}

	// =========================================================================
	// STEP 4: BUILD HIERARCHY
	// =========================================================================

	tree, issues, err := hierarchy.Build(rows)
	c.record(result, issues)
	if err != nil {
		result.Error = fmt.Errorf("failed to build hierarchy: %w", err)
		return
	}

	result.Stats.Chapters = tree.Chapters.Len()
	result.Stats.Nodes = tree.Len()

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	var placed []*types.BudgetRow
	tree.Walk(func(r *types.BudgetRow) { placed = append(placed, r) })

	agg := summary.NewAggregator(c.cfg.ExtrasKeys)
	sum, issues := agg.Aggregate(placed, summary.EntriesFromRows(extraRows))
	c.record(result, issues)

	// =========================================================================
	// STEP 6: ASSEMBLE REPORT
	// =========================================================================

	asm := report.NewAssembler(report.Options{DivergenceThreshold: c.cfg.Report.Threshold()})
	vm, issues := asm.Assemble(tree, sum)
	c.record(result, issues)
	result.Report = vm

	// =========================================================================
	// STEP 7: GENERATE XML DOCUMENT
	// =========================================================================

	opts := xmlwriter.DefaultGenerateOptions()
	opts.RunID = c.runID
	opts.RootAttributes["generated"] = c.startedAt.UTC().Format(time.RFC3339)
	if c.opts.Version != "" {
		opts.RootAttributes["version"] = c.opts.Version
	}
	doc, err := xmlwriter.Generate(vm, opts)
	if err != nil {
		result.Error = fmt.Errorf("failed to generate XML: %w", err)
		return
	}
	result.Document = doc

	// =========================================================================
	// STEP 8: WRITE OUTPUT FILE
	// =========================================================================

	if c.opts.DryRun {
		c.logger.Info("Dry run, not writing output")
		result.Success = true
		return
	}

	outputPath, err := c.writeOutput(result.FilePath, doc)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return
	}

	result.OutputFile = outputPath
	result.Success = true
	c.logger.Info("Wrote output", zap.String("path", outputPath))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// record logs issues and appends them to the result.
func (c *Converter) record(result *Result, issues []validation.Issue) {
	logging.LogIssues(c.logger, issues)
	result.Issues = append(result.Issues, issues...)
}

func (c *Converter) countIssues(result *Result) {
	var r validation.Result
	r.Add(result.Issues...)
	result.Stats.Errors = r.ErrorCount
	result.Stats.Warnings = r.WarningCount
	result.Stats.Infos = r.InfoCount
}

// DetectFormat returns the input format of path. A configured format wins
// over the file extension.
func DetectFormat(path, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("cannot tell the format of %s, set input.format", filepath.Base(path))
	}
}

// readRows reads the main sheet.
func (c *Converter) readRows(path string) ([][]string, error) {
	format, err := DetectFormat(path, c.cfg.Input.Format)
	if err != nil {
		return nil, err
	}

	if format == FormatCSV {
		return csvparser.ReadRows(path, c.cfg.Input.CSV)
	}
	return xlsxparser.ReadRows(path, c.cfg.Input.Sheet)
}

// readExtras reads the extras table.
//
// SOURCES (first match wins):
//   - input.extras_file: a separate CSV, or a workbook read at
//     input.extras_sheet (first sheet when empty)
//   - input.extras_sheet of the main workbook
//   - none: the summary's extras fields stay zero
func (c *Converter) readExtras(inputPath string) ([][]string, error) {
	in := c.cfg.Input

	if in.ExtrasFile != "" {
		format, err := DetectFormat(in.ExtrasFile, "")
		if err != nil {
			return nil, err
		}
		if format == FormatCSV {
			return csvparser.ReadExtras(in.ExtrasFile, in.CSV)
		}
		return xlsxparser.ReadRows(in.ExtrasFile, in.ExtrasSheet)
	}

	if in.ExtrasSheet != "" {
		format, err := DetectFormat(inputPath, in.Format)
		if err != nil {
			return nil, err
		}
		if format != FormatXLSX {
			return nil, fmt.Errorf("input.extras_sheet needs an xlsx input, use input.extras_file for csv")
		}
		return xlsxparser.ReadExtras(inputPath, in.ExtrasSheet)
	}

	c.logger.Debug("No extras table configured")
	return nil, nil
}

// writeOutput writes the XML document to the output directory.
func (c *Converter) writeOutput(inputPath string, doc []byte) (string, error) {
	fm := utils.NewFileManager(c.cfg.Output.Dir)
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	name := utils.GenerateOutputFileName(c.cfg.Output.FileNameFormat, map[string]string{
		"original": utils.OriginalName(inputPath),
		"uuid":     c.runID,
	})
	return fm.WriteOutput(name, doc)
}

// writeLogs writes the error log and the run summary. Failures are logged,
// never returned: the report itself is already in place.
func (c *Converter) writeLogs(result *Result, startTime time.Time) {
	fm := utils.NewFileManager(c.cfg.Output.Dir)
	if err := fm.EnsureDirectories(); err != nil {
		c.logger.Warn("Cannot write logs", zap.Error(err))
		return
	}

	if c.cfg.Output.ErrorLogEnabled() {
		path, err := utils.WriteErrorLog(result.Issues, result.FilePath, c.cfg.Output.Dir)
		if err != nil {
			c.logger.Warn("Failed to write error log", zap.Error(err))
		}
		result.ErrorLog = path
	}

	s := result.Stats
	rs := utils.RunSummary{
		RunID:           c.runID,
		StartTime:       startTime,
		EndTime:         startTime.Add(s.ProcessingTime),
		InputFile:       result.FilePath,
		OutputFile:      result.OutputFile,
		TotalRows:       s.TotalRows,
		BudgetRows:      s.BudgetRows,
		SkippedRows:     s.SkippedRows,
		EmptyRows:       s.EmptyRows,
		SynthesizedRows: s.SynthesizedRows,
		Chapters:        s.Chapters,
		Nodes:           s.Nodes,
		Errors:          s.Errors,
		Warnings:        s.Warnings,
		Infos:           s.Infos,
		Success:         result.Success,
	}
	if result.Error != nil {
		rs.ErrorMessage = result.Error.Error()
	}

	path, err := utils.WriteSummaryLog(rs, c.cfg.Output.Dir)
	if err != nil {
		c.logger.Warn("Failed to write summary log", zap.Error(err))
	}
	result.SummaryLog = path
}
