// =============================================================================
// Budget Builder - Diagnostics
// =============================================================================
//
// Every stage of the pipeline reports problems as Issue values instead of
// failing. An Issue carries enough context (row number, field, offending
// value, raw cells) for an editor to find and fix the line in the sheet.
//
// SEVERITY:
//   error   : the row or entry was dropped
//   warning : the value was kept but looks suspicious
//   info    : something was done on the editor's behalf (e.g. a synthesized row)
//
// Fatal structural problems are returned as Go errors by the stage that
// found them, never as Issues.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Severity of an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Stage names the pipeline step that raised an Issue.
type Stage string

const (
	StageClassify  Stage = "classify"
	StageRollup    Stage = "rollup"
	StageHierarchy Stage = "hierarchy"
	StageSummary   Stage = "summary"
	StageReport    Stage = "report"
)

// Stages lists the stages in pipeline order.
var Stages = []Stage{StageClassify, StageRollup, StageHierarchy, StageSummary, StageReport}

// Issue is one diagnostic.
type Issue struct {
	Severity Severity
	Stage    Stage

	// RowNumber is the 1-based source row, 0 when not row related.
	RowNumber int

	// Field is the column or extras key involved.
	Field string

	// Value is the offending value.
	Value string

	Message string

	// Raw holds the raw row cells.
	Raw []string
}

// Error implements the error interface.
func (i Issue) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(i.Severity)), i.Stage)
	if i.RowNumber > 0 {
		fmt.Fprintf(&b, ", row %d", i.RowNumber)
	}
	if i.Field != "" {
		fmt.Fprintf(&b, ", field '%s'", i.Field)
	}
	fmt.Fprintf(&b, ": %s", i.Message)
	if i.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", i.Value)
	}
	return b.String()
}

// String is Error plus the raw row when present.
func (i Issue) String() string {
	if len(i.Raw) == 0 {
		return i.Error()
	}
	return fmt.Sprintf("%s raw=[%s]", i.Error(), strings.Join(quoteAll(i.Raw), ", "))
}

func quoteAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = fmt.Sprintf("%q", c)
	}
	return out
}

// Errorf builds an error-severity Issue.
func Errorf(stage Stage, row int, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Stage: stage, RowNumber: row, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity Issue.
func Warnf(stage Stage, row int, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Stage: stage, RowNumber: row, Message: fmt.Sprintf(format, args...)}
}

// Infof builds an info-severity Issue.
func Infof(stage Stage, row int, format string, args ...any) Issue {
	return Issue{Severity: SeverityInfo, Stage: stage, RowNumber: row, Message: fmt.Sprintf(format, args...)}
}

// WithField returns a copy with Field and Value set.
func (i Issue) WithField(field, value string) Issue {
	i.Field = field
	i.Value = value
	return i
}

// WithRaw returns a copy carrying the raw row.
func (i Issue) WithRaw(raw []string) Issue {
	i.Raw = append([]string(nil), raw...)
	return i
}

// =============================================================================
// RESULT
// =============================================================================

// Result collects the Issues of a run.
type Result struct {
	Issues []Issue

	ErrorCount   int
	WarningCount int
	InfoCount    int
}

// Add appends issues and updates the counters.
func (r *Result) Add(issues ...Issue) {
	for _, is := range issues {
		r.Issues = append(r.Issues, is)
		switch is.Severity {
		case SeverityError:
			r.ErrorCount++
		case SeverityWarning:
			r.WarningCount++
		default:
			r.InfoCount++
		}
	}
}

// Clean reports whether no error or warning was recorded.
func (r *Result) Clean() bool {
	return r.ErrorCount == 0 && r.WarningCount == 0
}

// ByStage returns the issues raised by one stage.
func (r *Result) ByStage(stage Stage) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Stage == stage {
			out = append(out, is)
		}
	}
	return out
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatIssues formats issues for display or logging.
//
// PARAMETERS:
//   - issues: The issues to format.
//
// RETURNS:
//   - A formatted string listing every issue.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "No issues."
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Build completed with %d issue(s):\n\n", len(issues))
	for i, is := range issues {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, is.String())
	}
	return builder.String()
}
