// =============================================================================
// Budget Builder - Row Classifier
// =============================================================================
//
// Converts raw spreadsheet rows into typed budget rows.
//
// ROW SHAPE:
//   Rows are positional: a ColumnIndices value tells which cell holds which
//   field. Spreadsheet exports drop trailing empty cells, so row lengths vary.
//   A cell is only read when the row reaches its index; otherwise the field
//   keeps its default ("" or zero).
//
// SKIPPED ROWS:
//   A row is never allowed to abort the batch. Instead Classify returns an
//   Outcome holding either the row or a Skip describing why it was dropped:
//     header_row       : the baseline cell repeats the column header word
//     malformed_number : a monetary or percentage cell did not parse
//     panic            : anything unexpected while reading the row
//
// =============================================================================

package classifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/address"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/config"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/numeric"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

// =============================================================================
// OUTCOME TYPES
// =============================================================================

// Reason tells why a row was skipped.
type Reason string

const (
	ReasonHeaderRow       Reason = "header_row"
	ReasonMalformedNumber Reason = "malformed_number"
	ReasonPanic           Reason = "panic"
)

// Skip describes a dropped row.
type Skip struct {
	// RowNumber is the 1-based row number in the input.
	RowNumber int

	Reason Reason

	// Field and Value name the cell that caused the skip, when known.
	Field string
	Value string

	// Raw is the row as read.
	Raw []string

	// Err is the underlying error.
	Err error
}

// Issue converts the skip into a diagnostic. Stray header rows are info,
// everything else is an error because data was lost.
func (s *Skip) Issue() validation.Issue {
	var is validation.Issue
	switch s.Reason {
	case ReasonHeaderRow:
		is = validation.Infof(validation.StageClassify, s.RowNumber, "skipped repeated header row")
	case ReasonMalformedNumber:
		is = validation.Errorf(validation.StageClassify, s.RowNumber, "skipped row: %v", s.Err)
	default:
		is = validation.Errorf(validation.StageClassify, s.RowNumber, "skipped row after unexpected failure: %v", s.Err)
	}
	return is.WithField(s.Field, s.Value).WithRaw(s.Raw)
}

// Outcome is the result of classifying one row. Exactly one of Row and
// Skip is set.
type Outcome struct {
	Row  *types.BudgetRow
	Skip *Skip
}

// OK reports whether the row was classified.
func (o Outcome) OK() bool {
	return o.Row != nil
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier turns raw rows into budget rows.
type Classifier struct {
	cols        config.ColumnIndices
	markers     config.Markers
	defaultLink string
	numbers     *numeric.Normalizer
}

// New creates a Classifier.
//
// PARAMETERS:
//   - cols: Resolved cell indices. Optional columns are -1 when unused.
//   - markers: Income token and header sentinel.
//   - defaultLink: Link used when a row carries none.
func New(cols config.ColumnIndices, markers config.Markers, defaultLink string) *Classifier {
	return &Classifier{
		cols:        cols,
		markers:     markers,
		defaultLink: defaultLink,
		numbers:     numeric.New(markers.HeaderSentinel),
	}
}

// Classify converts one raw row.
//
// PARAMETERS:
//   - raw: The row cells, possibly shorter than the column mapping.
//   - rowNumber: The 1-based row number used in diagnostics.
//
// RETURNS:
//   - An Outcome holding the row or the reason it was skipped.
func (c *Classifier) Classify(raw []string, rowNumber int) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Skip: &Skip{
				RowNumber: rowNumber,
				Reason:    ReasonPanic,
				Raw:       raw,
				Err:       fmt.Errorf("panic: %v", r),
			}}
		}
	}()

	get := func(idx int) string {
		if idx < 0 || idx > len(raw)-1 {
			return ""
		}
		return raw[idx]
	}

	skip := func(field, value string, err error) Outcome {
		reason := ReasonMalformedNumber
		if numeric.IsHeaderRow(err) {
			reason = ReasonHeaderRow
		}
		return Outcome{Skip: &Skip{
			RowNumber: rowNumber,
			Reason:    reason,
			Field:     field,
			Value:     value,
			Raw:       raw,
			Err:       fmt.Errorf("%s: %w", field, err),
		}}
	}

	addr := address.Parse(get(c.cols.Address))

	row := &types.BudgetRow{
		IsIncome:              get(c.cols.Income) == c.markers.Income,
		Depth:                 parseDepth(get(c.cols.Depth)),
		ChapterCode:           addr.Chapter,
		CategoryCode:          addr.Category,
		ItemCode:              addr.Item,
		ChapterLabel:          strings.TrimSpace(get(c.cols.ChapterLabel)),
		CategoryLabel:         strings.TrimSpace(get(c.cols.CategoryLabel)),
		ItemLabel:             strings.TrimSpace(get(c.cols.ItemLabel)),
		Address:               addr.Join(),
		IsAlternativeAddition: addr.AlternativeAddition,
		Rationale:             strings.TrimSpace(get(c.cols.Rationale)),
		SourceRow:             rowNumber,
	}

	baselineCell := get(c.cols.Baseline)
	baseline, err := c.numbers.ParseAmount(baselineCell)
	if err != nil {
		return skip("baseline", baselineCell, err)
	}

	alternativeCell := get(c.cols.Alternative)
	alternative, err := c.numbers.ParseAmount(alternativeCell)
	if err != nil {
		return skip("alternative", alternativeCell, err)
	}

	row.Baseline = baseline
	row.Alternative = alternative
	row.Difference = baseline.Sub(alternative)

	if pctCell := strings.TrimSpace(get(c.cols.DifferencePercent)); pctCell != "" {
		pct, err := c.numbers.ParsePercent(pctCell)
		if err != nil {
			return skip("difference_percent", pctCell, err)
		}
		row.DifferencePercent = decimal.NullDecimal{Decimal: pct, Valid: true}
	}

	row.SourceLink = strings.TrimSpace(get(c.cols.SourceLink))
	if row.SourceLink == "" {
		row.SourceLink = c.defaultLink
	}

	return Outcome{Row: row}
}

// parseDepth returns 0 for anything that is not an integer.
func parseDepth(s string) types.Depth {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return types.Depth(n)
}

// =============================================================================
// BATCH CLASSIFICATION
// =============================================================================

// Batch is the result of classifying a whole sheet.
type Batch struct {
	Rows    []*types.BudgetRow
	Skipped []*Skip

	// EmptyRows counts rows without any non-blank cell.
	EmptyRows int

	// Total is the number of input rows including header and empty rows.
	Total int
}

// Issues returns a diagnostic per skipped row.
func (b *Batch) Issues() []validation.Issue {
	issues := make([]validation.Issue, 0, len(b.Skipped))
	for _, s := range b.Skipped {
		issues = append(issues, s.Issue())
	}
	return issues
}

// Count returns the number of rows skipped for reason.
func (b *Batch) Count(reason Reason) int {
	n := 0
	for _, s := range b.Skipped {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// ClassifyAll classifies every row. The first non-empty row is the sheet
// header and is skipped, as are empty rows. Row numbers are 1-based
// positions in rows.
func (c *Classifier) ClassifyAll(rows [][]string) Batch {
	batch := Batch{Total: len(rows)}
	headerSeen := false

	for i, raw := range rows {
		if isRowEmpty(raw) {
			batch.EmptyRows++
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}

		out := c.Classify(raw, i+1)
		if out.OK() {
			batch.Rows = append(batch.Rows, out.Row)
		} else {
			batch.Skipped = append(batch.Skipped, out.Skip)
		}
	}

	return batch
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
