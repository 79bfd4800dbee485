// =============================================================================
// Budget Builder - Report Assembler
// =============================================================================
//
// Walks the finished tree and produces the ordered view-model handed to the
// renderer: chapters, their categories and their items, each with formatted
// amounts.
//
// CUT PERCENTAGE (chapters only):
//   reported : the row's own difference percentage, when the sheet has one
//   derived  : 100 - alternative/baseline*100, clamped to >= 0
//   none     : no percentage column value and a zero baseline
//
//   The reported value wins. When both exist and their magnitudes differ
//   by more than Options.DivergenceThreshold percentage points, a warning
//   is raised so an editor can check the sheet.
//
// =============================================================================

package report

import (
	"github.com/shopspring/decimal"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/hierarchy"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/summary"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// VIEW MODEL
// =============================================================================

// CutSource tells where a chapter's cut percentage came from.
type CutSource string

const (
	CutSourceReported CutSource = "reported"
	CutSourceDerived  CutSource = "derived"
	CutSourceNone     CutSource = "none"
)

// Figures are the amounts of one node, raw and formatted.
type Figures struct {
	Baseline    decimal.Decimal
	Alternative decimal.Decimal
	Difference  decimal.Decimal

	BaselineText    string
	AlternativeText string
	DifferenceText  string
}

// Node holds the fields shared by every level.
type Node struct {
	Code    string
	Address string
	Label   string

	Rationale  string
	SourceLink string

	AlternativeAddition bool
	Synthesized         bool
	SourceRow           int

	Figures
}

// ItemView is a depth-3 node.
type ItemView struct {
	Node
}

// CategoryView is a depth-2 node with its items in address order.
type CategoryView struct {
	Node
	Items []ItemView
}

// ChapterView is a depth-1 node with its categories in address order.
type ChapterView struct {
	Node
	IsIncome bool

	// CutPercent is in percent (5.53 means 5,53 %).
	CutPercent     decimal.Decimal
	CutPercentText string
	CutSource      CutSource

	Categories []CategoryView
}

// ViewModel is the assembled report.
type ViewModel struct {
	Summary  summary.Summary
	Chapters []ChapterView
}

// Income returns the income chapters in order.
func (vm *ViewModel) Income() []ChapterView {
	return vm.filter(true)
}

// Expenses returns the expenditure chapters in order.
func (vm *ViewModel) Expenses() []ChapterView {
	return vm.filter(false)
}

func (vm *ViewModel) filter(income bool) []ChapterView {
	var out []ChapterView
	for _, c := range vm.Chapters {
		if c.IsIncome == income {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Options controls assembly.
type Options struct {
	// DivergenceThreshold is in percentage points.
	DivergenceThreshold decimal.Decimal
}

// DefaultOptions returns a one percentage point threshold.
func DefaultOptions() Options {
	return Options{DivergenceThreshold: decimal.NewFromInt(1)}
}

// Assembler builds view-models.
type Assembler struct {
	opts Options
}

// NewAssembler creates an Assembler.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts}
}

// Assemble walks tree depth-first and builds the view-model.
func (a *Assembler) Assemble(tree *hierarchy.Tree, s summary.Summary) (*ViewModel, []validation.Issue) {
	vm := &ViewModel{Summary: s}
	var issues []validation.Issue

	for _, ch := range tree.Chapters.Rows() {
		view := ChapterView{Node: node(ch), IsIncome: ch.IsIncome}

		var issue *validation.Issue
		view.CutPercent, view.CutSource, issue = a.cut(ch)
		view.CutPercentText = FormatPercent(view.CutPercent)
		if issue != nil {
			issues = append(issues, *issue)
		}

		for _, cat := range ch.Children() {
			cv := CategoryView{Node: node(cat)}
			for _, item := range cat.Children() {
				cv.Items = append(cv.Items, ItemView{Node: node(item)})
			}
			view.Categories = append(view.Categories, cv)
		}

		vm.Chapters = append(vm.Chapters, view)
	}

	return vm, issues
}

func (a *Assembler) cut(row *types.BudgetRow) (decimal.Decimal, CutSource, *validation.Issue) {
	var (
		change    decimal.Decimal
		derivable = !row.Baseline.IsZero()
	)
	if derivable {
		change = hundred.Sub(row.Alternative.Div(row.Baseline).Mul(hundred)).Round(2)
	}

	if row.DifferencePercent.Valid {
		reported := row.DifferencePercent.Decimal.Mul(hundred).Round(2)
		if derivable {
			gap := reported.Abs().Sub(change.Abs()).Abs()
			if gap.GreaterThan(a.opts.DivergenceThreshold) {
				is := validation.Warnf(validation.StageReport, row.SourceRow,
					"reported cut percentage %s differs from derived %s by %s points",
					reported.StringFixed(2), change.StringFixed(2), gap.StringFixed(2)).
					WithField("difference_percent", row.Address)
				return reported, CutSourceReported, &is
			}
		}
		return reported, CutSourceReported, nil
	}

	if derivable {
		if change.IsNegative() {
			change = decimal.Zero
		}
		return change, CutSourceDerived, nil
	}

	return decimal.Zero, CutSourceNone, nil
}

func node(r *types.BudgetRow) Node {
	return Node{
		Code:                r.Key(),
		Address:             r.Address,
		Label:               r.Label(),
		Rationale:           r.Rationale,
		SourceLink:          r.SourceLink,
		AlternativeAddition: r.IsAlternativeAddition,
		Synthesized:         r.Synthesized,
		SourceRow:           r.SourceRow,
		Figures: Figures{
			Baseline:        r.Baseline,
			Alternative:     r.Alternative,
			Difference:      r.Difference,
			BaselineText:    FormatEuros(r.Baseline),
			AlternativeText: FormatEuros(r.Alternative),
			DifferenceText:  FormatEuros(r.Difference),
		},
	}
}
