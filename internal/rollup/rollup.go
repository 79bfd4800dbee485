// Package rollup creates parent rows that the export omits. Open-data
// exports list only the lowest level of the budget, so a category row is
// synthesized from its items and a chapter row from its categories.
package rollup

import (
	"github.com/vaihtoehtobudjetti/budget-builder/internal/address"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

type group struct {
	parent *types.BudgetRow
	count  int
}

// Synthesize returns rows followed by any parents it created. Missing
// categories are created first, so a chapter can be synthesized from
// categories that were themselves synthesized. Rows with an invalid depth
// are left for the hierarchy builder to report. The input slice and its
// rows are not modified.
func Synthesize(rows []*types.BudgetRow) ([]*types.BudgetRow, []validation.Issue) {
	known := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Depth == types.DepthChapter || r.Depth == types.DepthCategory {
			known[parentKey(r.Depth, r.ChapterCode, r.CategoryCode)] = true
		}
	}

	out := make([]*types.BudgetRow, len(rows), len(rows)+8)
	copy(out, rows)

	var issues []validation.Issue

	categories := collect(rows, types.DepthItem, known)
	out, issues = appendGroups(out, issues, categories)

	chapters := collect(out, types.DepthCategory, known)
	out, issues = appendGroups(out, issues, chapters)

	return out, issues
}

// collect sums every row at childDepth whose parent is not known into a new
// parent row, keyed by parent address in order of first appearance.
func collect(rows []*types.BudgetRow, childDepth types.Depth, known map[string]bool) []*group {
	var (
		order  []*group
		byAddr = make(map[string]*group)
	)
	parentDepth := childDepth - 1

	for _, r := range rows {
		if r.Depth != childDepth {
			continue
		}
		key := parentKey(parentDepth, r.ChapterCode, r.CategoryCode)
		if known[key] {
			continue
		}
		g, ok := byAddr[key]
		if !ok {
			g = &group{parent: newParent(r, parentDepth)}
			byAddr[key] = g
			order = append(order, g)
		}
		p := g.parent
		p.Baseline = p.Baseline.Add(r.Baseline)
		p.Alternative = p.Alternative.Add(r.Alternative)
		p.Difference = p.Baseline.Sub(p.Alternative)
		g.count++
	}

	for key := range byAddr {
		known[key] = true
	}
	return order
}

func appendGroups(rows []*types.BudgetRow, issues []validation.Issue, groups []*group) ([]*types.BudgetRow, []validation.Issue) {
	for _, g := range groups {
		p := g.parent
		rows = append(rows, p)
		issues = append(issues, validation.Infof(validation.StageRollup, p.SourceRow,
			"synthesized %s from %d %s row(s)", p.Depth, g.count, p.Depth+1).
			WithField("address", p.Address))
	}
	return rows, issues
}

// newParent copies the identifying fields of child up to depth. Amounts
// start at zero and the labels below depth are cleared.
func newParent(child *types.BudgetRow, depth types.Depth) *types.BudgetRow {
	p := &types.BudgetRow{
		IsIncome:     child.IsIncome,
		Depth:        depth,
		ChapterCode:  child.ChapterCode,
		ChapterLabel: child.ChapterLabel,
		SourceLink:   child.SourceLink,
		SourceRow:    child.SourceRow,
		Synthesized:  true,
	}
	if depth == types.DepthCategory {
		p.CategoryCode = child.CategoryCode
		p.CategoryLabel = child.CategoryLabel
	}

	a := address.Address{Chapter: p.ChapterCode, Category: p.CategoryCode}
	p.Address = a.Join()
	p.IsAlternativeAddition = address.Parse(p.Address).AlternativeAddition
	return p
}

func parentKey(depth types.Depth, chapter, category string) string {
	if depth == types.DepthChapter {
		return chapter
	}
	return chapter + "." + category
}
