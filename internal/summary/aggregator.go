// Package summary reduces the budget rows and the extras side table into the
// fixed Summary record shown at the top of the published page.
package summary

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/config"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/numeric"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

var hundred = decimal.NewFromInt(100)

// Entry is one [key, value] row of the extras table. Value is the raw,
// unformatted cell.
type Entry struct {
	Key       string
	Value     string
	RowNumber int
}

// EntriesFromRows turns two-cell rows into entries. Empty rows are skipped.
func EntriesFromRows(rows [][]string) []Entry {
	var entries []Entry
	for i, r := range rows {
		var key, value string
		if len(r) > 0 {
			key = strings.TrimSpace(r[0])
		}
		if len(r) > 1 {
			value = strings.TrimSpace(r[1])
		}
		if key == "" && value == "" {
			continue
		}
		entries = append(entries, Entry{Key: key, Value: value, RowNumber: i + 1})
	}
	return entries
}

// Summary holds the headline figures. Every field defaults to zero.
type Summary struct {
	// Totals over depth-1 rows.
	IncomeBaseline     decimal.Decimal
	IncomeAlternative  decimal.Decimal
	IncomeDifference   decimal.Decimal
	ExpenseBaseline    decimal.Decimal
	ExpenseAlternative decimal.Decimal
	ExpenseDifference  decimal.Decimal

	// AlternativeAdditions counts rows of any depth marked "lib".
	AlternativeAdditions int

	// From the extras table.
	TasksRemoved       decimal.Decimal
	TaxpayerMoneySaved decimal.Decimal
	TaxCuts            decimal.Decimal
	DeficitReduction   decimal.Decimal

	// Percentages, already multiplied by 100 and rounded to 2 decimals.
	CutPercent           decimal.Decimal
	DebtReductionPercent decimal.Decimal

	// Bar values: absolute percentages rounded to whole numbers, used as
	// progress bar widths.
	CutPercentBar           decimal.Decimal
	DebtReductionPercentBar decimal.Decimal
}

type fieldKind int

const (
	plain fieldKind = iota
	percent
)

type target struct {
	kind  fieldKind
	value *decimal.Decimal
	bar   *decimal.Decimal
}

// Aggregator computes Summary values.
type Aggregator struct {
	keys    config.ExtrasKeys
	numbers *numeric.Normalizer
}

// NewAggregator creates an Aggregator recognising the given keys.
func NewAggregator(keys config.ExtrasKeys) *Aggregator {
	return &Aggregator{keys: keys, numbers: numeric.New("")}
}

// Aggregate computes the summary. Problems with extras entries are returned
// as issues; the summary is always complete.
func (a *Aggregator) Aggregate(rows []*types.BudgetRow, extras []Entry) (Summary, []validation.Issue) {
	var s Summary

	for _, r := range rows {
		if r.IsAlternativeAddition {
			s.AlternativeAdditions++
		}
		if r.Depth != types.DepthChapter {
			continue
		}
		if r.IsIncome {
			s.IncomeBaseline = s.IncomeBaseline.Add(r.Baseline)
			s.IncomeAlternative = s.IncomeAlternative.Add(r.Alternative)
			s.IncomeDifference = s.IncomeDifference.Add(r.Difference)
		} else {
			s.ExpenseBaseline = s.ExpenseBaseline.Add(r.Baseline)
			s.ExpenseAlternative = s.ExpenseAlternative.Add(r.Alternative)
			s.ExpenseDifference = s.ExpenseDifference.Add(r.Difference)
		}
	}

	targets := map[string]target{
		a.keys.TasksRemoved:         {kind: plain, value: &s.TasksRemoved},
		a.keys.TaxpayerMoneySaved:   {kind: plain, value: &s.TaxpayerMoneySaved},
		a.keys.TaxCuts:              {kind: plain, value: &s.TaxCuts},
		a.keys.DeficitReduction:     {kind: plain, value: &s.DeficitReduction},
		a.keys.CutPercent:           {kind: percent, value: &s.CutPercent, bar: &s.CutPercentBar},
		a.keys.DebtReductionPercent: {kind: percent, value: &s.DebtReductionPercent, bar: &s.DebtReductionPercentBar},
	}
	delete(targets, "")

	var issues []validation.Issue
	seen := make(map[string]int)

	for _, e := range extras {
		if e.Key == "" {
			continue
		}
		t, ok := targets[e.Key]
		if !ok {
			issues = append(issues, validation.Warnf(validation.StageSummary, e.RowNumber,
				"unrecognized extras key").WithField(e.Key, e.Value))
			continue
		}
		if prev, dup := seen[e.Key]; dup {
			issues = append(issues, validation.Warnf(validation.StageSummary, e.RowNumber,
				"extras key repeated, overriding row %d", prev).WithField(e.Key, e.Value))
		}
		seen[e.Key] = e.RowNumber

		v, err := a.parse(e.Value)
		if err != nil {
			issues = append(issues, validation.Warnf(validation.StageSummary, e.RowNumber,
				"extras value not a number: %v", err).WithField(e.Key, e.Value))
			continue
		}

		switch t.kind {
		case percent:
			pct := v.Mul(hundred)
			*t.value = pct.Round(2)
			*t.bar = pct.Abs().Round(0)
		default:
			*t.value = v
		}
	}

	return s, issues
}

// parse reads a raw value ("0.0553", "1200000000") and falls back to the
// Finnish display format ("1 200 000 000", "5,53 %").
func (a *Aggregator) parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, nil
	}
	if strings.HasSuffix(s, "%") {
		return a.numbers.ParsePercent(s)
	}
	return a.numbers.ParseAmount(s)
}
