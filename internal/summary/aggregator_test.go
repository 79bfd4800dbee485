package summary

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/config"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s got %s", want, got.String()}, msgAndArgs...)...)
}

func budgetRow(depth types.Depth, income bool, base, alt string) *types.BudgetRow {
	b, a := dec(base), dec(alt)
	return &types.BudgetRow{Depth: depth, IsIncome: income, Baseline: b, Alternative: a, Difference: b.Sub(a)}
}

func TestAggregateRowTotals(t *testing.T) {
	lib := budgetRow(types.DepthItem, false, "0", "50")
	lib.IsAlternativeAddition = true

	rows := []*types.BudgetRow{
		budgetRow(types.DepthChapter, false, "1000", "900"),
		budgetRow(types.DepthChapter, false, "500", "520"),
		budgetRow(types.DepthCategory, false, "400", "300"),
		budgetRow(types.DepthChapter, true, "1200", "1100"),
		lib,
	}

	s, issues := NewAggregator(config.DefaultExtrasKeys()).Aggregate(rows, nil)
	assert.Empty(t, issues)

	assertDec(t, "1500", s.ExpenseBaseline)
	assertDec(t, "1420", s.ExpenseAlternative)
	assertDec(t, "80", s.ExpenseDifference)
	assertDec(t, "1200", s.IncomeBaseline)
	assertDec(t, "1100", s.IncomeAlternative)
	assertDec(t, "100", s.IncomeDifference)
	assert.Equal(t, 1, s.AlternativeAdditions)
}

func TestAggregateExtras(t *testing.T) {
	keys := config.DefaultExtrasKeys()
	extras := []Entry{
		{Key: keys.TasksRemoved, Value: "1200000000", RowNumber: 1},
		{Key: keys.TaxpayerMoneySaved, Value: "3400000000.5", RowNumber: 2},
		{Key: keys.TaxCuts, Value: "2\u00a0000\u00a0000\u00a0000", RowNumber: 3},
		{Key: keys.DeficitReduction, Value: "1 400 000 000", RowNumber: 4},
		{Key: keys.CutPercent, Value: "0.055349", RowNumber: 5},
		{Key: keys.DebtReductionPercent, Value: "-12,6%", RowNumber: 6},
	}

	s, issues := NewAggregator(keys).Aggregate(nil, extras)

	require.Len(t, issues, 1, "deficit reduction uses ascii spaces")
	assert.Equal(t, keys.DeficitReduction, issues[0].Field)
	assert.Equal(t, 4, issues[0].RowNumber)

	assertDec(t, "1200000000", s.TasksRemoved)
	assertDec(t, "3400000000.5", s.TaxpayerMoneySaved)
	assertDec(t, "2000000000", s.TaxCuts)
	assert.True(t, s.DeficitReduction.IsZero())

	assertDec(t, "5.53", s.CutPercent)
	assertDec(t, "6", s.CutPercentBar)
	assertDec(t, "-12.6", s.DebtReductionPercent)
	assertDec(t, "13", s.DebtReductionPercentBar)
}

func TestAggregateUnknownKeyStillComplete(t *testing.T) {
	keys := config.DefaultExtrasKeys()
	extras := []Entry{
		{Key: "Kahvikulut", Value: "12", RowNumber: 1},
		{Key: keys.TaxCuts, Value: "500", RowNumber: 2},
		{Key: keys.CutPercent, Value: "0.1", RowNumber: 3},
	}

	s, issues := NewAggregator(keys).Aggregate(nil, extras)

	require.Len(t, issues, 1)
	assert.Equal(t, validation.SeverityWarning, issues[0].Severity)
	assert.Equal(t, validation.StageSummary, issues[0].Stage)
	assert.Equal(t, "Kahvikulut", issues[0].Field)
	assert.Contains(t, issues[0].Message, "unrecognized")

	assertDec(t, "500", s.TaxCuts)
	assertDec(t, "10", s.CutPercent)
	assertDec(t, "10", s.CutPercentBar)
	assert.True(t, s.TasksRemoved.IsZero())
	assert.True(t, s.DebtReductionPercent.IsZero())
}

func TestAggregateDuplicateKeyLastWins(t *testing.T) {
	keys := config.DefaultExtrasKeys()
	extras := []Entry{
		{Key: keys.TaxCuts, Value: "1", RowNumber: 1},
		{Key: keys.TaxCuts, Value: "2", RowNumber: 2},
	}

	s, issues := NewAggregator(keys).Aggregate(nil, extras)
	assertDec(t, "2", s.TaxCuts)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "overriding row 1")
}

func TestAggregateIgnoresEmptyKeyAndValue(t *testing.T) {
	keys := config.DefaultExtrasKeys()
	s, issues := NewAggregator(keys).Aggregate(nil, []Entry{
		{Key: "", Value: "99"},
		{Key: keys.TaxCuts, Value: ""},
	})
	assert.Empty(t, issues)
	assert.True(t, s.TaxCuts.IsZero())
}

func TestEntriesFromRows(t *testing.T) {
	rows := [][]string{
		{"Veronalennukset", "2000000000"},
		{},
		{" Leikkausprosentti ", " 0.05 ", "ignored"},
		{"Velanoton vähennys prosentteina"},
		{"", ""},
	}

	got := EntriesFromRows(rows)
	assert.Equal(t, []Entry{
		{Key: "Veronalennukset", Value: "2000000000", RowNumber: 1},
		{Key: "Leikkausprosentti", Value: "0.05", RowNumber: 3},
		{Key: "Velanoton vähennys prosentteina", Value: "", RowNumber: 4},
	}, got)
}
