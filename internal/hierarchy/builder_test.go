package hierarchy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/address"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
)

// row builds a BudgetRow from a dotted address; depth is the component count.
func row(addr string, sourceRow int) *types.BudgetRow {
	a := address.Parse(addr)
	return &types.BudgetRow{
		Depth:        types.Depth(a.Depth()),
		ChapterCode:  a.Chapter,
		CategoryCode: a.Category,
		ItemCode:     a.Item,
		Address:      addr,
		SourceRow:    sourceRow,
	}
}

func TestBuildNestsInAnyOrder(t *testing.T) {
	inputs := [][]*types.BudgetRow{
		{row("10", 1), row("10.01", 2), row("10.01.01", 3)},
		{row("10.01.01", 3), row("10.01", 2), row("10", 1)},
		{row("10.01", 2), row("10.01.01", 3), row("10", 1)},
	}

	for _, rows := range inputs {
		tree, issues, err := Build(rows)
		require.NoError(t, err)
		assert.Empty(t, issues)

		chapter, ok := tree.Chapter("10")
		require.True(t, ok)
		category, ok := chapter.Child("01")
		require.True(t, ok)
		item, ok := category.Child("01")
		require.True(t, ok)
		assert.Equal(t, 3, item.SourceRow)
		assert.Equal(t, 3, tree.Len())
	}
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	rows := []*types.BudgetRow{row("10.01", 2), row("10", 1)}
	_, _, err := Build(rows)
	require.NoError(t, err)
	assert.Equal(t, "10.01", rows[0].Address)
}

func TestBuildMissingChapterIsFatal(t *testing.T) {
	rows := []*types.BudgetRow{row("10", 1), row("99.01", 2)}

	tree, _, err := Build(rows)
	require.Error(t, err)
	assert.Nil(t, tree)
	assert.True(t, errors.Is(err, ErrMissingParent))

	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, types.DepthChapter, se.Missing)
	assert.Equal(t, "99", se.Row.ChapterCode)
	assert.Equal(t, []string{"10"}, se.Known)
	assert.Contains(t, err.Error(), `chapter "99" not found`)
}

func TestBuildMissingCategoryIsFatal(t *testing.T) {
	rows := []*types.BudgetRow{row("10", 1), row("10.01", 2), row("10.02.01", 3)}

	_, _, err := Build(rows)
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, types.DepthCategory, se.Missing)
	assert.Equal(t, []string{"01"}, se.Known)
	assert.Contains(t, err.Error(), `category "02" in chapter "10" not found`)
}

func TestBuildItemWithoutChapterIsFatal(t *testing.T) {
	_, _, err := Build([]*types.BudgetRow{row("10.01.01", 3)})
	var se *StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, types.DepthChapter, se.Missing)
}

func TestBuildDropsInvalidDepth(t *testing.T) {
	bad := row("10", 5)
	bad.Depth = 0
	deep := row("10.01.01", 6)
	deep.Depth = 4

	tree, issues, err := Build([]*types.BudgetRow{row("10", 1), bad, deep})
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Len())
	require.Len(t, issues, 2)
	assert.Equal(t, "depth", issues[0].Field)
	assert.Equal(t, "0", issues[0].Value)
	assert.Equal(t, 5, issues[0].RowNumber)
	assert.Equal(t, "4", issues[1].Value)
}

func TestBuildDropsAddressDepthMismatch(t *testing.T) {
	tooLong := row("10.01.01", 7)
	tooLong.Depth = types.DepthCategory
	tooShort := row("10", 8)
	tooShort.Depth = types.DepthItem

	tree, issues, err := Build([]*types.BudgetRow{row("10", 1), row("10.01", 2), tooLong, tooShort})
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	require.Len(t, issues, 2)
	assert.Equal(t, "address", issues[0].Field)
	assert.Contains(t, issues[0].Message, "below depth 2")
	assert.Contains(t, issues[1].Message, "lacks the category component")
}

func TestBuildSiblingOrderIsLexical(t *testing.T) {
	rows := []*types.BudgetRow{row("2", 1), row("10", 2), row("30", 3), row("1", 4)}

	tree, _, err := Build(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "10", "2", "30"}, tree.Chapters.Keys())
}

func TestBuildAlternativeAdditionCodes(t *testing.T) {
	rows := []*types.BudgetRow{row("30", 1), row("30.lib", 2), row("30.lib.60", 3), row("30.02", 4)}

	tree, _, err := Build(rows)
	require.NoError(t, err)

	chapter, _ := tree.Chapter("30")
	var keys []string
	for _, c := range chapter.Children() {
		keys = append(keys, c.Key())
	}
	assert.Equal(t, []string{"02", "lib"}, keys)

	item, ok := tree.Lookup("30", "lib", "60")
	require.True(t, ok)
	assert.Equal(t, 3, item.SourceRow)
}

func TestBuildDuplicateKeyLastWins(t *testing.T) {
	first := row("10", 1)
	second := row("10", 2)

	tree, _, err := Build([]*types.BudgetRow{first, second})
	require.NoError(t, err)
	got, _ := tree.Chapter("10")
	assert.Same(t, second, got)
}

func TestWalkIsDepthFirstPreOrder(t *testing.T) {
	rows := []*types.BudgetRow{
		row("20", 1), row("10", 2), row("10.02", 3), row("10.01", 4),
		row("10.01.02", 5), row("10.01.01", 6), row("20.01", 7),
	}

	tree, _, err := Build(rows)
	require.NoError(t, err)

	var order []string
	tree.Walk(func(r *types.BudgetRow) { order = append(order, r.Address) })
	assert.Equal(t, "10 10.01 10.01.01 10.01.02 10.02 20 20.01", strings.Join(order, " "))
}

func TestLookup(t *testing.T) {
	tree, _, err := Build([]*types.BudgetRow{row("10", 1), row("10.01", 2)})
	require.NoError(t, err)

	_, ok := tree.Lookup("10", "", "")
	assert.True(t, ok)
	_, ok = tree.Lookup("10", "01", "")
	assert.True(t, ok)
	_, ok = tree.Lookup("10", "01", "05")
	assert.False(t, ok)
	_, ok = tree.Lookup("11", "01", "")
	assert.False(t, ok)
}
