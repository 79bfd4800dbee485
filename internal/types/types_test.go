package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedRowsKeepsLexicalOrder(t *testing.T) {
	o := NewOrderedRows()
	for _, k := range []string{"2", "10", "01", "30", "lib"} {
		o.Put(k, &BudgetRow{Depth: DepthChapter, ChapterCode: k})
	}

	assert.Equal(t, []string{"01", "10", "2", "30", "lib"}, o.Keys())
	assert.Equal(t, 5, o.Len())

	rows := o.Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, "01", rows[0].ChapterCode)
	assert.Equal(t, "lib", rows[4].ChapterCode)
}

func TestOrderedRowsReplacesDuplicateKey(t *testing.T) {
	o := NewOrderedRows()
	first := &BudgetRow{ChapterLabel: "first"}
	second := &BudgetRow{ChapterLabel: "second"}

	o.Put("10", first)
	o.Put("10", second)

	got, ok := o.Get("10")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, o.Len())
}

func TestBudgetRowChildren(t *testing.T) {
	chapter := &BudgetRow{Depth: DepthChapter, ChapterCode: "28"}
	assert.Nil(t, chapter.Children())
	assert.Equal(t, 0, chapter.ChildCount())

	_, ok := chapter.Child("01")
	assert.False(t, ok)

	chapter.AttachChild(&BudgetRow{Depth: DepthCategory, ChapterCode: "28", CategoryCode: "90"})
	chapter.AttachChild(&BudgetRow{Depth: DepthCategory, ChapterCode: "28", CategoryCode: "01"})

	children := chapter.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "01", children[0].Key())
	assert.Equal(t, "90", children[1].Key())
}

func TestDepth(t *testing.T) {
	assert.False(t, Depth(0).Valid())
	assert.True(t, DepthChapter.Valid())
	assert.True(t, DepthItem.Valid())
	assert.False(t, Depth(4).Valid())
	assert.Equal(t, "category", DepthCategory.String())
	assert.Equal(t, "invalid", Depth(7).String())
}

func TestLabelFollowsDepth(t *testing.T) {
	row := &BudgetRow{
		Depth:         DepthCategory,
		ChapterLabel:  "Valtiovarainministeriön hallinnonala",
		CategoryLabel: "Verotus",
		ItemLabel:     "",
	}
	assert.Equal(t, "Verotus", row.Label())
	assert.Equal(t, [3]string{"", "", ""}, row.Codes())
}
