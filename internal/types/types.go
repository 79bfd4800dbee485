// =============================================================================
// Budget Builder - Shared Types
// =============================================================================
//
// This package contains the budget row model shared by the classifier, the
// hierarchy builder, the summary aggregator and the report assembler. Keeping
// it here avoids import cycles between those packages.
//
// HIERARCHY:
//   depth 1 : chapter   (pääluokka)  e.g. "30"
//   depth 2 : category  (menoluokka) e.g. "30.02"
//   depth 3 : item      (momentti)   e.g. "30.02.01"
//
// =============================================================================

package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DEPTH
// =============================================================================

// Depth is the position of a row in the three-level budget hierarchy.
// Values other than 1, 2 and 3 can appear straight out of the classifier
// (0 when the depth cell did not parse) and are rejected by the builder.
type Depth int

const (
	DepthChapter  Depth = 1
	DepthCategory Depth = 2
	DepthItem     Depth = 3
)

// Valid reports whether d is one of the three hierarchy levels.
func (d Depth) Valid() bool {
	return d >= DepthChapter && d <= DepthItem
}

// String returns the level name used in diagnostics.
func (d Depth) String() string {
	switch d {
	case DepthChapter:
		return "chapter"
	case DepthCategory:
		return "category"
	case DepthItem:
		return "item"
	default:
		return "invalid"
	}
}

// =============================================================================
// BUDGET ROW
// =============================================================================

// BudgetRow is one line of the budget at one of the three depths.
//
// A row is created once by the classifier. The only field written after that
// is the children container, which the hierarchy builder fills exactly once.
type BudgetRow struct {
	// IsIncome separates income lines from expenditure lines.
	IsIncome bool

	// Depth is the hierarchy level of the row.
	Depth Depth

	// ChapterCode, CategoryCode and ItemCode are the address components.
	// Components below the row's own depth are empty.
	ChapterCode  string
	CategoryCode string
	ItemCode     string

	// Human readable descriptions. May be empty when the source row was short.
	ChapterLabel  string
	CategoryLabel string
	ItemLabel     string

	// Address is the raw address cell as shown to readers.
	Address string

	// IsAlternativeAddition marks lines that only exist in the alternative
	// proposal ("lib" marker in the address).
	IsAlternativeAddition bool

	// Baseline is the government proposal, Alternative the competing one.
	Baseline    decimal.Decimal
	Alternative decimal.Decimal

	// Difference is Baseline - Alternative. Positive means the alternative
	// proposal spends (or collects) less than the baseline.
	Difference decimal.Decimal

	// DifferencePercent is a fraction (0.55 == 55 %). Valid only when the
	// source provided it.
	DifferencePercent decimal.NullDecimal

	Rationale  string
	SourceLink string

	// SourceRow is the 1-based row number in the raw input.
	SourceRow int

	// Synthesized is set on parent rows created by the rollup step.
	Synthesized bool

	children *OrderedRows
}

// Codes returns the three address components in order.
func (r *BudgetRow) Codes() [3]string {
	return [3]string{r.ChapterCode, r.CategoryCode, r.ItemCode}
}

// Key returns the component that identifies the row among its siblings.
func (r *BudgetRow) Key() string {
	switch r.Depth {
	case DepthChapter:
		return r.ChapterCode
	case DepthCategory:
		return r.CategoryCode
	default:
		return r.ItemCode
	}
}

// Label returns the description matching the row's depth.
func (r *BudgetRow) Label() string {
	switch r.Depth {
	case DepthChapter:
		return r.ChapterLabel
	case DepthCategory:
		return r.CategoryLabel
	default:
		return r.ItemLabel
	}
}

// AttachChild stores child under its key. A second child with the same key
// replaces the first.
func (r *BudgetRow) AttachChild(child *BudgetRow) {
	if r.children == nil {
		r.children = NewOrderedRows()
	}
	r.children.Put(child.Key(), child)
}

// Child returns the child stored under key.
func (r *BudgetRow) Child(key string) (*BudgetRow, bool) {
	if r.children == nil {
		return nil, false
	}
	return r.children.Get(key)
}

// Children returns the children in ascending key order. The result is nil
// for a leaf.
func (r *BudgetRow) Children() []*BudgetRow {
	if r.children == nil {
		return nil
	}
	return r.children.Rows()
}

// ChildCount returns the number of direct children.
func (r *BudgetRow) ChildCount() int {
	if r.children == nil {
		return 0
	}
	return r.children.Len()
}

// =============================================================================
// ORDERED ROWS
// =============================================================================

// OrderedRows maps address components to rows and keeps its keys in
// ascending lexical (byte-wise) order regardless of insertion order.
// "10" sorts before "2".
type OrderedRows struct {
	keys []string
	rows map[string]*BudgetRow
}

// NewOrderedRows returns an empty container.
func NewOrderedRows() *OrderedRows {
	return &OrderedRows{rows: make(map[string]*BudgetRow)}
}

// Put inserts or replaces the row stored under key.
func (o *OrderedRows) Put(key string, row *BudgetRow) {
	if _, exists := o.rows[key]; !exists {
		i := sort.SearchStrings(o.keys, key)
		o.keys = append(o.keys, "")
		copy(o.keys[i+1:], o.keys[i:])
		o.keys[i] = key
	}
	o.rows[key] = row
}

// Get returns the row stored under key.
func (o *OrderedRows) Get(key string) (*BudgetRow, bool) {
	row, ok := o.rows[key]
	return row, ok
}

// Len returns the number of stored rows.
func (o *OrderedRows) Len() int {
	return len(o.keys)
}

// Keys returns a copy of the keys in order.
func (o *OrderedRows) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Rows returns the rows in key order.
func (o *OrderedRows) Rows() []*BudgetRow {
	out := make([]*BudgetRow, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.rows[k])
	}
	return out
}
