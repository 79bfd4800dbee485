// =============================================================================
// Budget Builder - Hierarchy Builder
// =============================================================================
//
// Nests the flat row list into chapter -> category -> item.
//
// ALGORITHM:
//   1. Stable-sort a copy of the rows by (depth, chapter, category, item).
//      Components compare as strings, so "10" sorts before "2".
//   2. Walk the sorted rows once. Every chapter is inserted before any
//      category and every category before any item, so a parent lookup that
//      fails means the parent does not exist at all.
//
// FAILURES:
//   Rows with a depth outside 1..3, or whose address does not match their
//   depth, are dropped with an Issue. A category without its chapter or an
//   item without its chapter or category aborts the build with a
//   *StructuralError: dropping it would silently corrupt the totals.
//
// =============================================================================

package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/types"
	"github.com/vaihtoehtobudjetti/budget-builder/internal/validation"
)

// ErrMissingParent is wrapped by every StructuralError.
var ErrMissingParent = errors.New("missing parent row")

// StructuralError reports a row whose ancestor is absent from the input.
type StructuralError struct {
	Row *types.BudgetRow

	// Missing is the depth of the ancestor that was not found.
	Missing types.Depth

	// Known lists the keys that did exist at that level.
	Known []string
}

func (e *StructuralError) Error() string {
	r := e.Row
	var want string
	if e.Missing == types.DepthChapter {
		want = fmt.Sprintf("chapter %q", r.ChapterCode)
	} else {
		want = fmt.Sprintf("category %q in chapter %q", r.CategoryCode, r.ChapterCode)
	}
	return fmt.Sprintf("row %d (%s, depth %d): %s not found (known: %v)",
		r.SourceRow, r.Address, r.Depth, want, e.Known)
}

// Unwrap lets errors.Is match ErrMissingParent.
func (e *StructuralError) Unwrap() error {
	return ErrMissingParent
}

// =============================================================================
// TREE
// =============================================================================

// Tree is the built hierarchy. It is read-only once Build returns.
type Tree struct {
	// Chapters holds the depth-1 rows keyed by chapter code.
	Chapters *types.OrderedRows
}

// Chapter returns the chapter stored under code.
func (t *Tree) Chapter(code string) (*types.BudgetRow, bool) {
	return t.Chapters.Get(code)
}

// Lookup finds a row by its address components. Empty trailing components
// stop the descent.
func (t *Tree) Lookup(chapter, category, item string) (*types.BudgetRow, bool) {
	row, ok := t.Chapters.Get(chapter)
	if !ok || category == "" {
		return row, ok
	}
	row, ok = row.Child(category)
	if !ok || item == "" {
		return row, ok
	}
	return row.Child(item)
}

// Walk visits every row depth-first, parents before children, siblings in
// ascending key order.
func (t *Tree) Walk(fn func(row *types.BudgetRow)) {
	var visit func(rows []*types.BudgetRow)
	visit = func(rows []*types.BudgetRow) {
		for _, r := range rows {
			fn(r)
			visit(r.Children())
		}
	}
	visit(t.Chapters.Rows())
}

// Len returns the number of rows in the tree.
func (t *Tree) Len() int {
	n := 0
	t.Walk(func(*types.BudgetRow) { n++ })
	return n
}

// =============================================================================
// BUILD
// =============================================================================

// Build nests rows into a Tree.
//
// PARAMETERS:
//   - rows: The classified rows in any order. The slice is not modified.
//
// RETURNS:
//   - The tree.
//   - Issues for dropped rows.
//   - A *StructuralError when a parent is missing. The tree is nil then.
func Build(rows []*types.BudgetRow) (*Tree, []validation.Issue, error) {
	sorted := make([]*types.BudgetRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	tree := &Tree{Chapters: types.NewOrderedRows()}
	var issues []validation.Issue

	for _, row := range sorted {
		if !row.Depth.Valid() {
			issues = append(issues, dropped(row, "depth", fmt.Sprint(int(row.Depth)), "unexpected depth, expected 1, 2 or 3"))
			continue
		}
		if msg := checkAddress(row); msg != "" {
			issues = append(issues, dropped(row, "address", row.Address, msg))
			continue
		}

		switch row.Depth {
		case types.DepthChapter:
			tree.Chapters.Put(row.ChapterCode, row)

		default:
			chapter, ok := tree.Chapter(row.ChapterCode)
			if !ok {
				return nil, issues, &StructuralError{Row: row, Missing: types.DepthChapter, Known: tree.Chapters.Keys()}
			}
			if row.Depth == types.DepthCategory {
				chapter.AttachChild(row)
				continue
			}
			category, ok := tree.Lookup(row.ChapterCode, row.CategoryCode, "")
			if !ok {
				return nil, issues, &StructuralError{Row: row, Missing: types.DepthCategory, Known: childKeys(chapter)}
			}
			category.AttachChild(row)
		}
	}

	return tree, issues, nil
}

func less(a, b *types.BudgetRow) bool {
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	if a.ChapterCode != b.ChapterCode {
		return a.ChapterCode < b.ChapterCode
	}
	if a.CategoryCode != b.CategoryCode {
		return a.CategoryCode < b.CategoryCode
	}
	return a.ItemCode < b.ItemCode
}

// checkAddress verifies that components 1..depth are set and the rest are
// empty. It returns "" for a consistent row.
func checkAddress(row *types.BudgetRow) string {
	codes := row.Codes()
	for level := 1; level <= 3; level++ {
		code := codes[level-1]
		switch {
		case level <= int(row.Depth) && code == "":
			return fmt.Sprintf("address lacks the %s component required at depth %d", types.Depth(level), row.Depth)
		case level > int(row.Depth) && code != "":
			return fmt.Sprintf("address has a %s component %q below depth %d", types.Depth(level), code, row.Depth)
		}
	}
	return ""
}

func dropped(row *types.BudgetRow, field, value, msg string) validation.Issue {
	return validation.Errorf(validation.StageHierarchy, row.SourceRow, "dropped row: %s", msg).WithField(field, value)
}

func childKeys(row *types.BudgetRow) []string {
	children := row.Children()
	keys := make([]string, 0, len(children))
	for _, c := range children {
		keys = append(keys, c.Key())
	}
	return keys
}
