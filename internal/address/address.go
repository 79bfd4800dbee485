// Package address parses dotted budget addresses such as "30.02.01".
//
// An address has up to three components: chapter, category and item. The
// token "lib" marks lines that exist only in the alternative proposal and
// may take any position ("30.lib.60", "12 lib"). Components are opaque
// strings; "lib" or zero-padded codes ("01") must survive untouched.
package address

import (
	"strings"
)

// AlternativeMarker is the exact token used in the source data.
const AlternativeMarker = "lib"

// Address is the parsed form of an address cell.
type Address struct {
	Chapter             string
	Category            string
	Item                string
	AlternativeAddition bool
}

// Parse splits addr into its components. It never fails: short addresses
// are padded with empty components and extra components are ignored.
func Parse(addr string) Address {
	s := strings.TrimSpace(addr)

	out := Address{AlternativeAddition: strings.Contains(s, AlternativeMarker)}

	// "12 lib" is the space separated variant of "12.lib".
	s = strings.ReplaceAll(s, " "+AlternativeMarker, "."+AlternativeMarker)

	parts := strings.Split(s, ".")
	for len(parts) < 3 {
		parts = append(parts, "")
	}

	out.Chapter = strings.TrimSpace(parts[0])
	out.Category = strings.TrimSpace(parts[1])
	out.Item = strings.TrimSpace(parts[2])
	return out
}

// Components returns chapter, category and item in order.
func (a Address) Components() []string {
	return []string{a.Chapter, a.Category, a.Item}
}

// Depth returns the number of leading non-empty components.
func (a Address) Depth() int {
	n := 0
	for _, c := range a.Components() {
		if c == "" {
			break
		}
		n++
	}
	return n
}

// Join rebuilds the dotted form with trailing empty components removed.
func (a Address) Join() string {
	parts := a.Components()
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}
