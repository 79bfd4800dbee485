// =============================================================================
// Budget Builder - Numeric Normalizer
// =============================================================================
//
// Parses Finnish-formatted currency and percentage cells into exact decimals.
//
// ACCEPTED INPUT:
//   "1 234,56"   (U+00A0 or U+202F as thousands separator, decimal comma)
//   "1234.56"    (decimal point)
//   "−5"         (U+2212 minus sign)
//   "1.076795E9" (exponent form, as raw spreadsheet cell values)
//   "55%"        (percent variant only; a bare number is already a fraction)
//   ""           (zero)
//
// FAILURE MODES:
//   ErrHeaderRow : the cell holds the column header word, repeated mid-table
//   *ParseError  : anything else outside the grammar (wraps ErrMalformed)
//
// Both are per-row failures. Callers skip the row and keep going.
//
// =============================================================================

package numeric

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultHeaderSentinel is the header word of the baseline column in the
// ministry export. It recurs inside the table at section boundaries.
const DefaultHeaderSentinel = "Määräraha"

var (
	// ErrHeaderRow signals a stray header row.
	ErrHeaderRow = errors.New("stray header row")

	// ErrMalformed signals text outside the numeric grammar.
	ErrMalformed = errors.New("malformed number")
)

var numberPattern = regexp.MustCompile(`^[+-]?\d+(?:[.,]\d+)?(?:[eE][+-]?\d+)?$`)

var separatorReplacer = strings.NewReplacer(
	"\u00a0", "",
	"\u202f", "",
	"\u2212", "-",
)

// ParseError describes a cell that could not be parsed.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed number %q", e.Raw)
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *ParseError) Unwrap() error {
	return ErrMalformed
}

// Normalizer parses amounts and percentages. The zero value has no header
// sentinel; use New for the ministry default.
type Normalizer struct {
	headerSentinel string
}

// New creates a Normalizer that reports cells equal to headerSentinel as
// stray header rows. An empty sentinel disables the check.
func New(headerSentinel string) *Normalizer {
	return &Normalizer{headerSentinel: headerSentinel}
}

// ParseAmount parses a monetary cell.
func (n *Normalizer) ParseAmount(raw string) (decimal.Decimal, error) {
	s, err := n.clean(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "\u20ac"))
	return parse(s, raw)
}

// ParsePercent parses a percentage cell and returns it as a fraction, so
// "55%" becomes 0.55. A cell without the percent sign is a raw spreadsheet
// value and already a fraction: "0.55" stays 0.55. Division is exact.
func (n *Normalizer) ParsePercent(raw string) (decimal.Decimal, error) {
	s, err := n.clean(raw)
	if err != nil {
		return decimal.Zero, err
	}
	trimmed := strings.TrimSuffix(s, "%")
	percentSign := trimmed != s
	s = strings.TrimSpace(trimmed)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := parse(s, raw)
	if err != nil {
		return decimal.Zero, err
	}
	if percentSign {
		return d.Shift(-2), nil
	}
	return d, nil
}

// IsHeaderRow reports whether err marks a stray header row.
func IsHeaderRow(err error) bool {
	return errors.Is(err, ErrHeaderRow)
}

func (n *Normalizer) clean(raw string) (string, error) {
	s := strings.TrimSpace(separatorReplacer.Replace(raw))
	if n.headerSentinel != "" && s == n.headerSentinel {
		return "", ErrHeaderRow
	}
	return s, nil
}

func parse(s, raw string) (decimal.Decimal, error) {
	if !numberPattern.MatchString(s) {
		return decimal.Zero, &ParseError{Raw: raw}
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return decimal.Zero, &ParseError{Raw: raw}
	}
	return d, nil
}
