package numeric

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	n := New(DefaultHeaderSentinel)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"nbsp grouping with decimal comma", "1\u00a0234,56", "1234.56"},
		{"narrow nbsp grouping", "1\u202f076\u202f795\u202f000", "1076795000"},
		{"empty is zero", "", "0"},
		{"whitespace is zero", "   ", "0"},
		{"unicode minus", "\u22125", "-5"},
		{"ascii minus", "-12,5", "-12.5"},
		{"decimal point", "998883761.00", "998883761"},
		{"plus sign", "+7", "7"},
		{"euro suffix", "1\u00a0000 \u20ac", "1000"},
		{"surrounding space", "  42 ", "42"},
		{"exponent", "1.076795E9", "1076795000"},
		{"lower case exponent", "2,5e3", "2500"},
		{"negative exponent", "5.5300000000000002E-2", "0.055300000000000002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseAmountMalformed(t *testing.T) {
	n := New(DefaultHeaderSentinel)

	for _, raw := range []string{"abc", "1,2,3", "12 34", "1.", ",5", "--1", "1e", "1E+", "e5", "1.5E2.5"} {
		t.Run(raw, func(t *testing.T) {
			_, err := n.ParseAmount(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.False(t, IsHeaderRow(err))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, raw, pe.Raw)
		})
	}
}

func TestParseAmountHeaderSentinel(t *testing.T) {
	n := New(DefaultHeaderSentinel)

	_, err := n.ParseAmount("Määräraha")
	require.Error(t, err)
	assert.True(t, IsHeaderRow(err))
	assert.False(t, errors.Is(err, ErrMalformed))

	_, err = n.ParseAmount(" Määräraha\u00a0")
	assert.True(t, IsHeaderRow(err))
}

func TestParseAmountWithoutSentinel(t *testing.T) {
	var n Normalizer

	_, err := n.ParseAmount("Määräraha")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParsePercent(t *testing.T) {
	n := New(DefaultHeaderSentinel)

	tests := []struct {
		raw  string
		want string
	}{
		{"55%", "0.55"},
		{"55 %", "0.55"},
		{"7,25%", "0.0725"},
		{"\u22123%", "-0.03"},
		{"0.1", "0.1"},
		{"0,0553", "0.0553"},
		{"5.5300000000000002E-2", "0.055300000000000002"},
		{"1", "1"},
		{"", "0"},
		{"%", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := n.ParsePercent(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := n.ParsePercent("x%")
	assert.ErrorIs(t, err, ErrMalformed)
}
