package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Address
	}{
		{"30.02.01", Address{Chapter: "30", Category: "02", Item: "01"}},
		{"30.02", Address{Chapter: "30", Category: "02"}},
		{"30", Address{Chapter: "30"}},
		{"", Address{}},
		{"30.lib.60", Address{Chapter: "30", Category: "lib", Item: "60", AlternativeAddition: true}},
		{"12 lib", Address{Chapter: "12", Category: "lib", AlternativeAddition: true}},
		{"28.90.lib", Address{Chapter: "28", Category: "90", Item: "lib", AlternativeAddition: true}},
		{"30.02.01.99", Address{Chapter: "30", Category: "02", Item: "01"}},
		{" 24.01 ", Address{Chapter: "24", Category: "01"}},
		{"24.LIB", Address{Chapter: "24", Category: "LIB"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	for _, in := range []string{"30.02.01", "30.02", "30", "01.001.0001", "7.x.y"} {
		t.Run(in, func(t *testing.T) {
			a := Parse(in)
			assert.False(t, a.AlternativeAddition)
			assert.Equal(t, in, a.Join())
		})
	}
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 3, Parse("30.02.01").Depth())
	assert.Equal(t, 2, Parse("30.02").Depth())
	assert.Equal(t, 1, Parse("30").Depth())
	assert.Equal(t, 0, Parse("").Depth())
	assert.Equal(t, 1, Parse("30..01").Depth())
}
