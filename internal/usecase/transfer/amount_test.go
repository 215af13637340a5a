package transfer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMatchesAmountPattern(t *testing.T) {
	for _, s := range []string{"", "1", "1.", ".5", "1.234", "0.001", "100"} {
		assert.True(t, MatchesAmountPattern(s), s)
	}
	for _, s := range []string{"10.1234", "1,5", "-1", "1.2.3", "abc", "1e3", " 1"} {
		assert.False(t, MatchesAmountPattern(s), s)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2.5", "2.5", true},
		{".5", "0.5", true},
		{"3.", "3", true},
		{"", "0", false},
		{".", "0", false},
		{"abc", "0", false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s parsed as %s", tt.in, got)
	}
}

func TestFixAmount(t *testing.T) {
	assert.Equal(t, "2.500", FixAmount(decimal.RequireFromString("2.5")))
	assert.Equal(t, "0.000", FixAmount(decimal.Zero))
	assert.Equal(t, "10.000", FixAmount(decimal.RequireFromString("10")))
}
