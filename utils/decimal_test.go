package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeShares_TruncatesNotRounds(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "0.12349", want: "0.1234"},
		{in: "0.99999", want: "0.9999"},
		{in: "3.33333333", want: "3.3333"},
		{in: "5", want: "5"},
	}

	for _, tt := range tests {
		got := QuantizeShares(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s -> %s, want %s", tt.in, got, tt.want)
	}
}

func TestQuantizeCash_TruncatesNotRounds(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "9.9999", want: "9.99"},
		{in: "153.3333", want: "153.33"},
		{in: "2299.955", want: "2299.95"},
		{in: "10.00", want: "10"},
	}

	for _, tt := range tests {
		got := QuantizeCash(decimal.RequireFromString(tt.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s -> %s, want %s", tt.in, got, tt.want)
	}
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("  123.45 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("123.45")))

	_, err = ParseDecimal("")
	assert.ErrorIs(t, err, ErrInvalidDecimal)

	_, err = ParseDecimal("12,5")
	assert.ErrorIs(t, err, ErrInvalidDecimal)
}
