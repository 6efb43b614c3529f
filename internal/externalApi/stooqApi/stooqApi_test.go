package stooqApi

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStooqSymbol(t *testing.T) {
	assert.Equal(t, "aapl.us", stooqSymbol("AAPL"))
	assert.Equal(t, "brk-b.us", stooqSymbol("BRK-B"))
	assert.Equal(t, "btcusd", stooqSymbol("BTC-USD"))
	assert.Equal(t, "ethusd", stooqSymbol("ETH-USD"))
}

func TestParseCSV(t *testing.T) {
	body := "Date,Open,High,Low,Close,Volume\n" +
		"2020-01-06,150.5,156,149,155.25,1000000\n" +
		"bad-date,1,2,3,4,5\n" +
		"2020-01-07,156,157,154,154.5,900000\n" +
		"2020-01-08,n/a,157,154,154.5,900000\n"

	a := &StooqApi{}
	candles, err := a.parseCSV(body)
	require.NoError(t, err)

	require.Len(t, candles, 2, "malformed rows are skipped")

	assert.Equal(t, time.Date(2020, time.January, 6, 0, 0, 0, 0, time.UTC), candles[0].Date)
	assert.True(t, candles[0].Open.Equal(decimal.RequireFromString("150.5")))
	assert.True(t, candles[0].Close.Equal(decimal.RequireFromString("155.25")))

	assert.Equal(t, time.Date(2020, time.January, 7, 0, 0, 0, 0, time.UTC), candles[1].Date)
}

func TestParseCSV_ShortRows(t *testing.T) {
	body := "Date,Open,High,Low,Close,Volume\n" +
		"2020-01-06,150.5\n"

	a := &StooqApi{}
	candles, err := a.parseCSV(body)
	require.NoError(t, err)
	assert.Empty(t, candles)
}
