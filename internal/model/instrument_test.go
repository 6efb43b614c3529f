package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSeries_SortsAndIndexes(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2020, time.January, day, 0, 0, 0, 0, time.UTC) }

	series := NewPriceSeries("ACME", []Candle{
		{Date: d(8), Open: decimal.NewFromInt(3), Close: decimal.NewFromInt(4)},
		{Date: d(6), Open: decimal.NewFromInt(1), Close: decimal.NewFromInt(2)},
		{Date: d(7), Open: decimal.NewFromInt(2), Close: decimal.NewFromInt(3)},
	})

	require.Equal(t, 3, series.Len())

	first, ok := series.FirstDate()
	require.True(t, ok)
	assert.Equal(t, d(6), first)

	candle, ok := series.At(d(7))
	require.True(t, ok)
	assert.True(t, candle.Close.Equal(decimal.NewFromInt(3)))

	_, ok = series.At(d(9))
	assert.False(t, ok)

	between := series.Between(d(7), d(8))
	require.Len(t, between, 2)
	assert.Equal(t, d(7), between[0].Date)
	assert.Equal(t, d(8), between[1].Date)
}

func TestSimulation_PinUnpin(t *testing.T) {
	sim := NewSimulation(time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(10000))

	sim.Pin("AAPL")
	sim.Pin("AAPL")
	sim.Pin("MSFT")
	assert.Equal(t, []string{"AAPL", "MSFT"}, sim.Pinned)
	assert.True(t, sim.IsPinned("AAPL"))

	sim.Unpin("AAPL")
	assert.Equal(t, []string{"MSFT"}, sim.Pinned)
	assert.False(t, sim.IsPinned("AAPL"))

	sim.Unpin("AAPL") // unpinning twice is a no-op
	assert.Equal(t, []string{"MSFT"}, sim.Pinned)
}
