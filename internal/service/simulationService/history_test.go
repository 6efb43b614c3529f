package simulationService

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timetrader/market_replay_bot/internal/model"
)

func snapshot(t *testing.T, year int, month time.Month, day int, value string) model.Snapshot {
	t.Helper()
	return model.Snapshot{Date: date(year, month, day), TimeOfDay: model.TimeOfDayOpen, Value: dec(t, value)}
}

func TestBucketWidth(t *testing.T) {
	tests := []struct {
		months int
		want   int
	}{
		{months: 0, want: 1},
		{months: 24, want: 1},
		{months: 25, want: 3},
		{months: 120, want: 3},
		{months: 121, want: 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, bucketWidth(tt.months), "months = %d", tt.months)
	}
}

func TestAggregatedHistory_MonthlyWithinTwoYears(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())

	sim := newSimAt(t, 2020, time.March, 16, "9500.00")
	sim.History = []model.Snapshot{
		snapshot(t, 2020, time.January, 3, "10000.00"),
		snapshot(t, 2020, time.January, 20, "10100.00"), // later date wins within the month
		snapshot(t, 2020, time.February, 10, "9900.00"),
		snapshot(t, 2020, time.March, 2, "9700.00"),
	}

	points := s.AggregatedHistory(ctx, sim)

	require.Len(t, points, 3)
	assert.Equal(t, date(2020, time.January, 20), points[0].Date)
	assert.True(t, points[0].Value.Equal(dec(t, "10100.00")))
	assert.Equal(t, date(2020, time.February, 10), points[1].Date)

	// The current month's point is the live value, not the stale snapshot.
	assert.Equal(t, date(2020, time.March, 16), points[2].Date)
	assert.True(t, points[2].Value.Equal(dec(t, "9500.00")))
}

func TestAggregatedHistory_GapFill(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())

	sim := newSimAt(t, 2020, time.April, 15, "10000.00")
	sim.History = []model.Snapshot{
		snapshot(t, 2020, time.January, 3, "12000.00"),
	}

	points := s.AggregatedHistory(ctx, sim)

	require.Len(t, points, 4)

	// February and March carry January's value forward.
	assert.True(t, points[1].Value.Equal(dec(t, "12000.00")))
	assert.Equal(t, "2020-02", points[1].Date.Format("2006-01"))
	assert.True(t, points[2].Value.Equal(dec(t, "12000.00")))
	assert.Equal(t, "2020-03", points[2].Date.Format("2006-01"))

	assert.Equal(t, date(2020, time.April, 15), points[3].Date)
	assert.True(t, points[3].Value.Equal(dec(t, "10000.00")))
}

func TestAggregatedHistory_RebucketsToQuarters(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())

	// Monthly snapshots over a span beyond two years force quarterly buckets.
	sim := newSimAt(t, 2020, time.April, 10, "10000.00")
	var history []model.Snapshot
	cursor := date(2017, time.December, 15)
	for !cursor.After(sim.CurrentDate) {
		history = append(history, model.Snapshot{Date: cursor, TimeOfDay: model.TimeOfDayOpen, Value: dec(t, "10000.00")})
		cursor = cursor.AddDate(0, 1, 0)
	}
	sim.History = history

	points := s.AggregatedHistory(ctx, sim)

	// Q4'17, four quarters of 2018 and 2019 each, Q1'20, plus the live point.
	require.Len(t, points, 11)
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Date, points[i].Date
		assert.True(t, prev.Before(cur), "points must be sorted")
		if prev.Year() == cur.Year() {
			assert.NotEqual(t, (int(prev.Month())-1)/3, (int(cur.Month())-1)/3, "no two points in one quarter")
		}
	}
	assert.Equal(t, date(2020, time.April, 10), points[len(points)-1].Date)
}

func TestAggregatedHistory_EmptyHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")
	sim.History = nil

	points := s.AggregatedHistory(ctx, sim)

	require.Len(t, points, 1)
	assert.Equal(t, date(2020, time.January, 6), points[0].Date)
	assert.True(t, points[0].Value.Equal(dec(t, "10000.00")))
}

func TestSymbolHistory_MonthlyCloses(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME",
		candle(t, 2020, time.January, 6, "100", "101"),
		candle(t, 2020, time.January, 20, "102", "103"),
		candle(t, 2020, time.February, 3, "104", "105"),
		candle(t, 2020, time.March, 2, "106", "107"), // beyond the simulated date
	)
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.February, 15, "10000.00")

	points, err := s.SymbolHistory(ctx, sim, "ACME")
	require.NoError(t, err)

	require.Len(t, points, 2)
	assert.Equal(t, date(2020, time.January, 20), points[0].Date)
	assert.True(t, points[0].Value.Equal(dec(t, "103")))
	assert.Equal(t, date(2020, time.February, 3), points[1].Date)
	assert.True(t, points[1].Value.Equal(dec(t, "105")))
}
