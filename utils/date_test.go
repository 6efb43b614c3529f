package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-02-29")
	require.NoError(t, err)
	assert.Equal(t, day(2020, time.February, 29), d)

	_, err = ParseDate("29.02.2020")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("2021-02-29")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAddMonths_ClampsDay(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{name: "plain", from: day(2020, time.January, 15), months: 1, want: day(2020, time.February, 15)},
		{name: "leap february", from: day(2020, time.January, 31), months: 1, want: day(2020, time.February, 29)},
		{name: "short month", from: day(2020, time.March, 31), months: 1, want: day(2020, time.April, 30)},
		{name: "year boundary", from: day(2020, time.December, 31), months: 2, want: day(2021, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.from, tt.months))
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(day(2020, time.January, 1), day(2020, time.January, 31)))
	assert.Equal(t, 2, MonthsBetween(day(2020, time.January, 31), day(2020, time.March, 1)))
	assert.Equal(t, 25, MonthsBetween(day(2018, time.January, 15), day(2020, time.February, 10)))
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(day(2020, time.January, 4)))
	assert.True(t, IsWeekend(day(2020, time.January, 5)))
	assert.False(t, IsWeekend(day(2020, time.January, 6)))
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2020-01", MonthKey(day(2020, time.January, 31)))
	assert.Equal(t, "1999-12", MonthKey(day(1999, time.December, 1)))
}
