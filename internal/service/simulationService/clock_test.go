package simulationService

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
)

func TestAdvanceTick(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())
	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	s.AdvanceTick(ctx, sim)
	assert.Equal(t, date(2020, time.January, 6), sim.CurrentDate)
	assert.Equal(t, model.TimeOfDayClose, sim.TimeOfDay)

	s.AdvanceTick(ctx, sim)
	assert.Equal(t, date(2020, time.January, 7), sim.CurrentDate)
	assert.Equal(t, model.TimeOfDayOpen, sim.TimeOfDay)

	// Initial snapshot plus one per tick.
	assert.Len(t, sim.History, 3)
}

func TestAdvanceByMonths_SnapshotsEveryMonth(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())
	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	s.AdvanceByMonths(ctx, sim, 3)

	assert.Equal(t, date(2020, time.April, 6), sim.CurrentDate)
	assert.Equal(t, model.TimeOfDayOpen, sim.TimeOfDay)

	require.Len(t, sim.History, 4)
	assert.Equal(t, date(2020, time.February, 6), sim.History[1].Date)
	assert.Equal(t, date(2020, time.March, 6), sim.History[2].Date)
	assert.Equal(t, date(2020, time.April, 6), sim.History[3].Date)
}

func TestAdvanceByMonths_ClampsDayOfMonth(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())
	sim := newSimAt(t, 2020, time.January, 31, "10000.00")

	s.AdvanceByMonths(ctx, sim, 1)

	assert.Equal(t, date(2020, time.February, 29), sim.CurrentDate)
}

func TestSkipWeekend(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())

	// Saturday jumps two days, Sunday one, a weekday stays put.
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{name: "saturday", from: date(2020, time.January, 4), want: date(2020, time.January, 6)},
		{name: "sunday", from: date(2020, time.January, 5), want: date(2020, time.January, 6)},
		{name: "weekday", from: date(2020, time.January, 7), want: date(2020, time.January, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := model.NewSimulation(tt.from, dec(t, "10000.00"))
			s.SkipWeekend(ctx, sim)
			assert.Equal(t, tt.want, sim.CurrentDate)
		})
	}
}

func TestJumpToDate_Forward(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())
	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	err := s.JumpToDate(ctx, sim, date(2020, time.March, 20))
	require.NoError(t, err)

	assert.Equal(t, date(2020, time.March, 20), sim.CurrentDate)
	assert.Equal(t, model.TimeOfDayOpen, sim.TimeOfDay)

	// Initial snapshot, one per crossed month boundary, one at the target.
	require.Len(t, sim.History, 4)
	assert.Equal(t, date(2020, time.February, 6), sim.History[1].Date)
	assert.Equal(t, date(2020, time.March, 6), sim.History[2].Date)
	assert.Equal(t, date(2020, time.March, 20), sim.History[3].Date)
}

func TestJumpToDate_Backward(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())
	sim := newSimAt(t, 2020, time.March, 20, "10000.00")
	sim.TimeOfDay = model.TimeOfDayClose

	err := s.JumpToDate(ctx, sim, date(2020, time.March, 19))
	assert.ErrorIs(t, err, service.ErrBackwardJump)

	// A rejected jump changes nothing.
	assert.Equal(t, date(2020, time.March, 20), sim.CurrentDate)
	assert.Equal(t, model.TimeOfDayClose, sim.TimeOfDay)
	assert.Len(t, sim.History, 1)
}

func TestJumpToDate_SameDate(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeCatalog())
	sim := newSimAt(t, 2020, time.March, 20, "10000.00")

	err := s.JumpToDate(ctx, sim, date(2020, time.March, 20))
	require.NoError(t, err)
	assert.Equal(t, date(2020, time.March, 20), sim.CurrentDate)
}
