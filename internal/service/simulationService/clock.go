package simulationService

import (
	"context"
	"log/slog"
	"time"

	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
	"github.com/timetrader/market_replay_bot/utils"
)

// AdvanceTick moves open -> close on the same day, or close -> next day's
// open, and snapshots the revalued portfolio.
func (s *SimulationService) AdvanceTick(ctx context.Context, sim *model.Simulation) {
	if sim.TimeOfDay == model.TimeOfDayOpen {
		sim.TimeOfDay = model.TimeOfDayClose
	} else {
		sim.CurrentDate = sim.CurrentDate.AddDate(0, 0, 1)
		sim.TimeOfDay = model.TimeOfDayOpen
	}

	s.appendSnapshot(ctx, sim)
}

// AdvanceByDays steps one day at a time, snapshotting after each step so the
// history keeps one point per crossed day, not just the endpoint.
func (s *SimulationService) AdvanceByDays(ctx context.Context, sim *model.Simulation, days int) {
	for i := 0; i < days; i++ {
		sim.CurrentDate = sim.CurrentDate.AddDate(0, 0, 1)
		sim.TimeOfDay = model.TimeOfDayOpen
		s.appendSnapshot(ctx, sim)
	}
}

// AdvanceByMonths steps one calendar month at a time with the day-of-month
// clamped to the target month's length.
func (s *SimulationService) AdvanceByMonths(ctx context.Context, sim *model.Simulation, months int) {
	for i := 0; i < months; i++ {
		sim.CurrentDate = utils.AddMonths(sim.CurrentDate, 1)
		sim.TimeOfDay = model.TimeOfDayOpen
		s.appendSnapshot(ctx, sim)
	}
}

func (s *SimulationService) AdvanceByYears(ctx context.Context, sim *model.Simulation, years int) {
	s.AdvanceByMonths(ctx, sim, years*12)
}

// SkipWeekend advances to the next Monday. A weekday is a no-op.
func (s *SimulationService) SkipWeekend(ctx context.Context, sim *model.Simulation) {
	var days int
	switch sim.CurrentDate.Weekday() {
	case time.Saturday:
		days = 2
	case time.Sunday:
		days = 1
	default:
		return
	}

	s.AdvanceByDays(ctx, sim, days)
}

// JumpToDate fast-forwards to an absolute target. The timeline is forward
// only: a target before the current date fails with ErrBackwardJump and
// changes nothing. The walk snapshots at every crossed month boundary so the
// aggregated history stays continuous.
func (s *SimulationService) JumpToDate(ctx context.Context, sim *model.Simulation, target time.Time) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SimulationService.JumpToDate"

	if target.Before(sim.CurrentDate) {
		return service.ErrBackwardJump
	}

	slog.Debug(
		"JumpToDate start",
		slog.String("rqID", rqID),
		slog.String("op", op),
		slog.String("from", utils.FormatDate(sim.CurrentDate)),
		slog.String("to", utils.FormatDate(target)),
	)

	cursor := sim.CurrentDate
	for cursor.Before(target) {
		cursor = utils.AddMonths(cursor, 1)
		if cursor.After(target) {
			break
		}
		sim.CurrentDate = cursor
		sim.TimeOfDay = model.TimeOfDayOpen
		s.appendSnapshot(ctx, sim)
	}

	sim.CurrentDate = target
	sim.TimeOfDay = model.TimeOfDayOpen
	s.appendSnapshot(ctx, sim)

	return nil
}
