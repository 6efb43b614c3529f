package simulationService

import (
	"context"
	"fmt"
	"sort"

	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/utils"
)

// Aggregation fidelity thresholds, in months of total simulated span.
const (
	monthlySpanLimit   = 24  // up to two years stays monthly
	quarterlySpanLimit = 120 // up to ten years becomes quarterly, beyond semi-annual
)

// AggregatedHistory turns the raw snapshot sequence into a chart-ready
// series: one point per month, re-bucketed to quarters or half-years when
// the simulated span grows, gap-filled so the line never breaks, and ending
// in the live current value.
func (s *SimulationService) AggregatedHistory(ctx context.Context, sim *model.Simulation) []model.ChartPoint {
	points := aggregateSnapshots(sim.History)

	current := model.ChartPoint{
		Date:  sim.CurrentDate,
		Value: s.portfolioValue(ctx, sim),
	}

	points = fillToCurrent(points, current)

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return points
}

// aggregateSnapshots reduces snapshots to at most one point per bucket,
// keeping the latest-dated entry (later writes win on ties).
func aggregateSnapshots(history []model.Snapshot) []model.ChartPoint {
	if len(history) == 0 {
		return nil
	}

	monthly := make(map[string]model.ChartPoint)
	for _, snap := range history {
		key := utils.MonthKey(snap.Date)
		if existing, ok := monthly[key]; ok && snap.Date.Before(existing.Date) {
			continue
		}
		monthly[key] = model.ChartPoint{Date: snap.Date, Value: snap.Value}
	}

	points := make([]model.ChartPoint, 0, len(monthly))
	for _, p := range monthly {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	width := bucketWidth(utils.MonthsBetween(points[0].Date, points[len(points)-1].Date))
	if width == 1 {
		return points
	}

	buckets := make(map[string]model.ChartPoint)
	for _, p := range points {
		key := fmt.Sprintf("%d-%d", p.Date.Year(), (int(p.Date.Month())-1)/width)
		if existing, ok := buckets[key]; ok && p.Date.Before(existing.Date) {
			continue
		}
		buckets[key] = p
	}

	rebucketed := make([]model.ChartPoint, 0, len(buckets))
	for _, p := range buckets {
		rebucketed = append(rebucketed, p)
	}
	sort.Slice(rebucketed, func(i, j int) bool { return rebucketed[i].Date.Before(rebucketed[j].Date) })

	return rebucketed
}

func bucketWidth(monthsDiff int) int {
	switch {
	case monthsDiff <= monthlySpanLimit:
		return 1
	case monthsDiff <= quarterlySpanLimit:
		return 3
	default:
		return 6
	}
}

// fillToCurrent stitches the aggregated points to the live value: the
// current month's bucket is overwritten with the live point, and any months
// with no snapshot in between get a flat carried-forward point so the chart
// shows no artificial gap.
func fillToCurrent(points []model.ChartPoint, current model.ChartPoint) []model.ChartPoint {
	if len(points) == 0 {
		return []model.ChartPoint{current}
	}

	currentKey := utils.MonthKey(current.Date)
	last := points[len(points)-1]

	if utils.MonthKey(last.Date) == currentKey {
		points[len(points)-1] = current
		return points
	}

	lastValue := last.Value
	cursor := utils.AddMonths(last.Date, 1)
	for utils.MonthKey(cursor) != currentKey {
		points = append(points, model.ChartPoint{Date: cursor, Value: lastValue})
		cursor = utils.AddMonths(cursor, 1)
	}

	return append(points, current)
}

// SymbolHistory produces the monthly close series of one symbol from the
// series start up to the simulated date, for charting in the symbol view.
func (s *SimulationService) SymbolHistory(ctx context.Context, sim *model.Simulation, symbol string) ([]model.ChartPoint, error) {
	series, err := s.catalog.LoadSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}

	from, err := utils.ParseDate(s.cfg.Simulation.SeriesStart)
	if err != nil {
		return nil, err
	}

	monthly := make(map[string]model.ChartPoint)
	for _, candle := range series.Between(from, sim.CurrentDate) {
		key := utils.MonthKey(candle.Date)
		if existing, ok := monthly[key]; ok && candle.Date.Before(existing.Date) {
			continue
		}
		monthly[key] = model.ChartPoint{Date: candle.Date, Value: candle.Close}
	}

	points := make([]model.ChartPoint, 0, len(monthly))
	for _, p := range monthly {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return points, nil
}
