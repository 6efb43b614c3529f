package simulationService

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
)

const (
	// maxProbeAttempts bounds the neighbouring-day search so a long gap in
	// the data can't turn one lookup into an unbounded scan.
	maxProbeAttempts = 10

	// maxDaysBeforeSeries is the existence heuristic when no first-trade
	// date is known: a request this far before the earliest cached candle
	// means the instrument didn't exist yet.
	maxDaysBeforeSeries = 30
)

// Price resolves the traded price of symbol at a simulated (date, time of
// day). Equities probe backward to the most recent session because they
// don't trade on weekends and holidays; crypto-assets trade every day and
// probe forward.
func (s *SimulationService) Price(ctx context.Context, symbol string, date time.Time, timeOfDay model.TimeOfDay) (decimal.Decimal, error) {
	series, err := s.catalog.LoadSeries(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if firstTrade := s.catalog.FirstAvailableDate(ctx, symbol); firstTrade != nil {
		if date.Before(*firstTrade) {
			return decimal.Decimal{}, service.ErrPriceUnavailable
		}
	} else if first, ok := series.FirstDate(); ok {
		if first.Sub(date).Hours() > 24*maxDaysBeforeSeries {
			return decimal.Decimal{}, service.ErrPriceUnavailable
		}
	}

	searchForward := false
	if instrument, err := s.catalog.Metadata(ctx, symbol); err == nil {
		searchForward = instrument.IsCrypto()
	}

	cursor := date
	var candle model.Candle
	for attempts := 0; ; {
		var ok bool
		candle, ok = series.At(cursor)
		if ok {
			break
		}

		attempts++
		if attempts >= maxProbeAttempts {
			return decimal.Decimal{}, service.ErrPriceUnavailable
		}

		if searchForward {
			cursor = cursor.AddDate(0, 0, 1)
		} else {
			cursor = cursor.AddDate(0, 0, -1)
		}
	}

	if timeOfDay == model.TimeOfDayOpen {
		return candle.Open, nil
	}
	return candle.Close, nil
}

// PriceChange reports the move against the most recent prior close. ok is
// false when the current price itself is unavailable or zero; an exhausted
// backward probe (or a zero prior close) yields a flat (0, 0) change.
func (s *SimulationService) PriceChange(ctx context.Context, symbol string, date time.Time, timeOfDay model.TimeOfDay) (model.PriceChange, bool) {
	current, err := s.Price(ctx, symbol, date, timeOfDay)
	if err != nil || current.IsZero() {
		return model.PriceChange{}, false
	}

	series, err := s.catalog.LoadSeries(ctx, symbol)
	if err != nil {
		return model.PriceChange{}, false
	}

	prevDate := date.AddDate(0, 0, -1)
	for attempts := 0; attempts < maxProbeAttempts; attempts++ {
		if candle, ok := series.At(prevDate); ok {
			if candle.Close.IsZero() {
				return model.PriceChange{}, true
			}

			delta := current.Sub(candle.Close)
			return model.PriceChange{
				Delta:   delta,
				Percent: delta.Div(candle.Close).Mul(decimal.NewFromInt(100)),
			}, true
		}
		prevDate = prevDate.AddDate(0, 0, -1)
	}

	return model.PriceChange{}, true
}
