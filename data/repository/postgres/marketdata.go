package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/timetrader/market_replay_bot/data/repository"
	"github.com/timetrader/market_replay_bot/internal/converter/dbConverter"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/model/dbModel"
	"github.com/timetrader/market_replay_bot/utils"
)

func (r *Postgres) GetInstrument(ctx context.Context, symbol string) (instrument model.Instrument, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT symbol, name, asset_type, first_trade_date, market_cap
		FROM instruments
		WHERE symbol = $1
		`

	slog.Debug("GetInstrument start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetInstrument failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetInstrument completed", slog.String("rqID", rqID))
		}
	}()

	dbInstrument := dbModel.Instrument{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, symbol).StructScan(&dbInstrument)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Instrument{}, repository.ErrNotFound
		}
		return model.Instrument{}, err
	}

	return dbConverter.ConvertInstrument(dbInstrument), nil
}

func (r *Postgres) GetInstruments(ctx context.Context) (instruments []model.Instrument, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT symbol, name, asset_type, first_trade_date, market_cap
		FROM instruments
		ORDER BY symbol
		`

	slog.Debug("GetInstruments start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetInstruments failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetInstruments completed", slog.String("rqID", rqID))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbInstrument dbModel.Instrument
		err = rows.StructScan(&dbInstrument)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, dbConverter.ConvertInstrument(dbInstrument))
	}

	return instruments, nil
}

func (r *Postgres) GetCandles(ctx context.Context, symbol string) (candles []model.Candle, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT symbol, day, open, close
		FROM daily_prices
		WHERE symbol = $1
		ORDER BY day
		`

	slog.Debug("GetCandles start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetCandles failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetCandles completed", slog.String("rqID", rqID), slog.Int("count", len(candles)))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query, symbol)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var dbCandle dbModel.Candle
		err = rows.StructScan(&dbCandle)
		if err != nil {
			return nil, err
		}
		candles = append(candles, dbConverter.ConvertCandle(dbCandle))
	}

	if len(candles) == 0 {
		return nil, repository.ErrNotFound
	}

	return candles, nil
}

func (r *Postgres) InsertCandles(ctx context.Context, symbol string, candles []model.Candle) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO daily_prices(symbol, day, open, close)
		VALUES (:symbol, :day, :open, :close)
		ON CONFLICT (symbol, day) DO NOTHING
		`

	slog.Debug("InsertCandles start", slog.String("rqID", rqID), slog.String("query", query), slog.Int("count", len(candles)))
	defer func() {
		if err != nil {
			slog.Error("InsertCandles failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertCandles completed", slog.String("rqID", rqID))
		}
	}()

	dbCandles := make([]dbModel.Candle, 0, len(candles))
	for _, c := range candles {
		dbCandles = append(dbCandles, dbModel.Candle{Symbol: symbol, Day: c.Date, Open: c.Open, Close: c.Close})
	}

	_, err = r.txOrDb(ctx).NamedExecContext(ctx, query, dbCandles)
	if err != nil {
		return err
	}

	return nil
}

// InsertInstrument registers a newly discovered symbol. Existing rows are
// kept untouched so operator-maintained names and market caps survive.
func (r *Postgres) InsertInstrument(ctx context.Context, instrument model.Instrument) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		INSERT INTO instruments(symbol, name, asset_type, first_trade_date, market_cap)
		VALUES (:symbol, :name, :asset_type, :first_trade_date, :market_cap)
		ON CONFLICT (symbol) DO NOTHING
		`

	slog.Debug("InsertInstrument start", slog.String("rqID", rqID), slog.String("query", query), slog.String("symbol", instrument.Symbol))
	defer func() {
		if err != nil {
			slog.Error("InsertInstrument failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertInstrument completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).NamedExecContext(ctx, query, dbConverter.ConvertInstrumentToDb(instrument))
	if err != nil {
		return err
	}

	return nil
}
