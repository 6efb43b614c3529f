package dbConverter

import (
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/model/dbModel"
)

func ConvertInstrument(dbInstrument dbModel.Instrument) model.Instrument {
	instrument := model.Instrument{
		Symbol:    dbInstrument.Symbol,
		Name:      dbInstrument.Name,
		AssetType: model.AssetType(dbInstrument.AssetType),
	}

	if dbInstrument.FirstTradeDate.Valid {
		d := dbInstrument.FirstTradeDate.Time
		instrument.FirstTradeDate = &d
	}

	if dbInstrument.MarketCap.Valid {
		instrument.MarketCap = dbInstrument.MarketCap.Decimal
	}

	return instrument
}

func ConvertInstrumentToDb(instrument model.Instrument) dbModel.Instrument {
	dbInstrument := dbModel.Instrument{
		Symbol:    instrument.Symbol,
		Name:      instrument.Name,
		AssetType: string(instrument.AssetType),
	}

	if instrument.FirstTradeDate != nil {
		dbInstrument.FirstTradeDate.Valid = true
		dbInstrument.FirstTradeDate.Time = *instrument.FirstTradeDate
	}

	if instrument.MarketCap.IsPositive() {
		dbInstrument.MarketCap.Valid = true
		dbInstrument.MarketCap.Decimal = instrument.MarketCap
	}

	return dbInstrument
}

func ConvertCandle(dbCandle dbModel.Candle) model.Candle {
	return model.Candle{
		Date:  dbCandle.Day,
		Open:  dbCandle.Open,
		Close: dbCandle.Close,
	}
}
