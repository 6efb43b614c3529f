package dbModel

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Instrument struct {
	Symbol         string              `db:"symbol"`
	Name           string              `db:"name"`
	AssetType      string              `db:"asset_type"`
	FirstTradeDate sql.NullTime        `db:"first_trade_date"`
	MarketCap      decimal.NullDecimal `db:"market_cap"`
}

type Candle struct {
	Symbol string          `db:"symbol"`
	Day    time.Time       `db:"day"`
	Open   decimal.Decimal `db:"open"`
	Close  decimal.Decimal `db:"close"`
}
