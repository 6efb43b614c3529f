package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type AssetType string

const (
	AssetTypeEquity AssetType = "equity"
	AssetTypeCrypto AssetType = "crypto"
)

type Instrument struct {
	Symbol         string
	Name           string
	AssetType      AssetType
	FirstTradeDate *time.Time
	MarketCap      decimal.Decimal // zero when unknown
}

func (i Instrument) IsCrypto() bool {
	return i.AssetType == AssetTypeCrypto
}

// Invention dates of the supported crypto-assets. Before these dates the
// asset does not exist at all, which is a harder boundary than "no data".
var (
	BitcoinInventionDate  = time.Date(2009, time.January, 3, 0, 0, 0, 0, time.UTC)
	EthereumInventionDate = time.Date(2015, time.July, 30, 0, 0, 0, 0, time.UTC)

	CryptoInventionDates = map[string]time.Time{
		"BTC-USD": BitcoinInventionDate,
		"ETH-USD": EthereumInventionDate,
	}
)

type Candle struct {
	Date  time.Time       `json:"date"`
	Open  decimal.Decimal `json:"open"`
	Close decimal.Decimal `json:"close"`
}

// PriceSeries is an ordered-by-date daily series for one symbol. It is
// immutable after construction and safe for concurrent reads.
type PriceSeries struct {
	symbol  string
	candles []Candle
	byDate  map[string]int
}

func NewPriceSeries(symbol string, candles []Candle) *PriceSeries {
	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	byDate := make(map[string]int, len(sorted))
	for i, c := range sorted {
		byDate[c.Date.Format("2006-01-02")] = i
	}

	return &PriceSeries{symbol: symbol, candles: sorted, byDate: byDate}
}

func (s *PriceSeries) Symbol() string { return s.symbol }

func (s *PriceSeries) Len() int { return len(s.candles) }

func (s *PriceSeries) Candles() []Candle { return s.candles }

func (s *PriceSeries) At(date time.Time) (Candle, bool) {
	i, ok := s.byDate[date.Format("2006-01-02")]
	if !ok {
		return Candle{}, false
	}
	return s.candles[i], true
}

func (s *PriceSeries) FirstDate() (time.Time, bool) {
	if len(s.candles) == 0 {
		return time.Time{}, false
	}
	return s.candles[0].Date, true
}

// Between returns candles with from <= date <= to.
func (s *PriceSeries) Between(from, to time.Time) []Candle {
	res := make([]Candle, 0)
	for _, c := range s.candles {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		res = append(res, c)
	}
	return res
}
