package simulationService

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
)

type fakeCatalog struct {
	series      map[string]*model.PriceSeries
	instruments map[string]model.Instrument
	firstDates  map[string]time.Time
	marketCaps  map[string]decimal.Decimal
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		series:      make(map[string]*model.PriceSeries),
		instruments: make(map[string]model.Instrument),
		firstDates:  make(map[string]time.Time),
		marketCaps:  make(map[string]decimal.Decimal),
	}
}

func (c *fakeCatalog) LoadSeries(_ context.Context, symbol string) (*model.PriceSeries, error) {
	s, ok := c.series[symbol]
	if !ok {
		return nil, service.ErrUnknownSymbol
	}
	return s, nil
}

func (c *fakeCatalog) Metadata(_ context.Context, symbol string) (model.Instrument, error) {
	i, ok := c.instruments[symbol]
	if !ok {
		return model.Instrument{}, service.ErrUnknownSymbol
	}
	return i, nil
}

func (c *fakeCatalog) FirstAvailableDate(_ context.Context, symbol string) *time.Time {
	d, ok := c.firstDates[symbol]
	if !ok {
		return nil
	}
	return &d
}

func (c *fakeCatalog) LatestMarketCap(_ context.Context, symbol string) decimal.Decimal {
	return c.marketCaps[symbol]
}

func (c *fakeCatalog) ListInstruments(_ context.Context) ([]model.Instrument, error) {
	instruments := make([]model.Instrument, 0, len(c.instruments))
	for _, i := range c.instruments {
		instruments = append(instruments, i)
	}
	return instruments, nil
}

func (c *fakeCatalog) addEquity(symbol string, candles ...model.Candle) {
	c.instruments[symbol] = model.Instrument{Symbol: symbol, Name: symbol + " Inc.", AssetType: model.AssetTypeEquity}
	c.series[symbol] = model.NewPriceSeries(symbol, candles)
}

func (c *fakeCatalog) addCrypto(symbol string, candles ...model.Candle) {
	c.instruments[symbol] = model.Instrument{Symbol: symbol, Name: symbol, AssetType: model.AssetTypeCrypto}
	c.series[symbol] = model.NewPriceSeries(symbol, candles)
}

func testConfig() *config.Config {
	return &config.Config{
		Simulation: config.Simulation{
			StartDate:          "2000-01-03",
			StartCash:          "10000.00",
			SeriesStart:        "2000-01-03",
			SeriesEnd:          "2025-10-31",
			RecentTransactions: 20,
		},
	}
}

func newTestService(catalog Catalog) *SimulationService {
	return New(testConfig(), catalog, nil, nil)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func candle(t *testing.T, year int, month time.Month, day int, open, close string) model.Candle {
	t.Helper()
	return model.Candle{Date: date(year, month, day), Open: dec(t, open), Close: dec(t, close)}
}

func newSimAt(t *testing.T, year int, month time.Month, day int, cash string) *model.Simulation {
	t.Helper()
	return model.NewSimulation(date(year, month, day), dec(t, cash))
}
