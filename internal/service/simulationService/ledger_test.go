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

func TestBuyAveragingAndSellAll(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME",
		candle(t, 2020, time.January, 6, "150", "160"),
		candle(t, 2020, time.January, 7, "170", "171"),
	)
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	// 10 shares at the Monday open.
	tx, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "10")))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionBuy, tx.Kind)
	assert.True(t, tx.Total.Equal(dec(t, "1500")))
	assert.True(t, sim.Cash.Equal(dec(t, "8500")))

	// 5 more at the close; average cost becomes (1500+800)/15 truncated.
	s.AdvanceTick(ctx, sim)
	_, err = s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "5")))
	require.NoError(t, err)

	holding, ok := sim.Holding("ACME")
	require.True(t, ok)
	assert.True(t, holding.Shares.Equal(dec(t, "15")))
	assert.True(t, holding.AvgCost.Equal(dec(t, "153.33")), "avgCost = %s", holding.AvgCost)
	assert.True(t, sim.Cash.Equal(dec(t, "7700")))

	// Liquidate everything at the next open.
	s.AdvanceTick(ctx, sim)
	tx, err = s.SellAll(ctx, sim, "ACME")
	require.NoError(t, err)
	assert.Equal(t, model.TransactionSellAll, tx.Kind)
	assert.True(t, tx.Total.Equal(dec(t, "2550")))
	require.NotNil(t, tx.ProfitLoss)
	assert.True(t, tx.ProfitLoss.Equal(dec(t, "250.05")), "profitLoss = %s", tx.ProfitLoss)

	assert.True(t, sim.Cash.Equal(dec(t, "10250")))
	_, ok = sim.Holding("ACME")
	assert.False(t, ok, "position must be removed after full liquidation")
}

func TestBuy_CashQuantityTruncatesShares(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "3", "3"))
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	tx, err := s.Buy(ctx, sim, "ACME", model.CashQuantity(dec(t, "10")))
	require.NoError(t, err)
	assert.True(t, tx.Shares.Equal(dec(t, "3.3333")), "shares = %s", tx.Shares)
	assert.True(t, tx.Total.Equal(dec(t, "9.99")), "total = %s", tx.Total)
	assert.True(t, sim.Cash.Equal(dec(t, "9990.01")))
}

func TestBuy_SharesTruncatedToStep(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "100", "100"))
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	tx, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "0.12349")))
	require.NoError(t, err)
	assert.True(t, tx.Shares.Equal(dec(t, "0.1234")), "shares = %s", tx.Shares)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "150", "150"))
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "100.00")

	_, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "10")))
	assert.ErrorIs(t, err, service.ErrInsufficientFunds)
	assert.True(t, sim.Cash.Equal(dec(t, "100.00")), "failed buy must not touch cash")
	assert.Empty(t, sim.Transactions)
}

func TestBuy_ZeroQuantity(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "150", "150"))
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	_, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "0")))
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)

	// A cash amount too small to afford one share step truncates to zero.
	_, err = s.Buy(ctx, sim, "ACME", model.CashQuantity(dec(t, "0.01")))
	assert.ErrorIs(t, err, service.ErrInvalidQuantity)
}

func TestBuy_WeekendClosedForEquities(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 3, "150", "150"))
	catalog.addCrypto("BTC-USD", candle(t, 2020, time.January, 4, "8000", "8000"))
	catalog.firstDates["BTC-USD"] = date(2020, time.January, 1)
	s := newTestService(catalog)

	// Saturday.
	sim := newSimAt(t, 2020, time.January, 4, "10000.00")

	_, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "1")))
	assert.ErrorIs(t, err, service.ErrMarketClosed)

	_, err = s.Buy(ctx, sim, "BTC-USD", model.SharesQuantity(dec(t, "0.1")))
	assert.NoError(t, err, "crypto trades on weekends")
}

func TestBuy_MarketCapGuard(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "100", "100"))
	catalog.marketCaps["ACME"] = dec(t, "1000")
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	// Position value equal to the cap is already rejected.
	_, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "10")))
	assert.ErrorIs(t, err, service.ErrMarketCapExceeded)

	_, err = s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "9")))
	assert.NoError(t, err)

	// The guard applies to the accumulated position, not just one order.
	_, err = s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "1")))
	assert.ErrorIs(t, err, service.ErrMarketCapExceeded)
}

func TestSell_Partial(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "100", "110"))
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	_, err := s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "10")))
	require.NoError(t, err)

	s.AdvanceTick(ctx, sim)
	tx, err := s.Sell(ctx, sim, "ACME", model.SharesQuantity(dec(t, "4")))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionSell, tx.Kind)
	assert.True(t, tx.Total.Equal(dec(t, "440")))
	require.NotNil(t, tx.ProfitLoss)
	assert.True(t, tx.ProfitLoss.Equal(dec(t, "40")), "profitLoss = %s", tx.ProfitLoss)

	holding, ok := sim.Holding("ACME")
	require.True(t, ok)
	assert.True(t, holding.Shares.Equal(dec(t, "6")))
	assert.True(t, holding.AvgCost.Equal(dec(t, "100")), "partial sale keeps the average cost")
}

func TestSell_MoreThanHeld(t *testing.T) {
	ctx := context.Background()
	catalog := newFakeCatalog()
	catalog.addEquity("ACME", candle(t, 2020, time.January, 6, "100", "100"))
	s := newTestService(catalog)

	sim := newSimAt(t, 2020, time.January, 6, "10000.00")

	_, err := s.Sell(ctx, sim, "ACME", model.SharesQuantity(dec(t, "1")))
	assert.ErrorIs(t, err, service.ErrInsufficientShares)

	_, err = s.Buy(ctx, sim, "ACME", model.SharesQuantity(dec(t, "5")))
	require.NoError(t, err)

	_, err = s.Sell(ctx, sim, "ACME", model.SharesQuantity(dec(t, "6")))
	assert.ErrorIs(t, err, service.ErrInsufficientShares)
}
