package simulationService

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/utils"
)

// PortfolioOverview assembles everything the dashboard renders: positions
// revalued at the simulated tick, the recent transaction window, pinned
// watchlist quotes and the crypto board.
func (s *SimulationService) PortfolioOverview(ctx context.Context, sim *model.Simulation) model.PortfolioOverview {
	overview := model.PortfolioOverview{
		Date:      sim.CurrentDate,
		TimeOfDay: sim.TimeOfDay,
		IsWeekend: utils.IsWeekend(sim.CurrentDate),
		Cash:      sim.Cash,
	}

	symbols := make([]string, 0, len(sim.Holdings))
	for symbol := range sim.Holdings {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	totalPositions := decimal.Decimal{}
	for _, symbol := range symbols {
		holding := sim.Holdings[symbol]
		if !holding.Shares.IsPositive() {
			continue
		}

		price, err := s.Price(ctx, symbol, sim.CurrentDate, sim.TimeOfDay)
		if err != nil {
			continue
		}

		position := model.PositionView{
			Symbol:        symbol,
			Shares:        holding.Shares,
			AvgCost:       holding.AvgCost,
			Price:         price,
			PositionValue: holding.Shares.Mul(price),
		}

		if change, ok := s.PriceChange(ctx, symbol, sim.CurrentDate, sim.TimeOfDay); ok {
			position.Change = &change
		}

		if holding.AvgCost.IsPositive() {
			totalCost := holding.AvgCost.Mul(holding.Shares)
			position.GainLoss = position.PositionValue.Sub(totalCost)
			position.GainLossPercent = position.GainLoss.Div(totalCost).Mul(decimal.NewFromInt(100))
		}

		totalPositions = totalPositions.Add(position.PositionValue)
		overview.Positions = append(overview.Positions, position)
	}

	overview.TotalValue = sim.Cash.Add(totalPositions)
	overview.Transactions = recentTransactions(sim.Transactions, s.cfg.Simulation.RecentTransactions)
	overview.Pinned = s.pinnedQuotes(ctx, sim)
	overview.Cryptos = s.cryptoQuotes(ctx, sim)

	return overview
}

// recentTransactions returns the newest n entries, most recent first. The
// underlying log is never reordered.
func recentTransactions(transactions []model.Transaction, n int) []model.Transaction {
	if n <= 0 || len(transactions) == 0 {
		return nil
	}

	start := len(transactions) - n
	if start < 0 {
		start = 0
	}

	recent := make([]model.Transaction, 0, len(transactions)-start)
	for i := len(transactions) - 1; i >= start; i-- {
		recent = append(recent, transactions[i])
	}
	return recent
}

func (s *SimulationService) pinnedQuotes(ctx context.Context, sim *model.Simulation) []model.Quote {
	quotes := make([]model.Quote, 0, len(sim.Pinned))
	for _, symbol := range sim.Pinned {
		instrument, err := s.catalog.Metadata(ctx, symbol)
		if err != nil {
			instrument = model.Instrument{Symbol: symbol, Name: symbol}
		}
		quotes = append(quotes, s.quote(ctx, sim, instrument))
	}
	return quotes
}

// cryptoQuotes lists the crypto-assets invented by the simulated date that
// have a resolvable price.
func (s *SimulationService) cryptoQuotes(ctx context.Context, sim *model.Simulation) []model.Quote {
	symbols := make([]string, 0, len(model.CryptoInventionDates))
	for symbol := range model.CryptoInventionDates {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	quotes := make([]model.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		invented := model.CryptoInventionDates[symbol]
		if sim.CurrentDate.Before(invented) {
			continue
		}

		instrument, err := s.catalog.Metadata(ctx, symbol)
		if err != nil {
			continue
		}

		quote := s.quote(ctx, sim, instrument)
		if quote.Available {
			quotes = append(quotes, quote)
		}
	}
	return quotes
}
