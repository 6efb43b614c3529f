package simulationService

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
	"github.com/timetrader/market_replay_bot/utils"
)

// resolveShares turns a quantity spec into a share count at the traded
// price, truncated to the share step. A spec that truncates to zero or below
// is rejected.
func resolveShares(spec model.QuantitySpec, price decimal.Decimal) (decimal.Decimal, error) {
	var shares decimal.Decimal
	switch {
	case spec.Shares != nil:
		shares = *spec.Shares
	case spec.Cash != nil && price.IsPositive():
		shares = spec.Cash.Div(price)
	default:
		return decimal.Decimal{}, service.ErrInvalidQuantity
	}

	shares = utils.QuantizeShares(shares)
	if !shares.IsPositive() {
		return decimal.Decimal{}, service.ErrInvalidQuantity
	}

	return shares, nil
}

// Buy purchases shares of symbol at the current simulated tick. All
// preconditions are checked before any state changes; on success the cash is
// debited, the weighted average cost updated, the transaction logged and a
// revaluation snapshot appended.
func (s *SimulationService) Buy(ctx context.Context, sim *model.Simulation, symbol string, spec model.QuantitySpec) (model.Transaction, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SimulationService.Buy"

	slog.Debug("Buy start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	price, err := s.Price(ctx, symbol, sim.CurrentDate, sim.TimeOfDay)
	if err != nil {
		return model.Transaction{}, err
	}

	if err := s.checkMarketOpen(ctx, sim, symbol); err != nil {
		return model.Transaction{}, err
	}

	shares, err := resolveShares(spec, price)
	if err != nil {
		return model.Transaction{}, err
	}

	cost := utils.QuantizeCash(shares.Mul(price))
	if !cost.IsPositive() {
		return model.Transaction{}, service.ErrInvalidQuantity
	}

	if sim.Cash.LessThan(cost) {
		return model.Transaction{}, service.ErrInsufficientFunds
	}

	holding := sim.Holdings[symbol]
	newShares := utils.QuantizeShares(holding.Shares.Add(shares))

	// Anti-manipulation guard: one account may not own the whole company.
	// The cap is the last known one, staleness is accepted.
	if cap := s.catalog.LatestMarketCap(ctx, symbol); cap.IsPositive() {
		if newShares.Mul(price).GreaterThanOrEqual(cap) {
			return model.Transaction{}, service.ErrMarketCapExceeded
		}
	}

	if holding.Shares.IsPositive() && newShares.IsPositive() {
		totalCost := holding.Shares.Mul(holding.AvgCost).Add(cost)
		holding.AvgCost = utils.QuantizeCash(totalCost.Div(newShares))
	} else {
		holding.AvgCost = price
	}

	holding.Shares = newShares
	sim.Holdings[symbol] = holding
	sim.Cash = utils.QuantizeCash(sim.Cash.Sub(cost))

	tx := model.Transaction{
		Date:      sim.CurrentDate,
		TimeOfDay: sim.TimeOfDay,
		Kind:      model.TransactionBuy,
		Symbol:    symbol,
		Shares:    shares,
		Price:     price,
		Total:     cost,
	}
	sim.Transactions = append(sim.Transactions, tx)

	s.appendSnapshot(ctx, sim)

	slog.Debug("Buy completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("shares", shares.String()))

	return tx, nil
}

// Sell disposes part of a holding. Profit/loss is proceeds minus the
// truncated cost basis at the weighted average cost.
func (s *SimulationService) Sell(ctx context.Context, sim *model.Simulation, symbol string, spec model.QuantitySpec) (model.Transaction, error) {
	holding, ok := sim.Holding(symbol)
	if !ok {
		return model.Transaction{}, service.ErrInsufficientShares
	}

	price, err := s.Price(ctx, symbol, sim.CurrentDate, sim.TimeOfDay)
	if err != nil {
		return model.Transaction{}, err
	}

	if err := s.checkMarketOpen(ctx, sim, symbol); err != nil {
		return model.Transaction{}, err
	}

	shares, err := resolveShares(spec, price)
	if err != nil {
		return model.Transaction{}, err
	}

	if holding.Shares.LessThan(shares) {
		return model.Transaction{}, service.ErrInsufficientShares
	}

	return s.sellShares(ctx, sim, symbol, holding, shares, price, model.TransactionSell), nil
}

// SellAll liquidates the whole position in one transaction.
func (s *SimulationService) SellAll(ctx context.Context, sim *model.Simulation, symbol string) (model.Transaction, error) {
	holding, ok := sim.Holding(symbol)
	if !ok {
		return model.Transaction{}, service.ErrInsufficientShares
	}

	if !holding.Shares.IsPositive() {
		return model.Transaction{}, service.ErrInvalidQuantity
	}

	price, err := s.Price(ctx, symbol, sim.CurrentDate, sim.TimeOfDay)
	if err != nil {
		return model.Transaction{}, err
	}

	if err := s.checkMarketOpen(ctx, sim, symbol); err != nil {
		return model.Transaction{}, err
	}

	return s.sellShares(ctx, sim, symbol, holding, holding.Shares, price, model.TransactionSellAll), nil
}

func (s *SimulationService) sellShares(
	ctx context.Context,
	sim *model.Simulation,
	symbol string,
	holding model.Holding,
	shares decimal.Decimal,
	price decimal.Decimal,
	kind model.TransactionKind,
) model.Transaction {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SimulationService.sellShares"

	proceeds := utils.QuantizeCash(shares.Mul(price))
	costBasis := utils.QuantizeCash(shares.Mul(holding.AvgCost))
	profitLoss := proceeds.Sub(costBasis)

	sim.Cash = utils.QuantizeCash(sim.Cash.Add(proceeds))

	remaining := utils.QuantizeShares(holding.Shares.Sub(shares))
	if remaining.IsPositive() {
		holding.Shares = remaining
		sim.Holdings[symbol] = holding
	} else {
		// A position never lingers at zero shares.
		delete(sim.Holdings, symbol)
	}

	tx := model.Transaction{
		Date:       sim.CurrentDate,
		TimeOfDay:  sim.TimeOfDay,
		Kind:       kind,
		Symbol:     symbol,
		Shares:     shares,
		Price:      price,
		Total:      proceeds,
		ProfitLoss: &profitLoss,
	}
	sim.Transactions = append(sim.Transactions, tx)

	s.appendSnapshot(ctx, sim)

	slog.Debug("sell completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("shares", shares.String()))

	return tx
}

// checkMarketOpen rejects equity trades on weekends; crypto trades every
// day.
func (s *SimulationService) checkMarketOpen(ctx context.Context, sim *model.Simulation, symbol string) error {
	if !utils.IsWeekend(sim.CurrentDate) {
		return nil
	}

	instrument, err := s.catalog.Metadata(ctx, symbol)
	if err == nil && instrument.IsCrypto() {
		return nil
	}

	return service.ErrMarketClosed
}
