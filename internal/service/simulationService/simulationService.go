package simulationService

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
	"github.com/timetrader/market_replay_bot/utils"
)

type Catalog interface {
	LoadSeries(ctx context.Context, symbol string) (*model.PriceSeries, error)
	Metadata(ctx context.Context, symbol string) (model.Instrument, error)
	FirstAvailableDate(ctx context.Context, symbol string) *time.Time
	LatestMarketCap(ctx context.Context, symbol string) decimal.Decimal
	ListInstruments(ctx context.Context) ([]model.Instrument, error)
}

// SimulationService owns the replay core: price resolution, the decimal
// ledger, the forward-only clock and the history aggregation. It mutates the
// model.Simulation the caller passes in; the caller persists it afterwards.
// Methods never leave a simulation half-mutated: every precondition is
// checked before the first write.
type ReportGenerator interface {
	Generate(ctx context.Context, overview model.PortfolioOverview, history []model.ChartPoint) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, reader io.Reader, filename string) (downloadLink string, err error)
}

type SimulationService struct {
	cfg          *config.Config
	catalog      Catalog
	reportGen    ReportGenerator
	cloudStorage CloudStorage
}

func New(cfg *config.Config, catalog Catalog, reportGen ReportGenerator, cloudStorage CloudStorage) *SimulationService {
	return &SimulationService{
		cfg:          cfg,
		catalog:      catalog,
		reportGen:    reportGen,
		cloudStorage: cloudStorage,
	}
}

// NewSimulation starts a fresh replay at the configured date with the
// configured cash balance.
func (s *SimulationService) NewSimulation(ctx context.Context) (*model.Simulation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SimulationService.NewSimulation"

	startDate, err := utils.ParseDate(s.cfg.Simulation.StartDate)
	if err != nil {
		slog.Error("invalid SIM_START_DATE", slog.String("rqID", rqID), slog.String("op", op), slog.String("value", s.cfg.Simulation.StartDate))
		return nil, service.ErrInvalidDate
	}

	startCash, err := utils.ParseDecimal(s.cfg.Simulation.StartCash)
	if err != nil {
		slog.Error("invalid SIM_START_CASH", slog.String("rqID", rqID), slog.String("op", op), slog.String("value", s.cfg.Simulation.StartCash))
		return nil, err
	}

	slog.Debug("NewSimulation", slog.String("rqID", rqID), slog.String("op", op), slog.String("startDate", utils.FormatDate(startDate)))

	return model.NewSimulation(startDate, utils.QuantizeCash(startCash)), nil
}

// SearchStock validates a symbol for the buy dialog and quotes it at the
// simulated date. A valid symbol with no resolvable price comes back with
// Available=false, not an error.
func (s *SimulationService) SearchStock(ctx context.Context, sim *model.Simulation, symbol string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SimulationService.SearchStock"

	slog.Debug("SearchStock start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	instrument, err := s.catalog.Metadata(ctx, symbol)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSymbol) {
			return model.Quote{}, service.ErrUnknownSymbol
		}
		slog.Error("got error from catalog.Metadata", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Quote{}, err
	}

	if invented, ok := model.CryptoInventionDates[symbol]; ok && sim.CurrentDate.Before(invented) {
		return model.Quote{}, service.ErrNotInvented
	}

	if _, err := s.catalog.LoadSeries(ctx, symbol); err != nil {
		if errors.Is(err, service.ErrUnknownSymbol) {
			return model.Quote{}, service.ErrUnknownSymbol
		}
		slog.Error("got error from catalog.LoadSeries", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.Quote{}, err
	}

	return s.quote(ctx, sim, instrument), nil
}

func (s *SimulationService) quote(ctx context.Context, sim *model.Simulation, instrument model.Instrument) model.Quote {
	q := model.Quote{Symbol: instrument.Symbol, Name: instrument.Name}

	price, err := s.Price(ctx, instrument.Symbol, sim.CurrentDate, sim.TimeOfDay)
	if err != nil {
		return q
	}

	q.Price = price
	q.Available = true
	if change, ok := s.PriceChange(ctx, instrument.Symbol, sim.CurrentDate, sim.TimeOfDay); ok {
		q.Change = &change
	}
	return q
}

// portfolioValue revalues the whole portfolio at the simulated tick. Symbols
// without a resolvable price contribute nothing rather than failing the
// revaluation (a halted stock must not freeze the clock).
func (s *SimulationService) portfolioValue(ctx context.Context, sim *model.Simulation) decimal.Decimal {
	total := sim.Cash
	for symbol, holding := range sim.Holdings {
		if !holding.Shares.IsPositive() {
			continue
		}

		price, err := s.Price(ctx, symbol, sim.CurrentDate, sim.TimeOfDay)
		if err != nil {
			continue
		}

		total = total.Add(holding.Shares.Mul(price))
	}
	return total
}

// appendSnapshot records the portfolio value for the current tick. Exactly
// one snapshot per tick; snapshots are append-only.
func (s *SimulationService) appendSnapshot(ctx context.Context, sim *model.Simulation) {
	sim.History = append(sim.History, model.Snapshot{
		Date:      sim.CurrentDate,
		TimeOfDay: sim.TimeOfDay,
		Value:     s.portfolioValue(ctx, sim),
	})
}
