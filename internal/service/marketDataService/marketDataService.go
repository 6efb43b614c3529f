package marketDataService

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/data/repository"
	"github.com/timetrader/market_replay_bot/internal/externalApi"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/internal/service"
	"github.com/timetrader/market_replay_bot/utils"
)

type Repository interface {
	GetInstrument(ctx context.Context, symbol string) (model.Instrument, error)
	GetInstruments(ctx context.Context) ([]model.Instrument, error)
	GetCandles(ctx context.Context, symbol string) ([]model.Candle, error)
	InsertCandles(ctx context.Context, symbol string, candles []model.Candle) error
	InsertInstrument(ctx context.Context, instrument model.Instrument) error
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type Cache interface {
	GetSeries(ctx context.Context, symbol string) ([]model.Candle, error)
	SetSeries(ctx context.Context, symbol string, candles []model.Candle) error
	GetInstrument(ctx context.Context, symbol string) (model.Instrument, error)
	SetInstrument(ctx context.Context, instrument model.Instrument) error
	FlushInstrument(ctx context.Context, symbol string) error
}

type MarketApi interface {
	GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error)
}

// MarketDataService is the catalog the simulation core prices against. Per
// symbol it tiers memory -> redis -> postgres -> stooq, populates once and
// keeps the series for the process lifetime. The in-memory maps are shared
// read-only across simulations, hence the RWMutex.
type MarketDataService struct {
	cfg   *config.Config
	repo  Repository
	cache Cache
	api   MarketApi

	mu          sync.RWMutex
	series      map[string]*model.PriceSeries
	instruments map[string]model.Instrument
}

func New(cfg *config.Config, repo Repository, cache Cache, api MarketApi) *MarketDataService {
	return &MarketDataService{
		cfg:         cfg,
		repo:        repo,
		cache:       cache,
		api:         api,
		series:      make(map[string]*model.PriceSeries),
		instruments: make(map[string]model.Instrument),
	}
}

// LoadSeries returns the daily series for symbol, loading and caching it on
// first access. Fails with service.ErrUnknownSymbol when no tier has data.
func (s *MarketDataService) LoadSeries(ctx context.Context, symbol string) (*model.PriceSeries, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.LoadSeries"

	s.mu.RLock()
	series, ok := s.series[symbol]
	s.mu.RUnlock()
	if ok {
		return series, nil
	}

	slog.Debug("LoadSeries start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	candles, err := s.cache.GetSeries(ctx, symbol)
	if err != nil {
		candles, err = s.loadCandlesFromRepoOrApi(ctx, symbol)
		if err != nil {
			return nil, err
		}

		go s.cache.SetSeries(context.WithoutCancel(ctx), symbol, candles)
	}

	candles = s.trimToWindow(candles)
	if len(candles) == 0 {
		return nil, service.ErrUnknownSymbol
	}

	series = model.NewPriceSeries(symbol, candles)

	s.mu.Lock()
	s.series[symbol] = series
	s.mu.Unlock()

	slog.Debug("LoadSeries completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.Int("candles", series.Len()))

	return series, nil
}

func (s *MarketDataService) loadCandlesFromRepoOrApi(ctx context.Context, symbol string) ([]model.Candle, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.loadCandlesFromRepoOrApi"

	candles, err := s.repo.GetCandles(ctx, symbol)
	if err == nil {
		return candles, nil
	}

	if !errors.Is(err, repository.ErrNotFound) {
		slog.Error("got error from repo.GetCandles", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	from, to, err := s.seriesWindow()
	if err != nil {
		return nil, err
	}

	candles, err = s.api.GetDailyCandles(ctx, symbol, from, to)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			slog.Warn("symbol not found in market api", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
			return nil, service.ErrUnknownSymbol
		}
		slog.Error("got error from api.GetDailyCandles", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	go func() {
		backfillCtx := context.WithoutCancel(ctx)
		err := s.repo.WithinTransaction(backfillCtx, func(txCtx context.Context) error {
			// The instrument row must exist before its candles (FK).
			if err := s.repo.InsertInstrument(txCtx, discoveredInstrument(symbol)); err != nil {
				return err
			}
			return s.repo.InsertCandles(txCtx, symbol, candles)
		})
		if err != nil {
			slog.Error("backfill of candles failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	return candles, nil
}

// discoveredInstrument describes a symbol first seen through the market api,
// before any operator-maintained row exists for it.
func discoveredInstrument(symbol string) model.Instrument {
	instrument := model.Instrument{Symbol: symbol, Name: symbol, AssetType: model.AssetTypeEquity}
	if invented, ok := model.CryptoInventionDates[symbol]; ok {
		instrument.AssetType = model.AssetTypeCrypto
		instrument.FirstTradeDate = &invented
	}
	return instrument
}

// Metadata returns the instrument description. Crypto-assets fall back to
// their fixed invention date when the repository carries no first-trade date.
func (s *MarketDataService) Metadata(ctx context.Context, symbol string) (model.Instrument, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.Metadata"

	s.mu.RLock()
	instrument, ok := s.instruments[symbol]
	s.mu.RUnlock()
	if ok {
		return instrument, nil
	}

	instrument, err := s.cache.GetInstrument(ctx, symbol)
	if err != nil {
		instrument, err = s.repo.GetInstrument(ctx, symbol)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				slog.Error("got error from repo.GetInstrument", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
				return model.Instrument{}, err
			}

			// Not registered yet: a symbol whose series resolves is real,
			// describe it from what the api knows.
			if _, seriesErr := s.LoadSeries(ctx, symbol); seriesErr != nil {
				return model.Instrument{}, service.ErrUnknownSymbol
			}
			instrument = discoveredInstrument(symbol)
		}

		go s.cache.SetInstrument(context.WithoutCancel(ctx), instrument)
	}

	if instrument.FirstTradeDate == nil {
		if invented, ok := model.CryptoInventionDates[symbol]; ok {
			instrument.FirstTradeDate = &invented
		}
	}

	s.mu.Lock()
	s.instruments[symbol] = instrument
	s.mu.Unlock()

	return instrument, nil
}

// FirstAvailableDate reports the known existence boundary of a symbol, nil
// when unknown.
func (s *MarketDataService) FirstAvailableDate(ctx context.Context, symbol string) *time.Time {
	instrument, err := s.Metadata(ctx, symbol)
	if err != nil {
		return nil
	}
	return instrument.FirstTradeDate
}

// LatestMarketCap returns the last known market capitalization, zero when
// unknown. Staleness is accepted: the cap guards against owning 100%+ of a
// company, not against intraday precision.
func (s *MarketDataService) LatestMarketCap(ctx context.Context, symbol string) decimal.Decimal {
	instrument, err := s.Metadata(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}
	}
	return instrument.MarketCap
}

func (s *MarketDataService) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.ListInstruments"

	instruments, err := s.repo.GetInstruments(ctx)
	if err != nil {
		slog.Error("got error from repo.GetInstruments", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return instruments, nil
}

// RefreshInstruments re-reads instrument rows (market caps above all) from
// postgres and drops the per-symbol redis entries, so the anti-manipulation
// guard doesn't run on caps older than the job interval.
func (s *MarketDataService) RefreshInstruments(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "MarketDataService.RefreshInstruments"

	instruments, err := s.repo.GetInstruments(ctx)
	if err != nil {
		slog.Error("got error from repo.GetInstruments", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	s.mu.Lock()
	for _, instrument := range instruments {
		if instrument.FirstTradeDate == nil {
			if invented, ok := model.CryptoInventionDates[instrument.Symbol]; ok {
				instrument.FirstTradeDate = &invented
			}
		}
		s.instruments[instrument.Symbol] = instrument
	}
	s.mu.Unlock()

	for _, instrument := range instruments {
		_ = s.cache.FlushInstrument(ctx, instrument.Symbol)
	}

	slog.Info("instruments refreshed", slog.String("rqID", rqID), slog.Int("count", len(instruments)))

	return nil
}

// WarmupCrypto preloads the crypto series so the first dashboard render
// doesn't pay the full download latency.
func (s *MarketDataService) WarmupCrypto(ctx context.Context) error {
	for symbol := range model.CryptoInventionDates {
		if _, err := s.LoadSeries(ctx, symbol); err != nil {
			slog.Warn("crypto warmup failed", slog.String("symbol", symbol), slog.String("err", err.Error()))
		}
	}
	return nil
}

func (s *MarketDataService) seriesWindow() (time.Time, time.Time, error) {
	from, err := utils.ParseDate(s.cfg.Simulation.SeriesStart)
	if err != nil {
		return time.Time{}, time.Time{}, service.ErrInvalidDate
	}
	to, err := utils.ParseDate(s.cfg.Simulation.SeriesEnd)
	if err != nil {
		return time.Time{}, time.Time{}, service.ErrInvalidDate
	}
	return from, to, nil
}

func (s *MarketDataService) trimToWindow(candles []model.Candle) []model.Candle {
	from, to, err := s.seriesWindow()
	if err != nil {
		return candles
	}

	trimmed := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		trimmed = append(trimmed, c)
	}
	return trimmed
}
