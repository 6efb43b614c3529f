package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/utils"
)

const (
	seriesKeyPrefix     = "series:"
	instrumentKeyPrefix = "instrument:"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func (r *RedisCache) SetSeries(ctx context.Context, symbol string, candles []model.Candle) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetSeries start", slog.String("rqID", rqID), slog.String("symbol", symbol))

	candlesJson, err := json.Marshal(candles)
	if err != nil {
		slog.Error(
			"can't marshal candles in SetSeries",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("symbol", symbol),
		)
		return errors.New("can't marshal candles")
	}

	_, err = r.redis.Set(ctx, seriesKeyPrefix+symbol, candlesJson, r.cfg.Cache.SeriesExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("symbol", symbol))
		return err
	}

	slog.Debug("SetSeries completed", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return nil
}

func (r *RedisCache) GetSeries(ctx context.Context, symbol string) ([]model.Candle, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetSeries start", slog.String("rqID", rqID), slog.String("symbol", symbol))

	res, err := r.redis.Get(ctx, seriesKeyPrefix+symbol).Result()
	if err != nil {
		return nil, err
	}

	var candles []model.Candle
	err = json.Unmarshal([]byte(res), &candles)
	if err != nil {
		slog.Error(
			"can't unmarshal candles in GetSeries",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("symbol", symbol),
		)
		return nil, errors.New("can't unmarshal candles")
	}

	slog.Debug("GetSeries finished", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return candles, nil
}

func (r *RedisCache) SetInstrument(ctx context.Context, instrument model.Instrument) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetInstrument start", slog.String("rqID", rqID), slog.String("symbol", instrument.Symbol))

	instrumentJson, err := json.Marshal(instrument)
	if err != nil {
		slog.Error(
			"can't marshal instrument in SetInstrument",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.Any("instrument", instrument),
		)
		return errors.New("can't marshal instrument")
	}

	_, err = r.redis.Set(ctx, instrumentKeyPrefix+instrument.Symbol, instrumentJson, r.cfg.Cache.InstrumentsExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("symbol", instrument.Symbol))
		return err
	}

	slog.Debug("SetInstrument completed", slog.String("rqID", rqID), slog.String("symbol", instrument.Symbol))

	return nil
}

func (r *RedisCache) GetInstrument(ctx context.Context, symbol string) (model.Instrument, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetInstrument start", slog.String("rqID", rqID), slog.String("symbol", symbol))

	res, err := r.redis.Get(ctx, instrumentKeyPrefix+symbol).Result()
	if err != nil {
		return model.Instrument{}, err
	}

	instrument := model.Instrument{}
	err = json.Unmarshal([]byte(res), &instrument)
	if err != nil {
		slog.Error(
			"can't unmarshal instrument in GetInstrument",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return model.Instrument{}, errors.New("can't unmarshal instrument")
	}

	slog.Debug("GetInstrument finished", slog.String("rqID", rqID), slog.String("symbol", symbol))

	return instrument, nil
}

func (r *RedisCache) FlushInstrument(ctx context.Context, symbol string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	_, err := r.redis.Del(ctx, instrumentKeyPrefix+symbol).Result()
	if err != nil {
		slog.Error("failed on redis.Del", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("symbol", symbol))
		return fmt.Errorf("flush instrument %s: %w", symbol, err)
	}

	return nil
}
