package stooqApi

import (
	"context"
	"encoding/csv"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/internal/externalApi"
	"github.com/timetrader/market_replay_bot/internal/model"
	"github.com/timetrader/market_replay_bot/utils"
)

type StooqApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *StooqApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.StooqApi.Url)
	return &StooqApi{client: client}
}

// GetDailyCandles downloads the daily OHLC series as CSV. Stooq answers
// plain "No data" (no error status) for unknown symbols.
func (a *StooqApi) GetDailyCandles(ctx context.Context, symbol string, from, to time.Time) ([]model.Candle, error) {
	rqId := utils.GetRequestIDFromCtx(ctx)
	url := "/q/d/l/"
	params := map[string]string{
		"s":  stooqSymbol(symbol),
		"i":  "d",
		"d1": from.Format("20060102"),
		"d2": to.Format("20060102"),
	}

	slog.Debug("start StooqApi.GetDailyCandles request", slog.String("rqID", rqId), slog.String("symbol", symbol))

	resp, err := a.client.R().
		SetHeader("Accept", "text/csv").
		SetQueryParams(params).
		Get(url)

	if err != nil {
		slog.Error("error while dialing StooqApi", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, err
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" || strings.HasPrefix(body, "No data") {
		return nil, externalApi.ErrNotFound
	}

	candles, err := a.parseCSV(body)
	if err != nil {
		slog.Error("can't parse StooqApi csv response", slog.String("err", err.Error()), slog.String("rqID", rqId))
		return nil, err
	}

	if len(candles) == 0 {
		return nil, externalApi.ErrNotFound
	}

	slog.Debug("StooqApi.GetDailyCandles request complete", slog.String("rqID", rqId), slog.Int("count", len(candles)))

	return candles, nil
}

// parseCSV reads rows of Date,Open,High,Low,Close,Volume. Rows with
// malformed fields are skipped rather than failing the whole series.
func (a *StooqApi) parseCSV(body string) ([]model.Candle, error) {
	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	candles := make([]model.Candle, 0, len(records))
	for i, rec := range records {
		if i == 0 || len(rec) < 5 { // header row
			continue
		}

		date, err := utils.ParseDate(rec[0])
		if err != nil {
			continue
		}

		open, err := decimal.NewFromString(rec[1])
		if err != nil {
			continue
		}

		cls, err := decimal.NewFromString(rec[4])
		if err != nil {
			continue
		}

		candles = append(candles, model.Candle{Date: date, Open: open, Close: cls})
	}

	return candles, nil
}

// stooqSymbol maps our symbols onto stooq's naming: US equities get a ".us"
// suffix, crypto pairs drop the dash (BTC-USD -> btcusd).
func stooqSymbol(symbol string) string {
	s := strings.ToLower(symbol)
	if strings.HasSuffix(s, "-usd") {
		return strings.ReplaceAll(s, "-", "")
	}
	return s + ".us"
}
