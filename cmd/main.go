package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/timetrader/market_replay_bot/config"
	"github.com/timetrader/market_replay_bot/data"
	"github.com/timetrader/market_replay_bot/data/cache"
	"github.com/timetrader/market_replay_bot/data/repository/postgres"
	"github.com/timetrader/market_replay_bot/data/session"
	"github.com/timetrader/market_replay_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/timetrader/market_replay_bot/internal/externalApi/stooqApi"
	"github.com/timetrader/market_replay_bot/internal/reportGenerator/xslsxGenerator"
	"github.com/timetrader/market_replay_bot/internal/scheduler"
	"github.com/timetrader/market_replay_bot/internal/service/marketDataService"
	"github.com/timetrader/market_replay_bot/internal/service/simulationService"
	"github.com/timetrader/market_replay_bot/internal/tgbot"
	"github.com/timetrader/market_replay_bot/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	stooqApiClient := stooqApi.New(cfg)

	reportGenerator := xslsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	marketDataSrv := marketDataService.New(cfg, pgRepo, redisCache, stooqApiClient)

	simulationSrv := simulationService.New(cfg, marketDataSrv, reportGenerator, googleCloudStorage)

	if cfg.Jobs.WarmupCryptoOnStart {
		go func() {
			if err := marketDataSrv.WarmupCrypto(ctx); err != nil {
				slog.Error("crypto warmup failed", slog.String("err", err.Error()))
			}
		}()
	}

	sched := scheduler.New()
	sched.NewIntervalJob("refresh instruments", marketDataSrv.RefreshInstruments, cfg.Jobs.RefreshMarketCapsInterval, true)
	sched.NewIntervalJob("drive cleanup", googleCloudStorage.DeleteOldFiles, cfg.Jobs.DriveCleanupInterval, false)
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, simulationSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
