package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	clts "trenchwatch/clients"
	"trenchwatch/config"
	"trenchwatch/internal/app"
	"trenchwatch/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load config from environment variables
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("starting trenchwatch", zap.Bool("isProd", cfg.IsProd))

	logger.Info("instantiating clients")
	clients := clts.NewClients(logger, cfg)
	defer clients.Notifier.Close()

	fileStore := store.NewFileStore(logger, cfg.Monitor.DataFile)
	alertLog := store.NewAlertLog(logger, cfg.Monitor.AlertLogFile)
	if err := alertLog.Load(); err != nil {
		logger.Warn("failed to load alert history, starting fresh", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	monitor := app.NewMonitor(logger, cfg, fileStore, alertLog, clients.Dex, clients.Notifier)

	if cfg.StatsServer.Enabled {
		statsServer := app.NewStatsServer(logger, cfg.StatsServer, monitor.Stats())
		go func() {
			if err := statsServer.Run(ctx); err != nil {
				logger.Error("stats server failed", zap.Error(err))
			}
		}()
	}

	if err := monitor.Run(ctx); err != nil {
		logger.Fatal("monitor failed", zap.Error(err))
	}
}
