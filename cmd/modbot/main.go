package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/0ad/lobby-bots/internal/app"
	"github.com/0ad/lobby-bots/internal/config"
	loginfra "github.com/0ad/lobby-bots/internal/infra/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := loginfra.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("create app", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	logger.Info("moderation bot starting")
	if err := application.Run(ctx); err != nil {
		logger.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
