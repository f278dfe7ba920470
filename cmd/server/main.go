package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/realestate-classifieds/internal/app"
	"github.com/iliyamo/realestate-classifieds/internal/config"
	"github.com/iliyamo/realestate-classifieds/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("startup failed", logger.Err(err))
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}
