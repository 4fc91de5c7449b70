package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"basicswap-orderbook-go/internal/config"
	"basicswap-orderbook-go/internal/dashboard"
	"basicswap-orderbook-go/internal/logger"
	"basicswap-orderbook-go/internal/orderbook"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the snapshot.
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := orderbook.NewClient(&cfg.API, log, nil)
	controller := dashboard.NewController(log, client, dashboard.Options{})
	if err := controller.Refresh(ctx); err != nil {
		log.Error("Snapshot failed", zap.Error(err))
		os.Exit(1)
	}

	snap := controller.Snapshot()
	if len(snap.Fallbacks) > 0 {
		log.Warn("Snapshot includes fallback data", zap.Any("endpoints", snap.Fallbacks))
	}
	if err := render(os.Stdout, controller.View("snapshot")); err != nil {
		log.Error("Failed to write snapshot", zap.Error(err))
		os.Exit(1)
	}
}
