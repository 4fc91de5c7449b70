package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"basicswap-orderbook-go/internal/config"
	"basicswap-orderbook-go/internal/dashboard"
	"basicswap-orderbook-go/internal/database"
	"basicswap-orderbook-go/internal/journal"
	"basicswap-orderbook-go/internal/logger"
	"basicswap-orderbook-go/internal/metrics"
	"basicswap-orderbook-go/internal/orderbook"
	"basicswap-orderbook-go/internal/web"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded", zap.String("api", cfg.API.BaseURL), zap.String("on_fetch_failure", cfg.API.OnFetchFailure))

	m := metrics.NewMetrics(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)
	client := orderbook.NewClient(&cfg.API, log, m)
	broadcaster := web.NewBroadcaster(log)

	opts := dashboard.Options{
		Interval:   cfg.Refresh.Interval,
		SessionTTL: cfg.Server.SessionTTL,
		Notifier:   broadcaster,
		Metrics:    m,
	}

	var api *APIHandler
	if cfg.Database.Enabled {
		db, err := database.NewDatabase(cfg.Database.DSN)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		log.Info("Database connection successful and schema migrated.")
		j := journal.New(db, log)
		opts.Journal = j
		api = NewAPIHandler(log, j)
	}

	controller := dashboard.NewController(log, client, opts)

	srv, err := web.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), log, controller, broadcaster)
	if err != nil {
		log.Fatal("Failed to create web server", zap.Error(err))
	}
	srv.Handle("GET /metrics", metrics.Handler(prometheus.DefaultGatherer))
	if api != nil {
		srv.Handle("GET /api/refreshes", http.HandlerFunc(api.RefreshesHandler))
		srv.Handle("GET /api/refreshes/stats", http.HandlerFunc(api.StatsHandler))
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	refreshDone := make(chan struct{})
	go func() {
		controller.Run(ctx)
		close(refreshDone)
	}()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Web server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Web server shutdown failed", zap.Error(err))
	}
	<-refreshDone

	log.Info("Landing service has been shut down.")
}
