package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fernwood/stockroom/internal/app"
	"github.com/fernwood/stockroom/internal/cache"
	"github.com/fernwood/stockroom/internal/config"
	"github.com/fernwood/stockroom/internal/ratelimit"
	"github.com/fernwood/stockroom/internal/server"
	"github.com/fernwood/stockroom/internal/storage/sqlite"
	"github.com/fernwood/stockroom/internal/telemetry"
	"github.com/fernwood/stockroom/internal/worker"
)

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.Info("starting stockroom", "version", version, "addr", cfg.Server.Addr)

	// Open database
	store, err := sqlite.New(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	// Seed catalog from config
	ctx := context.Background()
	if err := config.Bootstrap(ctx, cfg, store); err != nil {
		return err
	}

	// One cache store serves the whole process: query pages, byId entries,
	// and response snapshots all share its capacity and statistics.
	var cacheStore *cache.Store
	if cfg.Cache.Enabled {
		cacheStore = cache.New(cfg.Cache.MaxSize, cfg.Cache.DefaultTTL)
		defer cacheStore.Close()
	}

	// Telemetry
	var (
		metrics        *telemetry.Metrics
		metricsHandler http.Handler
	)
	if cfg.Telemetry.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics = telemetry.NewMetrics(reg)
		if cacheStore != nil {
			reg.MustRegister(telemetry.NewCacheCollector(cacheStore))
		}
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	// Rate limiting
	var limits *ratelimit.Registry
	if cfg.Server.RateLimitRPM > 0 {
		limits = ratelimit.NewRegistry(cfg.Server.RateLimitRPM)
	}

	// Wire services
	tracer := telemetry.Tracer("stockroom")
	orders := app.NewOrderService(store, cacheStore, cfg.Cache.QueryTTL, tracer, metrics)
	products := app.NewProductService(store, cacheStore, cfg.Cache.QueryTTL, tracer, metrics)

	// Create HTTP server
	handler := server.New(server.Deps{
		Orders:       orders,
		Products:     products,
		Cache:        cacheStore,
		Metrics:      metrics,
		ReadyCheck:   store.Ping,
		Limits:       limits,
		ResponseTTL:  cfg.Cache.ResponseTTL,
		AdminEnabled: cfg.Admin.Enabled,
		Promhttp:     metricsHandler,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background workers
	var workers []worker.Worker
	if cacheStore != nil {
		workers = append(workers, worker.NewSweeper(cacheStore, cfg.Cache.SweepInterval))
	}
	if limits != nil {
		workers = append(workers, worker.NewLimiterJanitor(limits, 0))
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	workerErr := make(chan error, 1)
	if len(workers) > 0 {
		runner := worker.NewRunner(workers...)
		go func() {
			workerErr <- runner.Run(workerCtx)
		}()
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("stockroom ready", "addr", cfg.Server.Addr)

	// Wait for signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		return err
	case err := <-workerErr:
		return err
	}

	// Shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	stopWorkers()
	slog.Info("stockroom stopped")
	return nil
}
