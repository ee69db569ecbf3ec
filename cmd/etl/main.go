package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/plant-sensor-etl/internal/adapter/http"
	"github.com/couchcryptid/plant-sensor-etl/internal/adapter/plantapi"
	"github.com/couchcryptid/plant-sensor-etl/internal/adapter/postgres"
	"github.com/couchcryptid/plant-sensor-etl/internal/config"
	"github.com/couchcryptid/plant-sensor-etl/internal/observability"
	"github.com/couchcryptid/plant-sensor-etl/internal/pipeline"
)

func main() {
	once := flag.Bool("once", false, "run a single pipeline cycle and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *once {
		cfg.RunOnce = true
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL, cfg.ShortTermSchema, cfg.LongTermSchema, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchemas(ctx); err != nil {
		logger.Error("failed to ensure schemas", "error", err)
		os.Exit(1)
	}

	client := plantapi.NewClient(cfg.PlantAPIURL, cfg.MaxPlantID, cfg.RequestTimeout, logger)

	p := pipeline.New(client, store, store, logger, metrics, cfg.RetentionWindow, cfg.DryRun)

	if cfg.RunOnce {
		if _, err := p.Run(ctx); err != nil {
			logger.Error("pipeline run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduled ETL cycles.
	go p.RunScheduled(ctx, cfg.RunInterval)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
