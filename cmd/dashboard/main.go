// Command dashboard loads the collision dataset once and serves the dashboard
// views over HTTP until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/couchcryptid/collision-explorer/internal/adapter/csvfile"
	"github.com/couchcryptid/collision-explorer/internal/adapter/h3grid"
	httpadapter "github.com/couchcryptid/collision-explorer/internal/adapter/http"
	"github.com/couchcryptid/collision-explorer/internal/adapter/mapbox"
	"github.com/couchcryptid/collision-explorer/internal/config"
	"github.com/couchcryptid/collision-explorer/internal/domain"
	"github.com/couchcryptid/collision-explorer/internal/observability"
	"github.com/couchcryptid/collision-explorer/internal/pipeline"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocode cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	loader := csvfile.NewLoader(cfg.DataPath, logger)
	dataset := pipeline.NewDataset(loader, logger, metrics)
	dash := pipeline.NewDashboard(dataset, pipeline.Options{
		MaxRows:         cfg.MaxRows,
		TopStreetsLimit: cfg.TopStreetsLimit,
		Resolution:      cfg.H3Resolution,
		Binner:          h3grid.New(),
		Geocoder:        geocoder,
	}, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, dash, logger)

	var failed atomic.Bool
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server. /readyz reports 503 until the dataset is warm.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			failed.Store(true)
			stop()
		}
	}()

	// Warm the dataset.
	go func() {
		logger.Info("loading dataset", "path", cfg.DataPath, "max_rows", cfg.MaxRows)
		if err := dash.Warm(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("dataset load failed", "path", cfg.DataPath, "error", err)
			failed.Store(true)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	if failed.Load() {
		cancel()
		os.Exit(1)
	}
}
