package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/crop-planner/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/crop-planner/internal/adapter/kafka"
	"github.com/couchcryptid/crop-planner/internal/adapter/openmeteo"
	"github.com/couchcryptid/crop-planner/internal/adapter/seasonal"
	"github.com/couchcryptid/crop-planner/internal/config"
	"github.com/couchcryptid/crop-planner/internal/domain"
	"github.com/couchcryptid/crop-planner/internal/observability"
	"github.com/couchcryptid/crop-planner/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	forecasts := newForecastProvider(cfg, logger, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(forecasts, logger, metrics)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, transformer, forecasts, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start planning pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// newForecastProvider selects the provider named by FORECAST_PROVIDER. It
// returns nil for "none", leaving only inline requests serviceable.
func newForecastProvider(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) domain.ForecastProvider {
	switch cfg.ForecastProvider {
	case config.ProviderOpenMeteo:
		client := openmeteo.NewClient(cfg.OpenMeteoURL, cfg.ForecastTimezone, cfg.ForecastTimeout, logger,
			openmeteo.WithMetrics(metrics))
		logger.Info("open-meteo forecasts enabled",
			"url", cfg.OpenMeteoURL,
			"timezone", cfg.ForecastTimezone,
			"cache_size", cfg.ForecastCacheSize,
			"cache_ttl", cfg.ForecastCacheTTL,
		)
		return openmeteo.NewCachedProvider(client, cfg.ForecastCacheSize, cfg.ForecastCacheTTL, metrics)
	case config.ProviderSeasonal:
		logger.Info("seasonal forecast model enabled")
		return seasonal.NewProvider()
	default:
		logger.Info("forecast provider disabled, only inline observations are planned")
		return nil
	}
}
