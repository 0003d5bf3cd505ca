// Command snowrank-api serves rankings over HTTP and, when KAFKA_BROKERS is set,
// republishes the default ranking every REFRESH_INTERVAL.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/snow-rank/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/snow-rank/internal/adapter/kafka"
	"github.com/couchcryptid/snow-rank/internal/config"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
	"github.com/couchcryptid/snow-rank/internal/source"
	"github.com/couchcryptid/snow-rank/internal/weights"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor, closeSource, err := source.Open(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to open observation source", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	var (
		loaders []pipeline.RankingLoader
		writer  *kafkaadapter.Writer
	)
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("ranking publication enabled", "topic", cfg.KafkaSinkTopic, "interval", cfg.RefreshInterval)
	} else {
		logger.Info("ranking publication disabled")
	}

	p := pipeline.New(extractor, pipeline.NewTransformer(logger, metrics), logger, metrics, loaders...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, cfg.TopN, metrics, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Refresh loop: warms the source (and readiness) and publishes the default ranking.
	// Weights come from WEIGHT_* only; the service never prompts.
	resolution := weights.NewResolver(nil, logger).Resolve(weights.Options{})
	metrics.WeightsRejected.Add(float64(resolution.Rejected))
	go func() {
		req := pipeline.Request{
			Weights: resolution.Weights,
			TopN:    cfg.TopN,
			Publish: cfg.PublishEnabled(),
		}
		if err := p.Watch(ctx, cfg.RefreshInterval, req); err != nil {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
