// Package source opens the observation source selected by the configuration.
package source

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/snow-rank/internal/adapter/csvfile"
	"github.com/couchcryptid/snow-rank/internal/adapter/postgres"
	"github.com/couchcryptid/snow-rank/internal/adapter/remote"
	"github.com/couchcryptid/snow-rank/internal/adapter/sqlite"
	"github.com/couchcryptid/snow-rank/internal/config"
	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
)

// Open returns the configured extractor and a function releasing its resources.
func Open(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (pipeline.DatasetExtractor, func(), error) {
	switch cfg.Source() {
	case config.SourcePostgres:
		src, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := src.EnsureSchema(ctx); err != nil {
			src.Close()
			return nil, nil, err
		}
		logger.Info("observation source", "source", "postgres")
		return src, src.Close, nil

	case config.SourceSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("observation source", "source", "sqlite", "path", cfg.SQLitePath)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("sqlite close error", "error", err)
			}
		}, nil

	case config.SourceRemote:
		client := remote.NewClient(cfg.DataFetchTimeout, metrics, logger)
		logger.Info("observation source", "source", "remote",
			"urls", len(cfg.DataURLs),
			"cache_size", cfg.DataCacheSize,
			"cache_ttl", cfg.DataCacheTTL,
		)
		return remote.NewSource(cfg.DataURLs, client, cfg.DataCacheSize, cfg.DataCacheTTL, metrics, logger), func() {}, nil

	default:
		logger.Info("observation source", "source", "csv", "path", cfg.DataPath)
		return csvfile.NewReader(cfg.DataPath, logger), func() {}, nil
	}
}
