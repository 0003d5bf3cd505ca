// Package postgres reads and writes observation tables in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/snow-rank/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	obs_date         DATE,
	region           TEXT NOT NULL DEFAULT '',
	country          TEXT NOT NULL DEFAULT '',
	temperature_c    DOUBLE PRECISION,
	precipitation_mm DOUBLE PRECISION,
	snow_depth_cm    DOUBLE PRECISION,
	wind_beaufort    DOUBLE PRECISION,
	elevation_m      DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_observations_group ON observations (region, country, obs_date);
CREATE TABLE IF NOT EXISTS dataset_columns (
	name TEXT PRIMARY KEY
);
`

var copyColumns = []string{
	"obs_date", "region", "country",
	"temperature_c", "precipitation_mm", "snow_depth_cm", "wind_beaufort", "elevation_m",
}

var storedColumns = []string{
	domain.ColumnDate,
	domain.ColumnRegion,
	domain.ColumnCountry,
	domain.ColumnTemperature,
	domain.ColumnPrecipitation,
	domain.ColumnSnowDepth,
	domain.ColumnWind,
	domain.ColumnElevation,
}

// Source implements pipeline.DatasetExtractor over a PostgreSQL database.
type Source struct {
	pool *pgxpool.Pool
}

// NewSource wraps an existing pool.
func NewSource(pool *pgxpool.Pool) *Source {
	return &Source{pool: pool}
}

// Connect opens a pool for databaseURL and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*Source, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	return NewSource(pool), nil
}

// Close releases the pool.
func (s *Source) Close() { s.pool.Close() }

// EnsureSchema creates the tables if they do not exist.
func (s *Source) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// Import replaces the stored dataset with ds, bulk-loading rows with COPY.
func (s *Source) Import(ctx context.Context, ds domain.Dataset) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE observations, dataset_columns`); err != nil {
		return fmt.Errorf("postgres: failed to clear dataset: %w", err)
	}

	rows := make([][]any, len(ds.Observations))
	for i, o := range ds.Observations {
		var date any
		if !o.Date.IsZero() {
			date = o.Date.UTC()
		}
		rows[i] = []any{
			date, o.Region, o.Country,
			o.TemperatureC, o.PrecipitationMM, o.SnowDepthCM, o.WindBeaufort, o.ElevationM,
		}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"observations"}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("postgres: failed to copy observations: %w", err)
	}

	for _, c := range storedColumns {
		if !ds.Columns.Has(c) {
			continue
		}
		if _, err := tx.Exec(ctx, `INSERT INTO dataset_columns (name) VALUES ($1)`, c); err != nil {
			return fmt.Errorf("postgres: failed to record column %s: %w", c, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit import: %w", err)
	}
	return nil
}

// Extract loads every stored observation ordered by group and date.
func (s *Source) Extract(ctx context.Context) (domain.Dataset, error) {
	columns, err := s.columns(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}

	query := `
		SELECT obs_date, region, country,
			   temperature_c, precipitation_mm, snow_depth_cm, wind_beaufort, elevation_m
		FROM observations
		ORDER BY region, country, obs_date
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("postgres: failed to query observations: %w", err)
	}
	defer rows.Close()

	ds := domain.Dataset{Columns: columns}
	for rows.Next() {
		var (
			o    domain.Observation
			date *time.Time
		)
		if err := rows.Scan(
			&date, &o.Region, &o.Country,
			&o.TemperatureC, &o.PrecipitationMM, &o.SnowDepthCM, &o.WindBeaufort, &o.ElevationM,
		); err != nil {
			return domain.Dataset{}, fmt.Errorf("postgres: failed to scan observation: %w", err)
		}
		if date != nil {
			o.Date = date.UTC()
		}
		ds.Observations = append(ds.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Dataset{}, fmt.Errorf("postgres: failed to read observations: %w", err)
	}
	return ds, nil
}

// Count returns the number of stored observations.
func (s *Source) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: failed to count observations: %w", err)
	}
	return n, nil
}

func (s *Source) columns(ctx context.Context) (domain.ColumnSet, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM dataset_columns`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query columns: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to read columns: %w", err)
	}
	return domain.NewColumnSet(names...), nil
}
