// Package sqlite stores observation tables in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/couchcryptid/snow-rank/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS observations (
  obs_date         TEXT,
  region           TEXT NOT NULL DEFAULT '',
  country          TEXT NOT NULL DEFAULT '',
  temperature_c    REAL,
  precipitation_mm REAL,
  snow_depth_cm    REAL,
  wind_beaufort    REAL,
  elevation_m      REAL
);
CREATE INDEX IF NOT EXISTS idx_observations_group ON observations(region, country, obs_date);
CREATE TABLE IF NOT EXISTS dataset_columns (
  name TEXT PRIMARY KEY
);
`

// storedColumns are the columns the observations table can carry. New snow is always
// derived and never stored.
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

// Store reads and writes observations. It implements pipeline.DatasetExtractor.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}
	s := &Store{db: db}
	if err := s.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Count returns the number of stored observations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&n)
	return n, err
}

// Import replaces the stored dataset with ds in one transaction.
func (s *Store) Import(ctx context.Context, ds domain.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations; DELETE FROM dataset_columns;`); err != nil {
		return fmt.Errorf("clear dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO observations
(obs_date, region, country, temperature_c, precipitation_mm, snow_depth_cm, wind_beaufort, elevation_m)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range ds.Observations {
		if _, err := stmt.ExecContext(ctx,
			formatDate(o.Date), o.Region, o.Country,
			nullable(o.TemperatureC), nullable(o.PrecipitationMM), nullable(o.SnowDepthCM),
			nullable(o.WindBeaufort), nullable(o.ElevationM),
		); err != nil {
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	for _, c := range storedColumns {
		if !ds.Columns.Has(c) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO dataset_columns (name) VALUES (?)`, c); err != nil {
			return fmt.Errorf("record column %s: %w", c, err)
		}
	}
	return tx.Commit()
}

// Extract loads every stored observation ordered by group and date.
func (s *Store) Extract(ctx context.Context) (domain.Dataset, error) {
	columns, err := s.columns(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT obs_date, region, country, temperature_c, precipitation_mm, snow_depth_cm, wind_beaufort, elevation_m
FROM observations
ORDER BY region, country, obs_date
`)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	ds := domain.Dataset{Columns: columns}
	for rows.Next() {
		var (
			date                          sql.NullString
			o                             domain.Observation
			temp, precip, depth, wind, el sql.NullFloat64
		)
		if err := rows.Scan(&date, &o.Region, &o.Country, &temp, &precip, &depth, &wind, &el); err != nil {
			return domain.Dataset{}, fmt.Errorf("scan observation: %w", err)
		}
		if date.Valid && date.String != "" {
			t, err := time.Parse(dateLayout, date.String)
			if err != nil {
				return domain.Dataset{}, fmt.Errorf("parse stored date %q: %w", date.String, err)
			}
			o.Date = t
		}
		o.TemperatureC = float(temp)
		o.PrecipitationMM = float(precip)
		o.SnowDepthCM = float(depth)
		o.WindBeaufort = float(wind)
		o.ElevationM = float(el)
		ds.Observations = append(ds.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return domain.Dataset{}, fmt.Errorf("iterate observations: %w", err)
	}
	return ds, nil
}

func (s *Store) columns(ctx context.Context) (domain.ColumnSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM dataset_columns`)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	cs := domain.NewColumnSet()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cs.Add(name)
	}
	return cs, rows.Err()
}

func formatDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(dateLayout)
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func float(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return domain.Float(n.Float64)
}
