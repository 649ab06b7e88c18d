// Package store persists processing-run history in PostgreSQL. The store is
// optional: when no database is configured the server runs without it, and a
// failure to record a run is logged by the caller, never fatal.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avforge/catalogstd/internal/config"
)

// Run is one processing-run history row.
type Run struct {
	ID           uuid.UUID       `json:"id"`
	FileName     string          `json:"file_name"`
	Format       string          `json:"format"`
	RowCount     int             `json:"row_count"`
	RecordCount  int             `json:"record_count"`
	ValidCount   int             `json:"valid_count"`
	InvalidCount int             `json:"invalid_count"`
	Mapping      json.RawMessage `json:"field_mapping"`
	Duration     time.Duration   `json:"duration"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the configured database and ensures the runs table
// exists.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pc.MaxConns = int32(cfg.MaxConns)
	pc.MinConns = int32(cfg.MinConns)
	pc.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS processing_runs (
    id            UUID PRIMARY KEY,
    file_name     TEXT NOT NULL,
    format        TEXT NOT NULL,
    row_count     INTEGER NOT NULL,
    record_count  INTEGER NOT NULL,
    valid_count   INTEGER NOT NULL,
    invalid_count INTEGER NOT NULL,
    field_mapping JSONB,
    duration_ms   BIGINT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordRun inserts one run. The ID and CreatedAt are filled if zero.
func (s *Store) RecordRun(ctx context.Context, r *Run) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO processing_runs
    (id, file_name, format, row_count, record_count, valid_count, invalid_count, field_mapping, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.pool.Exec(ctx, q,
		r.ID, r.FileName, r.Format, r.RowCount, r.RecordCount,
		r.ValidCount, r.InvalidCount, r.Mapping, r.Duration.Milliseconds(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, file_name, format, row_count, record_count, valid_count, invalid_count, field_mapping, duration_ms, created_at
FROM processing_runs
ORDER BY created_at DESC
LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.FileName, &r.Format, &r.RowCount, &r.RecordCount,
			&r.ValidCount, &r.InvalidCount, &r.Mapping, &durationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
