// Package ledger records the outcome of every collection batch in Postgres.
package ledger

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/forum-corpus/internal/collector"
)

// DefaultTable holds one row per subreddit batch.
const DefaultTable = "collection_batches"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes batch rows and satisfies collector.BatchRecorder.
type Store struct {
	pool  execCloser
	table string
}

var _ collector.BatchRecorder = (*Store)(nil)

// New connects to Postgres and makes sure the ledger table exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("ledger.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool.
func NewWithPool(pool execCloser, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table}, nil
}

// EnsureSchema creates the ledger table when it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id      TEXT        NOT NULL,
	subreddit   TEXT        NOT NULL,
	collected   INTEGER     NOT NULL,
	duplicates  INTEGER     NOT NULL,
	short       INTEGER     NOT NULL,
	forbidden   BOOLEAN     NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, subreddit)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// RecordBatch inserts one batch row.
func (s *Store) RecordBatch(ctx context.Context, batch collector.Batch) error {
	if batch.RunID == "" {
		return fmt.Errorf("batch run id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, subreddit, collected, duplicates, short, forbidden, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.table)
	_, err := s.pool.Exec(ctx, query,
		batch.RunID,
		batch.Subreddit,
		batch.Collected,
		batch.Duplicates,
		batch.Short,
		batch.Forbidden,
		batch.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch %s/%s: %w", batch.RunID, batch.Subreddit, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
