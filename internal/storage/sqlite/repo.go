// Package sqlite implements a SQLite-backed aggregate sink using database/sql.
// Rows are inserted with a prepared multi-value INSERT inside one transaction;
// SQLite has no bulk-load API, but a single transaction keeps the write fast
// for the few thousand rows an aggregate produces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // cgo-free SQLite driver
)

// Config holds SQLite sink configuration.
type Config struct {
	// DSN is a SQLite connection string or plain file path, e.g.
	// "file:pwstats.db?cache=shared" or "pwstats.db".
	DSN string

	// Table is the destination table name, created when missing.
	Table string
}

// Repository is a SQLite-backed aggregate sink.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens the database, fails fast on an unreachable DSN, and
// ensures the destination table exists.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	r := &Repository{db: db, cfg: cfg}
	if err := r.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
  job     TEXT NOT NULL,
  section TEXT NOT NULL,
  key     TEXT NOT NULL,
  subkey  TEXT NOT NULL DEFAULT '',
  count   INTEGER NOT NULL
)`, r.cfg.Table)
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", r.cfg.Table, err)
	}
	return nil
}

// SaveAggregate inserts rows in one transaction, replacing any previous rows
// for the same job so reruns stay idempotent.
func (r *Repository) SaveAggregate(ctx context.Context, job string, rows [][]any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %q WHERE job = ?", r.cfg.Table), job,
	); err != nil {
		return fmt.Errorf("sqlite: clear previous run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %q (job, section, key, subkey, count) VALUES (?, ?, ?, ?, ?)", r.cfg.Table,
	))
	if err != nil {
		return fmt.Errorf("sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("sqlite: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (r *Repository) Close() error { return r.db.Close() }
