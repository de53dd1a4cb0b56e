// Package postgres implements a Postgres aggregate sink using pgx v5. Rows go
// in via COPY, which is cheap even for the largest char histograms.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres sink configuration.
type Config struct {
	// DSN is the pgxpool connection string.
	DSN string

	// Table is the destination table, optionally schema-qualified
	// ("public.aggregates"). Created when missing.
	Table string
}

// Repository is a Postgres-backed aggregate sink.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository connects, fails fast on an unreachable DSN, and ensures the
// destination table exists.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	r := &Repository{pool: pool, cfg: cfg}
	if err := r.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  job     TEXT NOT NULL,
  section TEXT NOT NULL,
  key     TEXT NOT NULL,
  subkey  TEXT NOT NULL DEFAULT '',
  count   BIGINT NOT NULL
)`, pgFQN(r.cfg.Table))
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", r.cfg.Table, err)
	}
	return nil
}

// SaveAggregate clears any previous rows for the job and COPYs the new ones,
// inside one transaction so readers never observe a half-written run.
func (r *Repository) SaveAggregate(ctx context.Context, job string, rows [][]any) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE job = $1", pgFQN(r.cfg.Table)), job,
	); err != nil {
		return fmt.Errorf("postgres: clear previous run: %w", err)
	}

	if _, err := tx.CopyFrom(
		ctx,
		tableIdent(r.cfg.Table),
		[]string{"job", "section", "key", "subkey", "count"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("postgres: copy: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// pgIdent quotes a single identifier.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// pgFQN quotes a possibly schema-qualified name ("schema.table").
func pgFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			quoted = append(quoted, pgIdent(p))
		}
	}
	return strings.Join(quoted, ".")
}

// tableIdent converts "schema.table" into the pgx identifier form.
func tableIdent(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	out := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
