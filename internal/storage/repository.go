// Package storage contains the storage-agnostic contract for persisting a
// run's final aggregate, plus the backend dispatch. Concrete backends live in
// subpackages and are never imported by the pipeline; callers depend only on
// Repository.
package storage

import (
	"context"
	"fmt"
	"strconv"

	"pwstats/internal/stats"
	"pwstats/internal/storage/postgres"
	"pwstats/internal/storage/sqlite"
)

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend implementation: "sqlite" or "postgres".
	Kind string

	// DSN is the backend connection string. For sqlite a plain file path works.
	DSN string

	// Table is the destination table; it is created when missing.
	Table string
}

// Repository persists flattened aggregate rows.
type Repository interface {
	// SaveAggregate writes every histogram entry of a as one row, labeled
	// with the job name, inside a single transaction.
	SaveAggregate(ctx context.Context, job string, rows [][]any) error
	Close() error
}

// Columns is the destination column order shared by all backends.
var Columns = []string{"job", "section", "key", "subkey", "count"}

// New constructs the repository selected by cfg.
func New(ctx context.Context, cfg Config) (Repository, error) {
	switch cfg.Kind {
	case "sqlite":
		return sqlite.NewRepository(ctx, sqlite.Config{DSN: cfg.DSN, Table: cfg.Table})
	case "postgres":
		return postgres.NewRepository(ctx, postgres.Config{DSN: cfg.DSN, Table: cfg.Table})
	default:
		return nil, fmt.Errorf("unsupported sink kind %q", cfg.Kind)
	}
}

// Rows flattens a into the row shape of Columns: one row per length count,
// per char count, and per length/entropy-class count, plus a "total" row
// carrying the record count. Iteration order is unspecified; consumers that
// need determinism should sort downstream, as the sink tables are queried,
// not diffed.
func Rows(job string, a *stats.Aggregate) [][]any {
	rows := make([][]any, 0, len(a.LengthHist)+len(a.CharHist)+8)
	rows = append(rows, []any{job, "total", "records", "", a.Records})
	rows = append(rows, []any{job, "total", "distinct_estimate", "", int64(a.DistinctEstimate())})

	for n, c := range a.LengthHist {
		rows = append(rows, []any{job, "length", strconv.Itoa(n), "", c})
	}
	for r, c := range a.CharHist {
		rows = append(rows, []any{job, "char", string(r), "", c})
	}
	for n, byClass := range a.LengthEntropyHist {
		for class, c := range byClass {
			rows = append(rows, []any{job, "entropy", strconv.Itoa(n), strconv.Itoa(class), c})
		}
	}
	return rows
}
