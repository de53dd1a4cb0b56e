// Package config defines the canonical, JSON-serializable configuration model
// for a record-statistics run. It is intentionally small, explicit, and
// dependency-free so that run specs can be loaded from disk and passed through
// the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure of run spec files.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library, with environment-variable fallbacks resolved at
//     load time (12-factor style).
//
// Example:
//
//	{
//	  "job":     "rockyou-stats",
//	  "input":   { "path": "rockyou.txt", "encoding": "latin1", "strip_crlf": true },
//	  "runtime": { "batch_size": 10000, "queue_capacity": 6, "workers": 0 },
//	  "report":  { "top_lengths": 25, "sink": { "kind": "sqlite", "dsn": "pwstats.db", "table": "aggregates" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Run describes one full aggregation run. It is the top-level object decoded
// from a run spec file.
type Run struct {
	// Job names the run; it is used for metrics labeling and log lines.
	Job string `json:"job"`

	// Input describes where records come from and how their bytes decode.
	Input Input `json:"input"`

	// Runtime controls concurrency, batching, and queue bounds.
	Runtime Runtime `json:"runtime"`

	// Report configures rendering and the optional persistence sink.
	Report Report `json:"report"`
}

// Input identifies the record source.
type Input struct {
	// Path is the local filesystem path to the newline-delimited input file.
	Path string `json:"path"`

	// Encoding names the byte encoding of the input ("", "utf8", "latin1",
	// "utf16le", "utf16be"). Empty means UTF-8.
	Encoding string `json:"encoding"`

	// StripCRLF removes a trailing '\r' from each record (for CRLF inputs).
	StripCRLF bool `json:"strip_crlf"`
}

// Runtime controls the pipeline's concurrency and batching. Zero values mean
// "use the default" and may be overridden by PWSTATS_* environment variables.
type Runtime struct {
	// BatchSize is the number of records grouped into one batch.
	BatchSize int `json:"batch_size"`

	// MaxBatches caps how many batches are read; 0 reads the whole input.
	MaxBatches int `json:"max_batches"`

	// QueueCapacity bounds the number of batches in flight ahead of the
	// workers; together with BatchSize it caps peak memory.
	QueueCapacity int `json:"queue_capacity"`

	// Workers is the number of parallel aggregation workers; 0 means
	// GOMAXPROCS.
	Workers int `json:"workers"`
}

// Report configures output of the final aggregate.
type Report struct {
	// TopLengths limits the length-histogram table to the N most common
	// lengths; 0 prints all of them.
	TopLengths int `json:"top_lengths"`

	// Sink optionally persists the aggregate; an empty Kind disables it.
	Sink Sink `json:"sink"`
}

// Sink selects the storage backend used to persist aggregate rows.
type Sink struct {
	// Kind selects the backend: "sqlite" or "postgres". Empty means none.
	Kind string `json:"kind"`

	// DSN is the backend connection string (a file path works for sqlite).
	DSN string `json:"dsn"`

	// Table is the destination table name.
	Table string `json:"table"`
}

// Defaults applied by Load when neither the spec nor the environment sets a
// value. The queue capacity matches pipeline.DefaultQueueCapacity.
const (
	DefaultBatchSize     = 10000
	DefaultQueueCapacity = 6
)

// Load reads a run spec from path, decodes it, and resolves runtime defaults
// with environment-variable fallbacks: PWSTATS_BATCH_SIZE,
// PWSTATS_MAX_BATCHES, PWSTATS_QUEUE_CAPACITY, PWSTATS_WORKERS. A value set
// in the spec wins over the environment; the environment wins over defaults.
func Load(path string) (Run, error) {
	var r Run
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("read run spec: %w", err)
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode run spec %s: %w", path, err)
	}
	r.Runtime = resolveRuntime(r.Runtime)
	return r, nil
}

// resolveRuntime fills unset runtime fields from the environment and defaults.
func resolveRuntime(rt Runtime) Runtime {
	rt.BatchSize = pickInt(rt.BatchSize, getenvInt("PWSTATS_BATCH_SIZE", DefaultBatchSize))
	rt.MaxBatches = pickInt(rt.MaxBatches, getenvInt("PWSTATS_MAX_BATCHES", 0))
	rt.QueueCapacity = pickInt(rt.QueueCapacity, getenvInt("PWSTATS_QUEUE_CAPACITY", DefaultQueueCapacity))
	rt.Workers = pickInt(rt.Workers, getenvInt("PWSTATS_WORKERS", 0))
	return rt
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt returns 'a' unless it is zero ("unset"), otherwise 'b'. Negative
// values pass through so Validate can reject them instead of them being
// silently replaced.
func pickInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}
