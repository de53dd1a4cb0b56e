// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the aggregation pipeline.
//
// It exposes a narrow Backend interface (counters plus timing histograms) and
// a global, pluggable backend that defaults to a no-op implementation, so the
// pipeline stages can record metrics unconditionally whether or not a real
// backend is configured.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends. It is intentionally
// generic so a Prometheus or statsd implementation can be plugged in without
// touching the pipeline.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it.
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRecords adds to the per-job record counter. Typical kinds mirror the
// run summary fields: "aggregated", "read".
func RecordRecords(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("pwstats_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches adds to the per-job batch counter.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("pwstats_batches_total", float64(delta), Labels{
		"job": job,
	})
}

// RecordStage measures latency plus success/failure for one pipeline stage
// ("produce", "aggregate", "fold").
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}
	backend.IncCounter("pwstats_stage_total", 1, lbls)
	backend.ObserveHistogram("pwstats_stage_duration_seconds", d.Seconds(), lbls)
}
