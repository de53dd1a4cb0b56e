// This file adds a lightweight linter/validator for Run values. It performs
// static checks over a decoded Run and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Run.
//
// Path is a dotted path into the config (e.g. "input.path",
// "runtime.queue_capacity"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Run. It does not mutate the run;
// callers decide whether warnings are fatal.
func Validate(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and log lines will be unlabeled",
		})
	}
	issues = append(issues, validateInput(r.Input)...)
	issues = append(issues, validateRuntime(r.Runtime)...)
	issues = append(issues, validateReport(r.Report)...)

	return issues
}

func validateInput(in Input) []Issue {
	var issues []Issue

	if strings.TrimSpace(in.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.path",
			Message:  "input.path must not be empty",
		})
	}

	known := map[string]struct{}{
		"": {}, "utf8": {}, "utf-8": {},
		"latin1": {}, "iso-8859-1": {},
		"utf16": {}, "utf16le": {}, "utf16be": {},
	}
	if _, ok := known[in.Encoding]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.encoding",
			Message:  fmt.Sprintf("unknown encoding %q", in.Encoding),
		})
	}

	return issues
}

func validateRuntime(rt Runtime) []Issue {
	var issues []Issue

	if rt.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size must be > 0, got %d", rt.BatchSize),
		})
	}
	if rt.MaxBatches < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.max_batches",
			Message:  "max_batches must not be negative",
		})
	}
	if rt.QueueCapacity <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.queue_capacity",
			Message:  fmt.Sprintf("queue_capacity must be > 0, got %d", rt.QueueCapacity),
		})
	}
	if rt.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}
	if rt.BatchSize > 0 && rt.QueueCapacity > 0 && rt.BatchSize*rt.QueueCapacity > 50_000_000 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime",
			Message:  "batch_size * queue_capacity exceeds 50M records in flight; peak memory may be very high",
		})
	}

	return issues
}

func validateReport(rp Report) []Issue {
	var issues []Issue

	if rp.TopLengths < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.top_lengths",
			Message:  "top_lengths must not be negative",
		})
	}

	s := rp.Sink
	if s.Kind == "" {
		return issues
	}

	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "report.sink.kind",
			Message:  fmt.Sprintf("unknown sink kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.sink.dsn",
			Message:  "sink.dsn must not be empty when a sink is configured",
		})
	}
	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "report.sink.table",
			Message:  "sink.table must not be empty when a sink is configured",
		})
	}

	return issues
}
