package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// validRun returns a run that validates cleanly; tests mutate one field at a
// time.
func validRun() Run {
	return Run{
		Job: "test",
		Input: Input{
			Path:     "input.txt",
			Encoding: "latin1",
		},
		Runtime: Runtime{
			BatchSize:     1000,
			QueueCapacity: 6,
			Workers:       4,
		},
	}
}

func TestValidateCleanRun(t *testing.T) {
	t.Parallel()

	if issues := Validate(validRun()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateMissingInputPath(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Input.Path = "  "
	issues := Validate(r)
	if !hasIssue(t, issues, SeverityError, "input.path", "must not be empty") {
		t.Fatalf("expected input.path error; got %+v", issues)
	}
	if !HasErrors(issues) {
		t.Fatal("HasErrors should report true")
	}
}

func TestValidateUnknownEncoding(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Input.Encoding = "ebcdic"
	if !hasIssue(t, Validate(r), SeverityError, "input.encoding", "unknown encoding") {
		t.Fatal("expected encoding error")
	}
}

func TestValidateRuntimeBounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Run)
		path   string
	}{
		{"zero batch size", func(r *Run) { r.Runtime.BatchSize = 0 }, "runtime.batch_size"},
		{"negative batch size", func(r *Run) { r.Runtime.BatchSize = -5 }, "runtime.batch_size"},
		{"zero queue capacity", func(r *Run) { r.Runtime.QueueCapacity = 0 }, "runtime.queue_capacity"},
		{"negative queue capacity", func(r *Run) { r.Runtime.QueueCapacity = -1 }, "runtime.queue_capacity"},
		{"negative workers", func(r *Run) { r.Runtime.Workers = -2 }, "runtime.workers"},
		{"negative max batches", func(r *Run) { r.Runtime.MaxBatches = -1 }, "runtime.max_batches"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := validRun()
			c.mutate(&r)
			if !hasIssue(t, Validate(r), SeverityError, c.path, "") {
				t.Fatalf("expected error at %s", c.path)
			}
		})
	}
}

func TestValidateInFlightMemoryWarning(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Runtime.BatchSize = 10_000_000
	r.Runtime.QueueCapacity = 10
	if !hasIssue(t, Validate(r), SeverityWarning, "runtime", "peak memory") {
		t.Fatal("expected in-flight memory warning")
	}
}

func TestValidateSink(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Report.Sink = Sink{Kind: "sqlite"}
	issues := Validate(r)
	if !hasIssue(t, issues, SeverityError, "report.sink.dsn", "must not be empty") {
		t.Fatalf("expected sink.dsn error; got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "report.sink.table", "must not be empty") {
		t.Fatalf("expected sink.table error; got %+v", issues)
	}

	r.Report.Sink = Sink{Kind: "cassandra", DSN: "x", Table: "t"}
	if !hasIssue(t, Validate(r), SeverityWarning, "report.sink.kind", "unknown sink kind") {
		t.Fatal("expected unknown-kind warning")
	}

	// No sink configured is fine.
	r.Report.Sink = Sink{}
	if issues := Validate(r); len(issues) != 0 {
		t.Fatalf("empty sink should validate cleanly, got %+v", issues)
	}
}

func TestValidateEmptyJobIsWarning(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Job = ""
	issues := Validate(r)
	if !hasIssue(t, issues, SeverityWarning, "job", "job is empty") {
		t.Fatal("expected job warning")
	}
	if HasErrors(issues) {
		t.Fatal("a missing job must not block execution")
	}
}
