package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeSpec writes a run spec file into a temp dir and returns its path.
func writeSpec(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestLoadFullSpec(t *testing.T) {
	path := writeSpec(t, `{
	  "job": "rockyou-stats",
	  "input": { "path": "rockyou.txt", "encoding": "latin1", "strip_crlf": true },
	  "runtime": { "batch_size": 5000, "max_batches": 10, "queue_capacity": 4, "workers": 8 },
	  "report": { "top_lengths": 25, "sink": { "kind": "sqlite", "dsn": "out.db", "table": "aggregates" } }
	}`)

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if r.Job != "rockyou-stats" {
		t.Errorf("job=%q", r.Job)
	}
	if r.Input.Path != "rockyou.txt" || r.Input.Encoding != "latin1" || !r.Input.StripCRLF {
		t.Errorf("input=%+v", r.Input)
	}
	if r.Runtime.BatchSize != 5000 || r.Runtime.MaxBatches != 10 ||
		r.Runtime.QueueCapacity != 4 || r.Runtime.Workers != 8 {
		t.Errorf("runtime=%+v", r.Runtime)
	}
	if r.Report.Sink.Kind != "sqlite" || r.Report.TopLengths != 25 {
		t.Errorf("report=%+v", r.Report)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeSpec(t, `{"job":"x","input":{"path":"in.txt"}}`)

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Runtime.BatchSize != DefaultBatchSize {
		t.Errorf("batch_size=%d want default %d", r.Runtime.BatchSize, DefaultBatchSize)
	}
	if r.Runtime.QueueCapacity != DefaultQueueCapacity {
		t.Errorf("queue_capacity=%d want default %d", r.Runtime.QueueCapacity, DefaultQueueCapacity)
	}
	if r.Runtime.Workers != 0 {
		t.Errorf("workers=%d want 0 (GOMAXPROCS)", r.Runtime.Workers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PWSTATS_BATCH_SIZE", "777")
	t.Setenv("PWSTATS_WORKERS", "3")

	// Spec value wins over env for queue_capacity; env wins over default for
	// batch_size and workers.
	path := writeSpec(t, `{"job":"x","input":{"path":"in.txt"},"runtime":{"queue_capacity":9}}`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if r.Runtime.BatchSize != 777 {
		t.Errorf("batch_size=%d want env 777", r.Runtime.BatchSize)
	}
	if r.Runtime.Workers != 3 {
		t.Errorf("workers=%d want env 3", r.Runtime.Workers)
	}
	if r.Runtime.QueueCapacity != 9 {
		t.Errorf("queue_capacity=%d want spec 9", r.Runtime.QueueCapacity)
	}
}

func TestLoadKeepsNegativeValues(t *testing.T) {
	// Negative runtime values must survive load so Validate can reject them.
	path := writeSpec(t, `{"job":"x","input":{"path":"in.txt"},"runtime":{"queue_capacity":-3}}`)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if r.Runtime.QueueCapacity != -3 {
		t.Errorf("queue_capacity=%d want -3 preserved", r.Runtime.QueueCapacity)
	}
	if !HasErrors(Validate(r)) {
		t.Error("negative queue_capacity passed validation")
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := writeSpec(t, `{"job": `)
	if _, err := Load(path); err == nil {
		t.Fatal("malformed spec accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing spec accepted")
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("PWSTATS_TEST_INT", "41")
	if got := getenvInt("PWSTATS_TEST_INT", 7); got != 41 {
		t.Errorf("got %d want 41", got)
	}
	t.Setenv("PWSTATS_TEST_INT", "not-a-number")
	if got := getenvInt("PWSTATS_TEST_INT", 7); got != 7 {
		t.Errorf("invalid value: got %d want default 7", got)
	}
	if got := getenvInt("PWSTATS_TEST_UNSET", 7); got != 7 {
		t.Errorf("unset: got %d want default 7", got)
	}
}

func TestIssueErrorFormat(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "input.path", Message: "must not be empty"}
	want := "error at input.path: must not be empty"
	if got := iss.Error(); !strings.Contains(got, want) {
		t.Errorf("Error()=%q want substring %q", got, want)
	}
}
