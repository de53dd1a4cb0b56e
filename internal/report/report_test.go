package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"pwstats/internal/stats"
)

func sample(t *testing.T) *stats.Aggregate {
	t.Helper()
	return stats.FromRecords([]string{"aaa", "bbb", "ccccc", "Ab1!", "Ab1!"})
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteSummary(&buf, sample(t)); err != nil {
		t.Fatalf("summary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "records=5") {
		t.Errorf("summary missing record count: %q", out)
	}
	if !strings.Contains(out, "chars=19") {
		t.Errorf("summary missing char count: %q", out)
	}
}

func TestWriteLengthTableOrderAndLimit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteLengthTable(&buf, sample(t), 2); err != nil {
		t.Fatalf("table: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	// Header plus the two most common lengths. Length 3 (count 2) ties with
	// length 4 (count 2); the smaller length sorts first.
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], "3") || !strings.Contains(lines[1], "40.00%") {
		t.Errorf("first data row = %q", lines[1])
	}
}

func TestWriteLengthTableDeterministic(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	if err := WriteLengthTable(&a, sample(t), 0); err != nil {
		t.Fatal(err)
	}
	if err := WriteLengthTable(&b, sample(t), 0); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Fatal("length table output is not deterministic")
	}
}

func TestWriteEntropyMatrix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteEntropyMatrix(&buf, sample(t)); err != nil {
		t.Fatalf("matrix: %v", err)
	}
	out := buf.String()

	// Lengths 3, 4, 5 ascending plus a header row.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), out)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "length") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	agg := sample(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, agg); err != nil {
		t.Fatalf("csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse back: %v", err)
	}
	if rows[0][0] != "section" {
		t.Fatalf("header = %v", rows[0])
	}

	var lengthTotal int64
	for _, row := range rows[1:] {
		if row[0] != "length" {
			continue
		}
		n, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			t.Fatalf("bad count %q: %v", row[3], err)
		}
		lengthTotal += n
	}
	if lengthTotal != agg.Records {
		t.Fatalf("length section sums to %d, want %d", lengthTotal, agg.Records)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample(t)); err != nil {
		t.Fatalf("json: %v", err)
	}

	var v View
	if err := json.Unmarshal(buf.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Records != 5 {
		t.Errorf("records=%d want 5", v.Records)
	}
	if v.CharHist["A"] != 2 {
		t.Errorf(`char_hist["A"]=%d want 2`, v.CharHist["A"])
	}
	if v.LengthHist[5] != 1 {
		t.Errorf("length_hist[5]=%d want 1", v.LengthHist[5])
	}
}

func TestEmptyAggregateRenders(t *testing.T) {
	t.Parallel()

	empty := stats.NewAggregate()
	var buf bytes.Buffer
	if err := WriteSummary(&buf, empty); err != nil {
		t.Fatal(err)
	}
	if err := WriteLengthTable(&buf, empty, 0); err != nil {
		t.Fatal(err)
	}
	if err := WriteEntropyMatrix(&buf, empty); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(&buf, empty); err != nil {
		t.Fatal(err)
	}
}
