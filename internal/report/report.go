// Package report renders and exports the final aggregate of a run: fixed-width
// text tables for terminals, CSV and JSON for downstream tabulation. Rendering
// is deliberately deterministic (sorted keys) so outputs are diffable.
package report

import (
	"fmt"
	"io"
	"sort"

	"pwstats/internal/stats"
)

// maxEntropyClass is the top entropy class EntropyClass can produce.
const maxEntropyClass = 6

// WriteSummary prints the run totals.
func WriteSummary(w io.Writer, a *stats.Aggregate) error {
	_, err := fmt.Fprintf(w,
		"records=%d batches=%d chars=%d distinct_lengths=%d distinct_records~%d\n",
		a.Records, a.Batches, a.NumChars(), len(a.LengthHist), a.DistinctEstimate(),
	)
	return err
}

// WriteLengthTable prints the record-length histogram, most common lengths
// first, limited to top rows (0 prints all). Ties break on smaller length so
// the table is stable.
func WriteLengthTable(w io.Writer, a *stats.Aggregate, top int) error {
	lengths := sortedLengths(a)
	sort.SliceStable(lengths, func(i, j int) bool {
		ci, cj := a.LengthHist[lengths[i]], a.LengthHist[lengths[j]]
		if ci != cj {
			return ci > cj
		}
		return lengths[i] < lengths[j]
	})
	if top > 0 && len(lengths) > top {
		lengths = lengths[:top]
	}

	if _, err := fmt.Fprintf(w, "%8s %12s %8s\n", "length", "count", "pct"); err != nil {
		return err
	}
	for _, n := range lengths {
		c := a.LengthHist[n]
		pct := 0.0
		if a.Records > 0 {
			pct = 100 * float64(c) / float64(a.Records)
		}
		if _, err := fmt.Fprintf(w, "%8d %12d %7.2f%%\n", n, c, pct); err != nil {
			return err
		}
	}
	return nil
}

// WriteEntropyMatrix prints the length x entropy-class count matrix, lengths
// ascending, one column per class.
func WriteEntropyMatrix(w io.Writer, a *stats.Aggregate) error {
	if _, err := fmt.Fprintf(w, "%8s", "length"); err != nil {
		return err
	}
	for class := 0; class <= maxEntropyClass; class++ {
		if _, err := fmt.Fprintf(w, " %10s", fmt.Sprintf("class%d", class)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for _, n := range sortedLengths(a) {
		byClass := a.LengthEntropyHist[n]
		if _, err := fmt.Fprintf(w, "%8d", n); err != nil {
			return err
		}
		for class := 0; class <= maxEntropyClass; class++ {
			if _, err := fmt.Fprintf(w, " %10d", byClass[class]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// sortedLengths returns the observed lengths in ascending order.
func sortedLengths(a *stats.Aggregate) []int {
	lengths := make([]int, 0, len(a.LengthHist))
	for n := range a.LengthHist {
		lengths = append(lengths, n)
	}
	sort.Ints(lengths)
	return lengths
}
