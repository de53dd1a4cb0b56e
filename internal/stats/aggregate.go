// Package stats defines the Aggregate accumulator summarizing a stream of
// records, plus the pure per-record classification helpers it relies on.
//
// Aggregate is a commutative monoid: NewAggregate() is the identity, and
// Merge combines two accumulators so that any grouping or ordering of partial
// merges yields the same result as one sequential pass over all records. That
// property is what lets the pipeline fan batches out to workers and fold the
// partial results back together in arrival order.
package stats

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Aggregate accumulates statistics over records folded into it.
//
// The zero value is not usable; construct with NewAggregate so the histogram
// maps and the distinct estimator exist.
type Aggregate struct {
	// Records is the number of records folded in. It always equals the sum
	// of LengthHist values, which equals the sum of all entropy-class counts.
	Records int64

	// Batches counts how many batches contributed (diagnostic only; a merge
	// of two aggregates sums it).
	Batches int64

	// LengthHist maps record length (in runes) to record count.
	LengthHist map[int]int64

	// CharHist maps each rune to its total number of occurrences.
	CharHist map[rune]int64

	// LengthEntropyHist maps record length to a per-entropy-class count.
	LengthEntropyHist map[int]map[int]int64

	distinct *Estimator
}

// NewAggregate returns the identity Aggregate: zero records, empty histograms.
func NewAggregate() *Aggregate {
	return &Aggregate{
		LengthHist:        make(map[int]int64),
		CharHist:          make(map[rune]int64),
		LengthEntropyHist: make(map[int]map[int]int64),
		distinct:          NewEstimator(DefaultPrecision),
	}
}

// Add folds a single record into the aggregate.
func (a *Aggregate) Add(record string) {
	runes := []rune(record)
	n := len(runes)

	a.Records++
	a.LengthHist[n]++
	for _, r := range runes {
		a.CharHist[r]++
	}

	class := EntropyClass(record)
	byClass := a.LengthEntropyHist[n]
	if byClass == nil {
		byClass = make(map[int]int64)
		a.LengthEntropyHist[n] = byClass
	}
	byClass[class]++

	a.distinct.Add(xxh3.HashString(record))
}

// FromRecords aggregates one batch of records into a fresh Aggregate.
// It touches no shared state, so concurrent calls over disjoint batches are safe.
func FromRecords(records []string) *Aggregate {
	a := NewAggregate()
	for _, r := range records {
		a.Add(r)
	}
	a.Batches = 1
	return a
}

// Merge folds other into a. Merge is commutative and associative, and the
// identity aggregate is a no-op on either side. The only failure mode is a
// distinct-estimator precision mismatch, which is a programming error.
func (a *Aggregate) Merge(other *Aggregate) error {
	if other == nil {
		return nil
	}
	if err := a.distinct.Merge(other.distinct); err != nil {
		return fmt.Errorf("merge aggregate: %w", err)
	}

	a.Records += other.Records
	a.Batches += other.Batches
	for n, c := range other.LengthHist {
		a.LengthHist[n] += c
	}
	for r, c := range other.CharHist {
		a.CharHist[r] += c
	}
	for n, byClass := range other.LengthEntropyHist {
		dst := a.LengthEntropyHist[n]
		if dst == nil {
			dst = make(map[int]int64, len(byClass))
			a.LengthEntropyHist[n] = dst
		}
		for class, c := range byClass {
			dst[class] += c
		}
	}
	return nil
}

// Count returns how many records of the given length were seen.
func (a *Aggregate) Count(length int) int64 { return a.LengthHist[length] }

// NumChars returns the total number of character occurrences across all
// records, i.e. the sum over CharHist.
func (a *Aggregate) NumChars() int64 {
	var sum int64
	for _, c := range a.CharHist {
		sum += c
	}
	return sum
}

// EntropyHistogram returns a copy of the entropy-class counts for records of
// the given length. The copy is safe for the caller to mutate.
func (a *Aggregate) EntropyHistogram(length int) map[int]int64 {
	src := a.LengthEntropyHist[length]
	out := make(map[int]int64, len(src))
	for class, c := range src {
		out[class] = c
	}
	return out
}

// DistinctEstimate returns the approximate number of distinct records seen.
func (a *Aggregate) DistinctEstimate() uint64 { return a.distinct.Count() }

// Equal reports field-wise equality of the histogram counts and record totals.
// The distinct estimators are compared register-for-register, so two
// aggregates built from the same record multiset always compare equal.
func (a *Aggregate) Equal(other *Aggregate) bool {
	if a.Records != other.Records {
		return false
	}
	if !int64MapsEqual(a.LengthHist, other.LengthHist) {
		return false
	}
	if len(a.CharHist) != len(other.CharHist) {
		return false
	}
	for r, c := range a.CharHist {
		if other.CharHist[r] != c {
			return false
		}
	}
	if len(a.LengthEntropyHist) != len(other.LengthEntropyHist) {
		return false
	}
	for n, byClass := range a.LengthEntropyHist {
		if !int64MapsEqual(byClass, other.LengthEntropyHist[n]) {
			return false
		}
	}
	return a.distinct.Equal(other.distinct)
}

func int64MapsEqual(a, b map[int]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
