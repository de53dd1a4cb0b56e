package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"pwstats/internal/stats"
)

// View is the JSON-serializable projection of an Aggregate. Rune keys become
// strings so the char histogram survives the trip through JSON.
type View struct {
	Records          int64                 `json:"records"`
	Batches          int64                 `json:"batches"`
	Chars            int64                 `json:"chars"`
	DistinctEstimate uint64                `json:"distinct_estimate"`
	LengthHist       map[int]int64         `json:"length_hist"`
	CharHist         map[string]int64      `json:"char_hist"`
	LengthEntropy    map[int]map[int]int64 `json:"length_entropy"`
}

// NewView builds the export projection of a.
func NewView(a *stats.Aggregate) View {
	chars := make(map[string]int64, len(a.CharHist))
	for r, c := range a.CharHist {
		chars[string(r)] = c
	}
	return View{
		Records:          a.Records,
		Batches:          a.Batches,
		Chars:            a.NumChars(),
		DistinctEstimate: a.DistinctEstimate(),
		LengthHist:       a.LengthHist,
		CharHist:         chars,
		LengthEntropy:    a.LengthEntropyHist,
	}
}

// WriteJSON writes the aggregate as one indented JSON document.
func WriteJSON(w io.Writer, a *stats.Aggregate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewView(a)); err != nil {
		return fmt.Errorf("encode aggregate json: %w", err)
	}
	return nil
}

// WriteCSV writes the three histograms as one flat CSV with a section column:
//
//	section,key,subkey,count
//	length,8,,4521
//	char,a,,99213
//	entropy,8,3,1200
//
// Rows are emitted in sorted key order so the output is reproducible.
func WriteCSV(w io.Writer, a *stats.Aggregate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "key", "subkey", "count"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, n := range sortedLengths(a) {
		rec := []string{"length", strconv.Itoa(n), "", strconv.FormatInt(a.LengthHist[n], 10)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write length row: %w", err)
		}
	}

	runes := make([]rune, 0, len(a.CharHist))
	for r := range a.CharHist {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	for _, r := range runes {
		rec := []string{"char", string(r), "", strconv.FormatInt(a.CharHist[r], 10)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write char row: %w", err)
		}
	}

	for _, n := range sortedLengths(a) {
		byClass := a.LengthEntropyHist[n]
		for class := 0; class <= maxEntropyClass; class++ {
			c, ok := byClass[class]
			if !ok {
				continue
			}
			rec := []string{"entropy", strconv.Itoa(n), strconv.Itoa(class), strconv.FormatInt(c, 10)}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("write entropy row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
