package scan

import (
	"fmt"
	"io"
)

// BatchReader groups consecutive lines into fixed-size batches. It stops at
// end of input or, when maxBatches > 0, after that many batches. A reader is
// single-shot: once it has returned io.EOF or an error it stays exhausted,
// and resuming requires constructing a fresh reader over a fresh stream.
type BatchReader struct {
	lines      *Lines
	batchSize  int
	maxBatches int
	produced   int
	done       bool
}

// NewBatchReader returns a reader producing batches of up to batchSize lines.
// maxBatches == 0 means unbounded.
func NewBatchReader(lines *Lines, batchSize, maxBatches int) (*BatchReader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", batchSize)
	}
	if maxBatches < 0 {
		return nil, fmt.Errorf("max batches must be >= 0, got %d", maxBatches)
	}
	return &BatchReader{lines: lines, batchSize: batchSize, maxBatches: maxBatches}, nil
}

// Next returns the next batch, or io.EOF when the input is exhausted or the
// batch cap was reached. A read failure mid-batch discards the partial batch
// and returns the error; no records from it are ever yielded.
func (b *BatchReader) Next() ([]string, error) {
	if b.done {
		return nil, io.EOF
	}
	if b.maxBatches > 0 && b.produced >= b.maxBatches {
		b.done = true
		return nil, io.EOF
	}

	batch := make([]string, 0, b.batchSize)
	for len(batch) < b.batchSize {
		line, err := b.lines.Next()
		if err == io.EOF {
			b.done = true
			if len(batch) == 0 {
				return nil, io.EOF
			}
			b.produced++
			return batch, nil
		}
		if err != nil {
			b.done = true
			return nil, err
		}
		batch = append(batch, line)
	}

	b.produced++
	return batch, nil
}
