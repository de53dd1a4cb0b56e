// Package scan turns a byte stream into records and records into batches.
//
// A record is one newline-delimited line. Lines handles inputs whose lines
// exceed the read buffer by accumulating partial reads into a carry buffer,
// and yields a final unterminated line, so no input shape silently drops data.
package scan

import (
	"bufio"
	"fmt"
	"io"
)

// readBufSize is the bufio buffer used while scanning. Lines longer than this
// are still handled, via the carry path.
const readBufSize = 1 << 20 // 1 MiB

// Lines is a sequential line reader over a single stream. It is not safe for
// concurrent use; the pipeline's producer is its only caller.
type Lines struct {
	r       *bufio.Reader
	stripCR bool
	carry   []byte
	done    bool
}

// NewLines returns a line reader over r. When stripCR is true a trailing '\r'
// is removed from each line (for CRLF inputs).
func NewLines(r io.Reader, stripCR bool) *Lines {
	return &Lines{
		r:       bufio.NewReaderSize(r, readBufSize),
		stripCR: stripCR,
	}
}

// Next returns the next line without its terminator, or io.EOF when the
// stream is exhausted. Any other error means the underlying read failed;
// the reader is unusable afterwards.
func (l *Lines) Next() (string, error) {
	if l.done {
		return "", io.EOF
	}
	l.carry = l.carry[:0]

	for {
		chunk, err := l.r.ReadSlice('\n')
		switch err {
		case nil:
			return l.finish(chunk[:len(chunk)-1]), nil
		case bufio.ErrBufferFull:
			// Line longer than the buffer: accumulate and keep reading.
			l.carry = append(l.carry, chunk...)
		case io.EOF:
			l.done = true
			if len(chunk) == 0 && len(l.carry) == 0 {
				return "", io.EOF
			}
			// Final unterminated line.
			return l.finish(chunk), nil
		default:
			l.done = true
			return "", fmt.Errorf("read line: %w", err)
		}
	}
}

func (l *Lines) finish(tail []byte) string {
	line := tail
	if len(l.carry) > 0 {
		line = append(l.carry, tail...)
	}
	if l.stripCR {
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
	}
	return string(line)
}
