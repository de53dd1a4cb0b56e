// Package file implements the local filesystem input source for record runs.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Local is a filesystem input source. The returned readers are sequential;
// the pipeline gives the producer exclusive ownership of the open file, so
// Local never hands the same reader to two callers.
type Local struct {
	path     string
	encoding string
}

// NewLocal returns a source bound to path. encoding selects how raw bytes are
// decoded to text; see NewDecodingReader for the accepted names. An empty
// encoding means UTF-8 passthrough.
func NewLocal(path, encoding string) *Local {
	return &Local{path: path, encoding: encoding}
}

// Open opens the input for reading and returns a decoded text stream.
//
// Behavior:
//   - If ctx is already canceled, Open returns the context error without
//     touching the filesystem.
//   - The file descriptor is given best-effort kernel readahead hints, since
//     every run is one large sequential pass.
//   - Filesystem errors are wrapped with the path, preserving errors.Is/As.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}

	// Best-effort kernel hint: large sequential pass; please readahead.
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)

	dec, err := NewDecodingReader(f, l.encoding)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &decodedFile{Reader: dec, f: f}, nil
}

// Size returns the input size in bytes, for progress and rate reporting.
func (l *Local) Size() (int64, error) {
	st, err := os.Stat(l.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", l.path, err)
	}
	return st.Size(), nil
}

// decodedFile pairs the decoding reader with the file it wraps so Close
// releases the descriptor.
type decodedFile struct {
	io.Reader
	f *os.File
}

func (d *decodedFile) Close() error { return d.f.Close() }
