package granary

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/spf13/afero"
)

var tempCounter atomic.Uint64

// atomicWriter writes an entry to a temporary file next to its destination
// and renames it into place on Close, so readers never observe a partial entry.
type atomicWriter struct {
	fs     afero.Fs
	dst    string
	tmp    string
	file   afero.File
	failed bool
	closed bool
}

func newAtomicWriter(fs afero.Fs, dst string) (*atomicWriter, error) {
	tmp := filepath.Join(filepath.Dir(dst),
		"."+filepath.Base(dst)+".tmp-"+strconv.FormatUint(tempCounter.Add(1), 10))

	file, err := fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary entry: %w", err)
	}

	return &atomicWriter{fs: fs, dst: dst, tmp: tmp, file: file}, nil
}

// Write implements io.Writer.
func (w *atomicWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		w.failed = true
	}
	return n, err
}

// Close flushes the temporary file and moves it over the destination.
// If any write failed, the temporary file is discarded and the destination is untouched.
func (w *atomicWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.file.Sync(); err != nil {
		w.failed = true
	}
	if err := w.file.Close(); err != nil {
		_ = w.fs.Remove(w.tmp)
		return fmt.Errorf("failed to close temporary entry: %w", err)
	}
	if w.failed {
		_ = w.fs.Remove(w.tmp)
		return fmt.Errorf("write to %s failed", w.dst)
	}

	if err := w.fs.Rename(w.tmp, w.dst); err != nil {
		_ = w.fs.Remove(w.tmp)
		return fmt.Errorf("failed to move entry into place: %w", err)
	}
	return nil
}

// Abort discards everything written so far.
func (w *atomicWriter) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.file.Close()
	_ = w.fs.Remove(w.tmp)
}

var _ io.WriteCloser = (*atomicWriter)(nil)
