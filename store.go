package granary

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Store persists one opaque blob per attribute name.
// Presence of a blob is the only signal that an attribute is cached.
type Store interface {
	// Exists reports whether an entry is present for name.
	Exists(name string) (bool, error)

	// Open returns a reader over the entry for name.
	Open(name string) (io.ReadCloser, error)

	// Create returns a writer for the entry. The entry becomes visible
	// under name only once Close returns nil.
	Create(name string) (io.WriteCloser, error)

	// Remove deletes the entry for name.
	Remove(name string) error

	// List returns the names of all entries, sorted.
	List() ([]string, error)

	// Size returns the stored size of an entry in bytes.
	Size(name string) (int64, error)

	// Close releases the resources held by the store.
	Close() error
}

// entryExt is the file extension of attribute entries.
const entryExt = ".gry"

// FileStore keeps each attribute in its own file under a directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates a file store rooted at dir.
// The directory will be created if it doesn't exist.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attributes directory: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

// Exists implements Store.
func (s *FileStore) Exists(name string) (bool, error) {
	path, err := s.entryPath(name)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, path)
}

// Open implements Store.
func (s *FileStore) Open(name string) (io.ReadCloser, error) {
	path, err := s.entryPath(name)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %s: %w", name, err)
	}
	return f, nil
}

// Create implements Store.
func (s *FileStore) Create(name string) (io.WriteCloser, error) {
	path, err := s.entryPath(name)
	if err != nil {
		return nil, err
	}
	// The directory may have been removed by an operator since the store opened.
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attributes directory: %w", err)
	}
	return newAtomicWriter(s.fs, path)
}

// Remove implements Store.
func (s *FileStore) Remove(name string) error {
	path, err := s.entryPath(name)
	if err != nil {
		return err
	}
	return s.fs.Remove(path)
}

// List implements Store.
func (s *FileStore) List() ([]string, error) {
	var names []string
	err := afero.Walk(s.fs, s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if info.IsDir() {
			return nil
		}

		// Only process entry files
		if !strings.HasSuffix(path, entryExt) {
			return nil
		}

		names = append(names, strings.TrimSuffix(filepath.Base(path), entryExt))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// Size implements Store.
func (s *FileStore) Size(name string) (int64, error) {
	path, err := s.entryPath(name)
	if err != nil {
		return 0, err
	}
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

// entryPath returns the path of the entry file for name.
func (s *FileStore) entryPath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+entryExt), nil
}
