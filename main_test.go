package granary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestMain(t *testing.M) {
	code := t.Run()

	os.Exit(code)
}

func fixedNowFunc() time.Time {
	return time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
}

// setupTestCache creates a new in-memory filesystem and cache for testing.
// It returns the cache, filesystem, and cache root path.
func setupTestCache(t *testing.T, rootName string, options ...Option) (*Cache, afero.Fs, string) {
	t.Helper()

	memFs := afero.NewMemMapFs()
	root := "/" + rootName
	if err := memFs.MkdirAll(root, 0o755); err != nil {
		t.Fatalf("Failed to create cache root: %v", err)
	}

	cache := reopenTestCache(t, memFs, root, options...)
	return cache, memFs, root
}

// reopenTestCache opens another cache over an existing root, as a new process would.
func reopenTestCache(t *testing.T, fs afero.Fs, root string, options ...Option) *Cache {
	t.Helper()

	options = append([]Option{WithFs(fs), WithNowFunc(fixedNowFunc)}, options...)
	cache, err := Open(root, options...)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	return cache
}

// entryFile returns the path of the file backing the named entry.
func entryFile(root, name string) string {
	return filepath.Join(root, "attributes", name+entryExt)
}

// countingLoader returns a loader producing m and a pointer to its call count.
func countingLoader[K comparable, V any](m map[K]V) (func(context.Context) (map[K]V, error), *int) {
	calls := 0
	return func(context.Context) (map[K]V, error) {
		calls++
		return m, nil
	}, &calls
}

// assertEntryExists asserts that an entry file is present.
func assertEntryExists(t *testing.T, fs afero.Fs, root, name string) {
	t.Helper()

	exists, err := afero.Exists(fs, entryFile(root, name))
	if err != nil {
		t.Fatalf("Failed to check entry %s: %v", name, err)
	}
	if !exists {
		t.Fatalf("Expected entry %s to be persisted, but it was not", name)
	}
}

// assertNoEntry asserts that no entry file is present.
func assertNoEntry(t *testing.T, fs afero.Fs, root, name string) {
	t.Helper()

	exists, err := afero.Exists(fs, entryFile(root, name))
	if err != nil {
		t.Fatalf("Failed to check entry %s: %v", name, err)
	}
	if exists {
		t.Fatalf("Expected no entry for %s, but found one", name)
	}
}

// assertErrorIs asserts that err matches target.
func assertErrorIs(t *testing.T, err, target error, context string) {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected %v on %s, got nil", target, context)
	}
	if !errors.Is(err, target) {
		t.Fatalf("Expected %v on %s, got: %v", target, context, err)
	}
}

// assertCalls asserts how many times a loader ran.
func assertCalls(t *testing.T, calls *int, expected int, context string) {
	t.Helper()

	if *calls != expected {
		t.Fatalf("Expected loader to run %d times on %s, ran %d times", expected, context, *calls)
	}
}
