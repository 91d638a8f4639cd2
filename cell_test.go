package granary

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestCellData(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cell-data")
	ctx := context.Background()

	cell := NewCell[int, string](cache, "names")
	loader, calls := countingLoader(map[int]string{1: "one", 2: "two"})

	if cell.IsLoaded() {
		t.Fatalf("Expected a new cell to be unloaded")
	}
	if cell.IsCached() {
		t.Fatalf("Expected a new cell to have no entry")
	}

	m, err := cell.Data(ctx, loader)
	if err != nil {
		t.Fatalf("Failed to load cell: %v", err)
	}
	if !reflect.DeepEqual(m, map[int]string{1: "one", 2: "two"}) {
		t.Fatalf("Unexpected data: %v", m)
	}
	if !cell.IsLoaded() || !cell.IsCached() {
		t.Fatalf("Expected cell to be loaded and cached after first access")
	}
	assertEntryExists(t, memFs, root, "names")

	// The second access is served from memory.
	if _, err := cell.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load cell again: %v", err)
	}
	assertCalls(t, calls, 1, "repeated Data")

	v, ok, err := cell.Get(ctx, loader, 2)
	if err != nil || !ok || v != "two" {
		t.Fatalf("Get(2) = %q, %v, %v; want two, true, nil", v, ok, err)
	}
	_, ok, err = cell.Get(ctx, loader, 3)
	if err != nil || ok {
		t.Fatalf("Get(3) = _, %v, %v; want false, nil", ok, err)
	}
}

func TestCellLoadsFromDisk(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cell-disk")
	ctx := context.Background()

	first := NewCell[string, []int](cache, "lists")
	loader, calls := countingLoader(map[string][]int{"a": {1, 2}, "b": {}})
	if _, err := first.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load cell: %v", err)
	}
	assertCalls(t, calls, 1, "first run")

	// A new cache over the same root behaves like the next process run.
	second := NewCell[string, []int](reopenTestCache(t, memFs, root), "lists")
	if !second.IsCached() {
		t.Fatalf("Expected the entry to be visible from a new cache")
	}
	m, err := second.Data(ctx, loader)
	if err != nil {
		t.Fatalf("Failed to load cell from disk: %v", err)
	}
	assertCalls(t, calls, 1, "second run")

	if !reflect.DeepEqual(m["a"], []int{1, 2}) {
		t.Fatalf("Unexpected value for a: %v", m["a"])
	}
	if len(m["b"]) != 0 {
		t.Fatalf("Unexpected value for b: %v", m["b"])
	}
}

func TestCellWithoutCache(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cell-nocache")
	ctx := context.Background()

	cell := NewCell[int, int](cache, "transient").WithoutCache()
	loader, calls := countingLoader(map[int]int{1: 1})

	if cell.CacheEnabled() {
		t.Fatalf("Expected cache to be disabled for the cell")
	}
	if _, err := cell.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load cell: %v", err)
	}
	assertNoEntry(t, memFs, root, "transient")
	if cell.IsCached() {
		t.Fatalf("Expected a cell without cache never to report cached")
	}

	again := NewCell[int, int](reopenTestCache(t, memFs, root), "transient").WithoutCache()
	if _, err := again.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load cell: %v", err)
	}
	assertCalls(t, calls, 2, "second run without cache")
}

func TestCellCacheDisabled(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cache-disabled", WithCacheDisabled())
	ctx := context.Background()

	if cache.Enabled() {
		t.Fatalf("Expected cache to report disabled")
	}

	cell := NewCell[int, int](cache, "numbers")
	if cell.CacheEnabled() {
		t.Fatalf("Expected cells of a disabled cache to skip persistence")
	}
	loader, _ := countingLoader(map[int]int{1: 2})
	if _, err := cell.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load cell: %v", err)
	}
	if err := cell.Store(ctx, map[int]int{3: 4}); err != nil {
		t.Fatalf("Failed to store cell: %v", err)
	}
	assertNoEntry(t, memFs, root, "numbers")
}

func TestCellStoreAndLoadFromCache(t *testing.T) {
	cache, _, _ := setupTestCache(t, "cell-store")
	ctx := context.Background()

	cell := NewCell[uint64, float64](cache, "ratios")
	if _, ok, err := cell.LoadFromCache(ctx); err != nil || ok {
		t.Fatalf("LoadFromCache on empty cache = %v, %v; want false, nil", ok, err)
	}

	if err := cell.Store(ctx, map[uint64]float64{7: 0.5}); err != nil {
		t.Fatalf("Failed to store cell: %v", err)
	}
	if !cell.IsLoaded() {
		t.Fatalf("Expected Store to make the map resident")
	}

	m, ok, err := cell.LoadFromCache(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadFromCache = %v, %v; want true, nil", ok, err)
	}
	if m[7] != 0.5 {
		t.Fatalf("Unexpected value: %v", m)
	}

	entry, err := cache.Entry("ratios")
	if err != nil {
		t.Fatalf("Failed to read entry: %v", err)
	}
	if entry.Keys != 1 {
		t.Fatalf("Expected 1 key, got %d", entry.Keys)
	}
	if !entry.CreatedAt.Equal(fixedNowFunc()) {
		t.Fatalf("Expected entry written at %v, got %v", fixedNowFunc(), entry.CreatedAt)
	}
}

func TestCellPirate(t *testing.T) {
	cache, _, _ := setupTestCache(t, "cell-pirate")
	ctx := context.Background()

	cell := NewCell[int, []string](cache, "tags")
	loader, _ := countingLoader(map[int][]string{1: {"a", "b"}})

	v, ok, err := cell.Pirate(ctx, loader, 1)
	if err != nil || !ok {
		t.Fatalf("Pirate = %v, %v; want true, nil", ok, err)
	}
	v[0] = "changed"

	orig, _, _ := cell.Get(ctx, loader, 1)
	if orig[0] != "a" {
		t.Fatalf("Expected resident value to be untouched, got %v", orig)
	}
}

func TestCellEmptyResult(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cell-empty")
	ctx := context.Background()

	cell := NewCell[int, int](cache, "empty")
	m, err := cell.Data(ctx, func(context.Context) (map[int]int, error) { return nil, nil })
	if err != nil {
		t.Fatalf("Failed to load cell: %v", err)
	}
	if m == nil || len(m) != 0 {
		t.Fatalf("Expected an empty non-nil map, got %v", m)
	}
	assertEntryExists(t, memFs, root, "empty")
}

func TestCellLoaderError(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cell-error")
	ctx := context.Background()

	boom := errors.New("boom")
	cell := NewCell[int, int](cache, "failing")
	_, err := cell.Data(ctx, func(context.Context) (map[int]int, error) { return nil, boom })
	assertErrorIs(t, err, boom, "failing loader")

	if cell.IsLoaded() {
		t.Fatalf("Expected cell to stay unloaded after a failure")
	}
	assertNoEntry(t, memFs, root, "failing")

	// A later access retries.
	loader, calls := countingLoader(map[int]int{1: 1})
	if _, err := cell.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load cell after retry: %v", err)
	}
	assertCalls(t, calls, 1, "retry")
}

func TestCellCanceledContext(t *testing.T) {
	cache, _, _ := setupTestCache(t, "cell-canceled")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cell := NewCell[int, int](cache, "canceled")
	loader, calls := countingLoader(map[int]int{1: 1})
	_, err := cell.Data(ctx, loader)
	assertErrorIs(t, err, context.Canceled, "canceled context")
	assertCalls(t, calls, 0, "canceled context")
}

func TestCellCorruptEntry(t *testing.T) {
	t.Run("Garbage", func(t *testing.T) {
		cache, memFs, root := setupTestCache(t, "cell-garbage")
		if err := afero.WriteFile(memFs, entryFile(root, "broken"), []byte("not an entry"), 0o644); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}

		cell := NewCell[int, int](cache, "broken")
		loader, calls := countingLoader(map[int]int{1: 1})
		_, err := cell.Data(context.Background(), loader)
		assertErrorIs(t, err, ErrDeserialize, "garbage entry")
		assertCalls(t, calls, 0, "garbage entry")

		// The corrupt entry is left for the operator.
		contents, _ := afero.ReadFile(memFs, entryFile(root, "broken"))
		if string(contents) != "not an entry" {
			t.Fatalf("Expected corrupt entry to be left untouched")
		}
	})

	t.Run("TruncatedPayload", func(t *testing.T) {
		cache, memFs, root := setupTestCache(t, "cell-truncated")
		ctx := context.Background()

		cell := NewCell[int, string](cache, "truncated")
		if err := cell.Store(ctx, map[int]string{1: "a", 2: "b", 3: "c"}); err != nil {
			t.Fatalf("Failed to store cell: %v", err)
		}
		contents, err := afero.ReadFile(memFs, entryFile(root, "truncated"))
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}
		if err := afero.WriteFile(memFs, entryFile(root, "truncated"), contents[:headerSize+2], 0o644); err != nil {
			t.Fatalf("Failed to truncate entry: %v", err)
		}

		again := NewCell[int, string](reopenTestCache(t, memFs, root), "truncated")
		_, err = again.Data(ctx, func(context.Context) (map[int]string, error) {
			t.Fatalf("Expected loader not to run for a corrupt entry")
			return nil, nil
		})
		assertErrorIs(t, err, ErrDeserialize, "truncated entry")

		var e *Error
		if !errors.As(err, &e) || e.Attribute != "truncated" {
			t.Fatalf("Expected *Error naming the attribute, got %v", err)
		}
	})
}

func TestCellStaleSchema(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "cell-schema")
	ctx := context.Background()

	old := NewCell[int, string](cache, "values")
	if err := old.Store(ctx, map[int]string{1: "one"}); err != nil {
		t.Fatalf("Failed to store cell: %v", err)
	}

	// The same attribute with a new value type must not decode the old entry.
	changed := NewCell[int, int64](reopenTestCache(t, memFs, root), "values")
	loader, calls := countingLoader(map[int]int64{1: 1})
	m, err := changed.Data(ctx, loader)
	if err != nil {
		t.Fatalf("Failed to load cell with new schema: %v", err)
	}
	assertCalls(t, calls, 1, "stale schema")
	if m[1] != 1 {
		t.Fatalf("Unexpected data: %v", m)
	}

	// The entry was overwritten with the new schema.
	next := NewCell[int, int64](reopenTestCache(t, memFs, root), "values")
	if _, err := next.Data(ctx, loader); err != nil {
		t.Fatalf("Failed to load overwritten entry: %v", err)
	}
	assertCalls(t, calls, 1, "overwritten entry")
}

func TestDuplicateCellName(t *testing.T) {
	cache, _, _ := setupTestCache(t, "cell-duplicate")
	NewCell[int, int](cache, "dup")

	defer func() {
		if recover() == nil {
			t.Fatalf("Expected a panic for a duplicate cell name")
		}
	}()
	NewCell[int, string](cache, "dup")
}

func TestCellWriteFailure(t *testing.T) {
	memFs := afero.NewMemMapFs()
	cache, err := Open("/cell-write", WithFs(failingRenameFs{Fs: memFs}), WithNowFunc(fixedNowFunc))
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	ctx := context.Background()

	cell := NewCell[int, int](cache, "unwritable")
	loader, calls := countingLoader(map[int]int{1: 1})
	_, err = cell.Data(ctx, loader)
	assertErrorIs(t, err, ErrIO, "failed write")
	assertCalls(t, calls, 1, "failed write")

	var e *Error
	if !errors.As(err, &e) || e.Kind != KindIO || e.Attribute != "unwritable" {
		t.Fatalf("Expected an io *Error naming the attribute, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "io [unwritable]: failed to move entry into place") {
		t.Fatalf("Unexpected message: %q", err.Error())
	}
	if cell.IsLoaded() {
		t.Fatalf("Expected cell to stay unloaded when its entry cannot be written")
	}
	assertNoEntry(t, memFs, "/cell-write", "unwritable")
}
