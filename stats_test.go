package granary

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestStats(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "stats")
	ctx := context.Background()

	if err := NewCell[int, int](cache, "small").Store(ctx, map[int]int{1: 1}); err != nil {
		t.Fatalf("Failed to store small: %v", err)
	}
	if err := NewCell[int, string](cache, "large").Store(ctx, map[int]string{1: "a", 2: "b", 3: "c"}); err != nil {
		t.Fatalf("Failed to store large: %v", err)
	}
	if err := afero.WriteFile(memFs, entryFile(root, "broken"), []byte("GRNY"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt entry: %v", err)
	}

	later := func() time.Time { return fixedNowFunc().Add(time.Hour) }
	stats, err := reopenTestCache(t, memFs, root, WithNowFunc(later)).Stats()
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}

	if stats.Entries != 2 {
		t.Errorf("Expected 2 entries, got %d", stats.Entries)
	}
	if stats.Keys != 4 {
		t.Errorf("Expected 4 keys, got %d", stats.Keys)
	}
	if stats.TotalSize <= 0 {
		t.Errorf("Expected a positive total size, got %d", stats.TotalSize)
	}
	if stats.OldestEntry != time.Hour || stats.NewestEntry != time.Hour {
		t.Errorf("Expected entries to be one hour old, got %v and %v", stats.OldestEntry, stats.NewestEntry)
	}
	if !reflect.DeepEqual(stats.Corrupt, []string{"broken"}) {
		t.Errorf("Expected broken entry to be reported, got %v", stats.Corrupt)
	}
}

func TestEntries(t *testing.T) {
	cache, _, _ := setupTestCache(t, "entries")
	ctx := context.Background()

	for _, name := range []string{"b", "a"} {
		if err := NewCell[int, int](cache, name).Store(ctx, map[int]int{1: 1, 2: 2}); err != nil {
			t.Fatalf("Failed to store %s: %v", name, err)
		}
	}

	entries, err := cache.Entries()
	if err != nil {
		t.Fatalf("Failed to list entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "a" || entries[1].Name != "b" {
		t.Fatalf("Unexpected entries: %+v", entries)
	}
	if entries[0].Keys != 2 || entries[0].Size <= 0 {
		t.Fatalf("Unexpected entry description: %+v", entries[0])
	}

	_, err = cache.Entry("missing")
	assertErrorIs(t, err, ErrNotFound, "missing entry")
}

func TestDeleteAndClear(t *testing.T) {
	cache, memFs, root := setupTestCache(t, "delete")
	ctx := context.Background()

	keep := NewCell[int, int](cache, "keep")
	drop := NewCell[int, int](cache, "drop")
	for _, cell := range []*Cell[int, int]{keep, drop} {
		if err := cell.Store(ctx, map[int]int{1: 1}); err != nil {
			t.Fatalf("Failed to store %s: %v", cell.Name(), err)
		}
	}

	if err := cache.Delete("drop"); err != nil {
		t.Fatalf("Failed to delete entry: %v", err)
	}
	if err := cache.Delete("drop"); err != nil {
		t.Fatalf("Expected deleting a missing entry to succeed, got %v", err)
	}
	assertNoEntry(t, memFs, root, "drop")
	assertEntryExists(t, memFs, root, "keep")

	// Resident data survives the deletion of its entry.
	if !drop.IsLoaded() {
		t.Fatalf("Expected dropped cell to stay resident")
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}
	if cache.Has("keep") {
		t.Fatalf("Expected cache to be empty after Clear")
	}
}

func TestInvalidEntryNames(t *testing.T) {
	cache, _, _ := setupTestCache(t, "invalid-names")

	for _, name := range []string{"", "a/b", `..\escape`} {
		assertErrorIs(t, cache.Delete(name), ErrInvalidName, "Delete("+name+")")

		_, err := cache.Entry(name)
		assertErrorIs(t, err, ErrInvalidName, "Entry("+name+")")

		if cache.Has(name) {
			t.Fatalf("Expected Has(%q) to be false", name)
		}
	}
}
