package granary

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loader computes the full map of an attribute.
type Loader[K cmp.Ordered, V any] func(ctx context.Context) (map[K]V, error)

// Cell is a memoized, optionally persisted holder of one attribute map.
//
// A cell starts unloaded. The first call to Data makes it resident, either by
// decoding its persisted entry or by running the loader and persisting the
// result. Once resident, the map is never mutated or evicted.
type Cell[K cmp.Ordered, V any] struct {
	cache   *Cache
	name    string
	enabled bool
	schema  uint64

	mu     sync.Mutex
	data   map[K]V
	loaded bool
}

// NewCell creates an unloaded cell persisted under name.
// Names must be unique within a cache.
func NewCell[K cmp.Ordered, V any](c *Cache, name string) *Cell[K, V] {
	c.register(name)
	return &Cell[K, V]{
		cache:   c,
		name:    name,
		enabled: c.Enabled(),
		schema:  c.SchemaTag(name, reflect.TypeFor[K](), reflect.TypeFor[V]()),
	}
}

// WithoutCache disables persistence for this cell: loads always recompute
// and nothing is read from or written to the store.
func (cell *Cell[K, V]) WithoutCache() *Cell[K, V] {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	cell.enabled = false
	return cell
}

// Name returns the attribute name of the cell.
func (cell *Cell[K, V]) Name() string {
	return cell.name
}

// CacheEnabled reports whether the cell reads and writes the store.
func (cell *Cell[K, V]) CacheEnabled() bool {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.enabled
}

// IsLoaded reports whether the map is resident.
func (cell *Cell[K, V]) IsLoaded() bool {
	cell.mu.Lock()
	defer cell.mu.Unlock()
	return cell.loaded
}

// IsCached reports whether a persisted entry exists for the cell.
// It is always false for cells without cache.
func (cell *Cell[K, V]) IsCached() bool {
	if !cell.CacheEnabled() {
		return false
	}
	return cell.cache.Has(cell.name)
}

// Data returns the resident map, loading it first if needed.
func (cell *Cell[K, V]) Data(ctx context.Context, loader Loader[K, V]) (map[K]V, error) {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	if cell.loaded {
		return cell.data, nil
	}

	if cell.enabled {
		m, ok, err := cell.readEntry(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			cell.set(m)
			return m, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	m, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[K]V)
	}
	elapsed := time.Since(start)
	recordCompute(ctx, cell.name, elapsed)
	recordLoad(ctx, cell.name, loadFromCompute)

	cell.cache.logger.Debug("attribute computed",
		zap.String("attribute", cell.name),
		zap.Int("entries", len(m)),
		zap.Duration("duration", elapsed))

	if cell.enabled {
		if err := cell.writeEntry(ctx, m); err != nil {
			return nil, err
		}
	}

	cell.set(m)
	return m, nil
}

// Get returns the value stored for key, loading the cell first if needed.
// ok is false when the attribute has no value for key.
func (cell *Cell[K, V]) Get(ctx context.Context, loader Loader[K, V], key K) (V, bool, error) {
	m, err := cell.Data(ctx, loader)
	if err != nil {
		var zero V
		return zero, false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Pirate is like Get but returns a deep copy the caller may modify.
func (cell *Cell[K, V]) Pirate(ctx context.Context, loader Loader[K, V], key K) (V, bool, error) {
	v, ok, err := cell.Get(ctx, loader, key)
	if err != nil || !ok {
		return v, ok, err
	}
	cp, err := deepCopy(v)
	if err != nil {
		var zero V
		return zero, false, newError(KindDeserialize, cell.name, err)
	}
	return cp, true, nil
}

// Store replaces the resident map with m and persists it when caching is enabled.
func (cell *Cell[K, V]) Store(ctx context.Context, m map[K]V) error {
	cell.mu.Lock()
	defer cell.mu.Unlock()

	if m == nil {
		m = make(map[K]V)
	}
	if cell.enabled {
		if err := cell.writeEntry(ctx, m); err != nil {
			return err
		}
	}
	cell.set(m)
	return nil
}

// LoadFromCache decodes the persisted entry without touching the resident map.
// ok is false when there is no entry or it was written for different types.
func (cell *Cell[K, V]) LoadFromCache(ctx context.Context) (map[K]V, bool, error) {
	return cell.readEntry(ctx)
}

func (cell *Cell[K, V]) set(m map[K]V) {
	cell.data = m
	cell.loaded = true
}

// readEntry decodes the persisted entry of the cell.
func (cell *Cell[K, V]) readEntry(ctx context.Context) (map[K]V, bool, error) {
	store := cell.cache.store

	exists, err := store.Exists(cell.name)
	if err != nil {
		return nil, false, newError(KindIO, cell.name, fmt.Errorf("failed to check entry: %w", err))
	}
	if !exists {
		return nil, false, nil
	}

	start := time.Now()
	r, err := store.Open(cell.name)
	if err != nil {
		return nil, false, newError(KindIO, cell.name, err)
	}
	defer r.Close()

	var m map[K]V
	header, err := decodeEntry(r, &m, cell.schema)
	if errors.Is(err, errStaleSchema) {
		cell.cache.logger.Warn("attribute entry has a stale schema, recomputing",
			zap.String("attribute", cell.name),
			zap.Time("written_at", header.CreatedAt))
		return nil, false, nil
	}
	if err != nil {
		return nil, false, newError(KindDeserialize, cell.name, err)
	}
	if m == nil {
		m = make(map[K]V)
	}
	if uint64(len(m)) != header.Entries {
		return nil, false, newError(KindDeserialize, cell.name,
			fmt.Errorf("header promises %d entries, payload has %d", header.Entries, len(m)))
	}

	recordLoad(ctx, cell.name, loadFromDisk)
	cell.cache.logger.Debug("attribute loaded from cache",
		zap.String("attribute", cell.name),
		zap.Int("entries", len(m)),
		zap.Duration("duration", time.Since(start)))
	return m, true, nil
}

// aborter is implemented by store writers that can discard a partial entry.
type aborter interface {
	Abort()
}

// writeEntry persists m under the cell's name.
func (cell *Cell[K, V]) writeEntry(ctx context.Context, m map[K]V) error {
	w, err := cell.cache.store.Create(cell.name)
	if err != nil {
		return newError(KindIO, cell.name, err)
	}

	header := Header{
		Version:   entryVersion,
		Schema:    cell.schema,
		CreatedAt: cell.cache.now(),
		Entries:   uint64(len(m)),
	}
	if err := encodeEntry(w, header, cell.cache.compressionLevel, m); err != nil {
		if a, ok := w.(aborter); ok {
			a.Abort()
		} else {
			_ = w.Close()
		}
		return newError(KindIO, cell.name, err)
	}
	if err := w.Close(); err != nil {
		return newError(KindIO, cell.name, err)
	}

	recordStore(ctx, cell.name)
	return nil
}
