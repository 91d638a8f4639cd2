package granary

import (
	"fmt"
	"hash"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Cache is the root of the attribute cache.
// It owns the persistent store that every Cell reads from and writes to,
// and the process-wide settings shared by all cells.
type Cache struct {
	root             string
	fs               afero.Fs
	store            Store
	hashFunc         HashFunc
	nowFunc          NowFunc
	logger           *zap.Logger
	compressionLevel zstd.EncoderLevel
	disabled         bool // If true, no cell reads or writes the store
	parallelism      int

	mu    sync.RWMutex
	names map[string]struct{} // Names of cells created against this cache
}

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// NowFunc defines a function that returns the current time.
type NowFunc func() time.Time

// Option defines a function that configures a Cache.
type Option func(*Cache)

// Open creates a new cache at the given root directory.
// The directory will be created if it doesn't exist.
func Open(root string, options ...Option) (*Cache, error) {
	cache := &Cache{
		root:             root,
		fs:               afero.NewOsFs(),
		nowFunc:          time.Now,
		hashFunc:         defaultHashFunc,
		logger:           zap.NewNop(),
		compressionLevel: zstd.SpeedDefault,
		parallelism:      1,
		names:            make(map[string]struct{}),
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}

	if cache.store == nil {
		store, err := NewFileStore(cache.fs, cache.attributesDir())
		if err != nil {
			return nil, fmt.Errorf("failed to create attribute store: %w", err)
		}
		cache.store = store
	}

	return cache, nil
}

// OpenTemp creates a temporary in-memory cache for testing.
func OpenTemp(options ...Option) *Cache {
	options = append([]Option{WithFs(afero.NewMemMapFs())}, options...)
	cache, err := Open("", options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create temp cache: %v", err))
	}
	return cache
}

// Store returns the persistent store backing this cache.
func (c *Cache) Store() Store {
	return c.store
}

// Logger returns the logger used by the cache and its cells.
func (c *Cache) Logger() *zap.Logger {
	return c.logger
}

// Enabled reports whether cells created from this cache may persist.
func (c *Cache) Enabled() bool {
	return !c.disabled
}

// Parallelism returns the number of nodes Graph.Resolve may load at once.
func (c *Cache) Parallelism() int {
	return c.parallelism
}

// Has reports whether an entry for the named attribute is persisted.
func (c *Cache) Has(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	ok, err := c.store.Exists(name)
	return err == nil && ok
}

// Delete removes the persisted entry for the named attribute.
// Cells that already loaded the attribute keep their resident copy.
func (c *Cache) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	exists, err := c.store.Exists(name)
	if err != nil {
		return newError(KindIO, name, err)
	}
	if !exists {
		return nil
	}
	if err := c.store.Remove(name); err != nil {
		return newError(KindIO, name, fmt.Errorf("failed to remove entry: %w", err))
	}
	return nil
}

// Clear removes all persisted entries from the cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	names, err := c.store.List()
	if err != nil {
		return newError(KindIO, "", fmt.Errorf("failed to list entries: %w", err))
	}
	for _, name := range names {
		if err := c.store.Remove(name); err != nil {
			return newError(KindIO, name, fmt.Errorf("failed to remove entry: %w", err))
		}
	}
	return nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// register records that a cell with the given name exists.
// Two cells with the same name would silently share one persisted entry.
func (c *Cache) register(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.names[name]; exists {
		panic(fmt.Sprintf("granary: duplicate cell name %q", name))
	}
	c.names[name] = struct{}{}
}

// attributesDir returns the path to the attributes directory.
func (c *Cache) attributesDir() string {
	return filepath.Join(c.root, "attributes")
}

// newHash creates a new hash instance.
func (c *Cache) newHash() hash.Hash {
	return c.hashFunc()
}

// now returns the current time.
func (c *Cache) now() time.Time {
	return c.nowFunc()
}

// defaultHashFunc returns the default hash function (xxHash64).
func defaultHashFunc() hash.Hash {
	return xxhash.New()
}
