package granary

import (
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// WithFs sets a custom filesystem for the default file store.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	cache, err := granary.Open(".cache", granary.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithStore replaces the default file store, for example with a BadgerStore.
// WithFs has no effect when a store is given.
func WithStore(store Store) Option {
	return func(c *Cache) {
		c.store = store
	}
}

// WithHashFunc sets a custom hash function for schema tags.
// The default is xxHash64.
//
// Note: Changing the hash function will invalidate existing cache entries.
func WithHashFunc(hashFunc HashFunc) Option {
	return func(c *Cache) {
		c.hashFunc = hashFunc
	}
}

// WithNowFunc sets a custom time function for the cache.
// This is primarily useful for testing with deterministic timestamps.
func WithNowFunc(nowFunc NowFunc) Option {
	return func(c *Cache) {
		c.nowFunc = nowFunc
	}
}

// WithLogger sets the logger used by the cache, its cells and extractors.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCompressionLevel sets the zstd level used for persisted entries.
func WithCompressionLevel(level zstd.EncoderLevel) Option {
	return func(c *Cache) {
		c.compressionLevel = level
	}
}

// WithCacheDisabled makes every cell behave as if WithoutCache was called on it:
// attributes are always computed and nothing is read from or written to the store.
func WithCacheDisabled() Option {
	return func(c *Cache) {
		c.disabled = true
	}
}

// WithParallelism sets how many independent attributes Graph.Resolve may
// compute at the same time. The default is 1, which is strictly sequential.
// Only raise it when the dataset Source is safe for concurrent iteration.
func WithParallelism(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.parallelism = n
		}
	}
}
