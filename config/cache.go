package config

import (
	"fmt"
	"path/filepath"

	"github.com/gophersatwork/granary"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// OpenCache opens the attribute cache described by cfg on the OS filesystem.
func OpenCache(cfg CacheConfig, logger *zap.Logger) (*granary.Cache, error) {
	return OpenCacheFs(afero.NewOsFs(), cfg, logger)
}

// OpenCacheFs opens the attribute cache on fs. The badger backend always
// uses the OS filesystem.
func OpenCacheFs(fs afero.Fs, cfg CacheConfig, logger *zap.Logger) (*granary.Cache, error) {
	level, err := cfg.ZstdLevel()
	if err != nil {
		return nil, err
	}

	opts := []granary.Option{
		granary.WithFs(fs),
		granary.WithLogger(logger),
		granary.WithCompressionLevel(level),
		granary.WithParallelism(cfg.Parallelism),
	}
	if cfg.Disabled {
		opts = append(opts, granary.WithCacheDisabled())
	}

	switch cfg.Backend {
	case BackendBadger:
		store, err := granary.OpenBadgerStore(granary.BadgerConfig{
			Path:   filepath.Join(cfg.Dir, "badger"),
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		opts = append(opts, granary.WithStore(store))
	case BackendFile, "":
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}

	return granary.Open(cfg.Dir, opts...)
}
