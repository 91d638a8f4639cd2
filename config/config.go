// Package config loads granary settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Backends accepted in cache.backend.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// EnvPrefix is the prefix of environment variables overriding the file,
// e.g. GRANARY_CACHE_DIR for cache.dir.
const EnvPrefix = "GRANARY"

// Config represents the granary configuration
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	Log     LogConfig     `mapstructure:"log"`
}

// CacheConfig represents attribute cache configuration
type CacheConfig struct {
	Dir              string `mapstructure:"dir"`
	Backend          string `mapstructure:"backend"`
	Disabled         bool   `mapstructure:"disabled"`
	CompressionLevel string `mapstructure:"compression_level"`
	Parallelism      int    `mapstructure:"parallelism"`
}

// DatasetConfig represents dataset configuration
type DatasetConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration from path, or from granary.yaml in the
// working directory when path is empty. A missing granary.yaml is not an
// error: defaults and the environment apply.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs is Load on an arbitrary filesystem.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("granary")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.dir", ".granary")
	v.SetDefault("cache.backend", BackendFile)
	v.SetDefault("cache.disabled", false)
	v.SetDefault("cache.compression_level", "default")
	v.SetDefault("cache.parallelism", 1)
	v.SetDefault("dataset.dir", "dataset")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks that every setting has an accepted value.
func (c *Config) Validate() error {
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendBadger:
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got: %s", BackendFile, BackendBadger, c.Cache.Backend)
	}
	if _, err := c.Cache.ZstdLevel(); err != nil {
		return err
	}
	if c.Cache.Parallelism < 1 {
		return fmt.Errorf("cache.parallelism must be at least 1, got: %d", c.Cache.Parallelism)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got: %s", c.Log.Format)
	}
	return nil
}

// ZstdLevel returns the configured compression level.
// Accepted names are fastest, default, better and best.
func (c CacheConfig) ZstdLevel() (zstd.EncoderLevel, error) {
	ok, level := zstd.EncoderLevelFromString(c.CompressionLevel)
	if !ok {
		return 0, fmt.Errorf("cache.compression_level must be fastest, default, better or best, got: %s", c.CompressionLevel)
	}
	return level, nil
}
