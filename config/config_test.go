package config

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFs(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("expected no error loading defaults, got %v", err)
	}

	if cfg.Cache.Dir != ".granary" {
		t.Errorf("expected default cache dir '.granary', got %s", cfg.Cache.Dir)
	}
	if cfg.Cache.Backend != BackendFile {
		t.Errorf("expected default backend %q, got %s", BackendFile, cfg.Cache.Backend)
	}
	if cfg.Cache.Parallelism != 1 {
		t.Errorf("expected default parallelism 1, got %d", cfg.Cache.Parallelism)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Log.Level)
	}
	if *cfg != *Default() {
		t.Errorf("expected Load with no file to match Default, got %+v", cfg)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
cache:
  dir: /var/cache/granary
  backend: badger
  compression_level: best
  parallelism: 4
dataset:
  dir: /data/ghtorrent
log:
  level: debug
  format: json
`
	if err := afero.WriteFile(fs, "/etc/granary.yaml", []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFs(fs, "/etc/granary.yaml")
	if err != nil {
		t.Fatalf("expected no error loading config file, got %v", err)
	}

	if cfg.Cache.Dir != "/var/cache/granary" {
		t.Errorf("expected cache dir from file, got %s", cfg.Cache.Dir)
	}
	if cfg.Cache.Backend != BackendBadger {
		t.Errorf("expected badger backend, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.Parallelism != 4 {
		t.Errorf("expected parallelism 4, got %d", cfg.Cache.Parallelism)
	}
	if cfg.Dataset.Dir != "/data/ghtorrent" {
		t.Errorf("expected dataset dir from file, got %s", cfg.Dataset.Dir)
	}
	level, err := cfg.Cache.ZstdLevel()
	if err != nil || level != zstd.SpeedBestCompression {
		t.Errorf("expected best compression, got %v (err %v)", level, err)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GRANARY_CACHE_DIR", "/tmp/override")
	t.Setenv("GRANARY_LOG_LEVEL", "warn")

	cfg, err := LoadFs(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Cache.Dir != "/tmp/override" {
		t.Errorf("expected cache dir from environment, got %s", cfg.Cache.Dir)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level from environment, got %s", cfg.Log.Level)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := LoadFs(afero.NewMemMapFs(), "/nope.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty cache dir", func(c *Config) { c.Cache.Dir = "" }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"bad compression", func(c *Config) { c.Cache.CompressionLevel = "max" }},
		{"zero parallelism", func(c *Config) { c.Cache.Parallelism = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestOpenCacheFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Cache.Dir = "/cache"
	cfg.Cache.Parallelism = 3

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}

	cache, err := OpenCacheFs(fs, cfg.Cache, logger)
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	defer cache.Close()

	if cache.Parallelism() != 3 {
		t.Errorf("expected parallelism 3, got %d", cache.Parallelism())
	}
	if ok, _ := afero.DirExists(fs, "/cache/attributes"); !ok {
		t.Errorf("expected attributes directory to be created")
	}
}
