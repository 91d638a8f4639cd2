package main

import (
	"fmt"

	"github.com/gophersatwork/granary"
	"github.com/gophersatwork/granary/config"
	"github.com/gophersatwork/granary/data"
	"github.com/gophersatwork/granary/dataset"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// flags holds the persistent flags shared by every command.
type flags struct {
	configPath  string
	cacheDir    string
	datasetDir  string
	backend     string
	parallelism int
	noCache     bool
}

// session is an opened cache and dataset.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	cache  *granary.Cache
	data   *data.Data
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "granary",
		Short: "Compute and cache derived attributes of a repository dataset",
		Long: `granary computes derived attributes of a software-repository dataset
(commit counts, language mix, contributions, experience, duplicated code, forks)
and keeps them in a persistent cache so later runs skip the computation.

Configuration is read from granary.yaml, GRANARY_* environment variables and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "config file (default ./granary.yaml)")
	pf.StringVar(&f.cacheDir, "cache-dir", "", "attribute cache directory")
	pf.StringVar(&f.datasetDir, "dataset", "", "dataset directory")
	pf.StringVar(&f.backend, "backend", "", "cache backend: file or badger")
	pf.IntVar(&f.parallelism, "parallelism", 0, "attributes computed at once")
	pf.BoolVar(&f.noCache, "no-cache", false, "compute everything without reading or writing the cache")

	rootCmd.AddCommand(newWarmCommand(f))
	rootCmd.AddCommand(newGetCommand(f))
	rootCmd.AddCommand(newStatsCommand(f))
	rootCmd.AddCommand(newClearCommand(f))
	rootCmd.AddCommand(newGraphCommand(f))

	return rootCmd
}

// loadConfig reads the configuration and applies flag overrides.
func (f *flags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.cacheDir != "" {
		cfg.Cache.Dir = f.cacheDir
	}
	if f.datasetDir != "" {
		cfg.Dataset.Dir = f.datasetDir
	}
	if f.backend != "" {
		cfg.Cache.Backend = f.backend
	}
	if f.parallelism > 0 {
		cfg.Cache.Parallelism = f.parallelism
	}
	if f.noCache {
		cfg.Cache.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads the configuration and opens the cache and the dataset.
func (f *flags) open() (*session, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	cache, err := config.OpenCache(cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	d, err := data.New(cache, dataset.NewDir(afero.NewOsFs(), cfg.Dataset.Dir))
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, cache: cache, data: d}, nil
}

func (s *session) Close() error {
	_ = s.logger.Sync()
	return s.cache.Close()
}
