package core

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gopkg.in/yaml.v3"

	"maf/errs"
	"maf/storage"
	"maf/utils"
)

type StoreConfig struct {
	// CacheEnabled memoizes metric values of repeated index subsets for
	// slicers that suggest a cache size.
	CacheEnabled bool `yaml:"cache_enabled"`
	// CacheSize overrides the slicer's suggestion when positive.
	CacheSize int `yaml:"cache_size"`
	// Workers evaluating slice points; 1 evaluates them sequentially.
	Workers int `yaml:"workers"`
	// LogLevel filters what the database and slice metrics log: debug, info,
	// warn or error.
	LogLevel string `yaml:"log_level"`
	// Compress persisted results with zstd.
	Compress bool `yaml:"compress"`
	// Badger stores results on disk or in memory; nil keeps them in maps.
	Badger *storage.BadgerBackendConfig `yaml:"badger"`
}

func DefaultConfig() *StoreConfig {
	return &StoreConfig{
		CacheEnabled: true,
		Workers:      1,
		LogLevel:     "info",
	}
}

func TestStoreConfig() *StoreConfig {
	cfg := DefaultConfig()
	badgerConfig := storage.TestBadgerBackendConfig()
	cfg.Badger = &badgerConfig
	return cfg
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Workers < 1 {
		return errs.Configuration("config", "workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.CacheSize < 0 {
		return errs.Configuration("config", "cache_size must not be negative, got %d", cfg.CacheSize)
	}
	return nil
}

// Logger filters logger at LogLevel. A nil logger stays silent.
func (cfg *StoreConfig) Logger(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return level.NewFilter(logger, utils.LevelOption(cfg.LogLevel))
}

// ParseConfig decodes YAML over the defaults; absent keys keep their default.
func ParseConfig(data []byte) (*StoreConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}
