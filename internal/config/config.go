// Package config loads the blocktally configuration file.
//
// The file is YAML. Every field is optional; command-line flags override
// whatever the file sets.
//
//	top: 25
//	sort: true
//	ignore: [air, cave_air, void_air]
//	workers: 8
//	cache:
//	  path: ~/.cache/blocktally/cache.db
//	  compression: zstd
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
)

// Config is the user-facing configuration.
type Config struct {
	Top       int         `yaml:"top"`
	Sort      bool        `yaml:"sort"`
	Ignore    []string    `yaml:"ignore,omitempty"`
	Workers   int         `yaml:"workers"`
	States    bool        `yaml:"states"`
	Recursive bool        `yaml:"recursive"`
	LogLevel  string      `yaml:"log_level"`
	Cache     CacheConfig `yaml:"cache"`
}

// CacheConfig configures the region result cache. An empty Path disables it.
type CacheConfig struct {
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

// Default returns the configuration used without a file.
func Default() Config {
	return Config{
		Top:      20,
		Sort:     true,
		Workers:  runtime.GOMAXPROCS(0),
		LogLevel: "info",
		Cache: CacheConfig{
			Compression: "zstd",
		},
	}
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	return cfg, nil
}

// Normalize trims values, drops blank ignore entries and expands a leading
// "~/" in the cache path.
func (c *Config) Normalize() {
	if c == nil {
		return
	}

	ignore := c.Ignore[:0]
	for _, id := range c.Ignore {
		if id = strings.TrimSpace(id); id != "" {
			ignore = append(ignore, id)
		}
	}
	c.Ignore = ignore

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Cache.Compression = strings.ToLower(strings.TrimSpace(c.Cache.Compression))
	c.Cache.Path = strings.TrimSpace(c.Cache.Path)
	if rest, ok := strings.CutPrefix(c.Cache.Path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			c.Cache.Path = filepath.Join(home, rest)
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Top < 0 {
		return fmt.Errorf("%w: top must not be negative, got %d", errs.ErrInvalidConfig, c.Top)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", errs.ErrInvalidConfig, c.Workers)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", errs.ErrInvalidConfig, c.LogLevel)
	}
	if _, err := c.CacheCompression(); err != nil {
		return err
	}

	return nil
}

// CacheCompression returns the codec named by Cache.Compression.
func (c *Config) CacheCompression() (format.CompressionType, error) {
	ct, ok := format.ParseCompression(c.Cache.Compression)
	if !ok || ct == format.CompressionLZ4 {
		return 0, fmt.Errorf("%w: unknown cache compression %q", errs.ErrInvalidConfig, c.Cache.Compression)
	}

	return ct, nil
}
