package tally

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/intern"
	"github.com/arloliu/blocktally/internal/options"
)

// CacheKey identifies the cached table of one region file.
type CacheKey struct {
	Path    string // absolute path of the region file
	Hash    uint64 // hash of the header tables and file size
	Variant string // identifier mode, VariantNames or VariantStates
}

// Identifier modes stored in CacheKey.Variant.
const (
	VariantNames  = "names"
	VariantStates = "states"
)

// CachedRegion is the stored result of a region file that scanned cleanly.
type CachedRegion struct {
	Table        *Table
	Chunks       int // chunks counted
	ChunksAbsent int // empty slots
}

// RegionCache stores the results of region files that scanned cleanly.
// Implementations must be safe for concurrent use.
type RegionCache interface {
	Lookup(ctx context.Context, key CacheKey) (CachedRegion, bool, error)
	Store(ctx context.Context, key CacheKey, r CachedRegion) error
}

// ScannerConfig holds the settings of a Scanner.
type ScannerConfig struct {
	workers     int
	logger      *slog.Logger
	cache       RegionCache
	blockStates bool
	internSize  int
}

// ScannerOption is a functional option for configuring a Scanner.
type ScannerOption = options.Option[*ScannerConfig]

func defaultScannerConfig() *ScannerConfig {
	return &ScannerConfig{
		workers:    runtime.GOMAXPROCS(0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		internSize: intern.DefaultSize,
	}
}

// WithWorkers sets the number of region files scanned in parallel.
// Default is GOMAXPROCS.
func WithWorkers(n int) ScannerOption {
	return options.New(func(c *ScannerConfig) error {
		if n < 1 {
			return fmt.Errorf("%w: workers must be at least 1, got %d", errs.ErrInvalidConfig, n)
		}
		c.workers = n

		return nil
	})
}

// WithLogger sets the logger receiving per-region progress and failures.
// By default nothing is logged.
func WithLogger(l *slog.Logger) ScannerOption {
	return options.New(func(c *ScannerConfig) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidConfig)
		}
		c.logger = l

		return nil
	})
}

// WithCache answers unchanged region files from cache and stores the tables
// of regions that scanned without failures.
func WithCache(cache RegionCache) ScannerOption {
	return options.NoError(func(c *ScannerConfig) {
		c.cache = cache
	})
}

// WithBlockStates counts block states instead of block names.
func WithBlockStates() ScannerOption {
	return options.NoError(func(c *ScannerConfig) {
		c.blockStates = true
	})
}

// WithInternSize sets how many distinct identifier strings are shared
// across decoded chunks.
func WithInternSize(n int) ScannerOption {
	return options.New(func(c *ScannerConfig) error {
		if n < 1 {
			return fmt.Errorf("%w: intern size must be at least 1, got %d", errs.ErrInvalidConfig, n)
		}
		c.internSize = n

		return nil
	})
}
