package tally

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/arloliu/blocktally/chunk"
	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/internal/hash"
	"github.com/arloliu/blocktally/internal/intern"
	"github.com/arloliu/blocktally/internal/options"
	"github.com/arloliu/blocktally/internal/pool"
	"github.com/arloliu/blocktally/nbt"
	"github.com/arloliu/blocktally/region"
)

// Scanner counts the blocks of region files in parallel.
//
// Each worker folds one region file into its own Table; finished tables are
// merged in input order, so the result, discovery order included, does not
// depend on the number of workers. A Scanner may run several scans
// concurrently.
type Scanner struct {
	cfg       ScannerConfig
	decoder   *nbt.Decoder
	chunkOpts []chunk.Option
	variant   string
}

// NewScanner creates a Scanner with the given options.
func NewScanner(opts ...ScannerOption) (*Scanner, error) {
	cfg := defaultScannerConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	interner := intern.New(cfg.internSize)
	decoder, err := nbt.NewDecoder(
		nbt.WithFilter(chunk.DecodeFilter()),
		nbt.WithInterner(interner.Bytes),
	)
	if err != nil {
		return nil, err
	}

	s := &Scanner{cfg: *cfg, decoder: decoder, variant: VariantNames}
	if cfg.blockStates {
		s.chunkOpts = append(s.chunkOpts, chunk.WithBlockStates())
		s.variant = VariantStates
	}

	return s, nil
}

type job struct {
	seq  int
	path string
}

type fileResult struct {
	seq      int
	table    *Table
	stats    Stats
	failures []Failure
}

// Scan counts the blocks of the region files at paths.
//
// Files and chunks that fail are recorded in the report and do not stop the
// scan. When ctx is cancelled, workers stop between chunks; Scan then
// returns the report of what was counted together with ctx.Err(). A region
// interrupted by cancellation adds only Regions, RegionsInterrupted and
// Bytes to the report.
func (s *Scanner) Scan(ctx context.Context, paths []string) (*Report, error) {
	start := time.Now()
	workers := min(s.cfg.workers, max(len(paths), 1))

	jobs := make(chan job)
	results := make(chan fileResult, workers)

	go func() {
		defer close(jobs)
		for i, p := range paths {
			select {
			case jobs <- job{seq: i, path: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- s.scanFile(ctx, j)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{Table: NewTable()}
	pending := make(map[int]fileResult)
	next := 0
	for r := range results {
		pending[r.seq] = r
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			report.merge(ready)
			next++
		}
	}

	// Cancellation leaves gaps in the sequence.
	rest := make([]int, 0, len(pending))
	for seq := range pending {
		rest = append(rest, seq)
	}
	slices.Sort(rest)
	for _, seq := range rest {
		report.merge(pending[seq])
	}

	report.Stats.Elapsed = time.Since(start)
	s.cfg.logger.Info("scan finished",
		slog.Int("regions", report.Stats.Regions),
		slog.Int("chunks", report.Stats.Chunks),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("elapsed", report.Stats.Elapsed),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	return report, nil
}

func (r *Report) merge(res fileResult) {
	if res.table != nil {
		r.Table.Merge(res.table)
	}
	r.Stats.add(res.stats)
	r.Failures = append(r.Failures, res.failures...)
}

func (s *Scanner) scanFile(ctx context.Context, j job) fileResult {
	res := fileResult{seq: j.seq}
	logger := s.cfg.logger.With(slog.String("path", j.path))

	f, err := region.Open(j.path)
	if err != nil {
		coord, _ := region.ParseCoord(j.path)
		res.stats.RegionsFailed = 1
		res.failures = append(res.failures, newFailure(j.path, coord, err))
		logger.Warn("region failed", slog.Any("error", err))

		return res
	}
	defer f.Close()

	res.stats.Regions = 1
	res.stats.Bytes = f.Size()

	key, cacheable := s.cacheKey(f)
	if cacheable {
		cached, ok, err := s.cfg.cache.Lookup(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cache lookup failed", slog.Any("error", err))
		case ok:
			res.stats.RegionsCached = 1
			res.stats.Chunks = cached.Chunks
			res.stats.ChunksAbsent = cached.ChunksAbsent
			res.stats.Blocks = cached.Table.Total()
			res.table = cached.Table
			logger.Debug("region cached", slog.Int("ids", cached.Table.Len()))

			return res
		}
	}

	table := NewTable()
	buf := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(buf)

	present := 0
	for c, err := range f.Chunks() {
		if ctx.Err() != nil {
			// Nothing of a partly scanned region is reported but the region itself.
			logger.Debug("region interrupted", slog.Int("visited", present))
			res.stats = Stats{Regions: 1, RegionsInterrupted: 1, Bytes: f.Size()}
			res.failures = nil

			return res
		}
		present++

		if err == nil {
			err = s.countChunk(f, c, buf, table)
		}
		if err != nil {
			res.stats.ChunksFailed++
			res.failures = append(res.failures, newFailure(j.path, f.Coord(), err))
			logger.Warn("chunk failed", slog.Int("x", c.X), slog.Int("z", c.Z), slog.Any("error", err))

			continue
		}
		res.stats.Chunks++
	}
	res.stats.ChunksAbsent = region.ChunksPerRegion - present
	res.stats.Blocks = table.Total()
	res.table = table

	logger.Debug("region scanned",
		slog.Int("chunks", res.stats.Chunks),
		slog.Int("failed", res.stats.ChunksFailed),
		slog.Int("ids", table.Len()),
	)

	if cacheable && len(res.failures) == 0 {
		entry := CachedRegion{Table: table, Chunks: res.stats.Chunks, ChunksAbsent: res.stats.ChunksAbsent}
		if err := s.cfg.cache.Store(ctx, key, entry); err != nil {
			logger.Warn("cache store failed", slog.Any("error", err))
		}
	}

	return res
}

func (s *Scanner) cacheKey(f *region.File) (CacheKey, bool) {
	if s.cfg.cache == nil {
		return CacheKey{}, false
	}
	header := f.HeaderBytes()
	if header == nil {
		return CacheKey{}, false
	}
	path, err := filepath.Abs(f.Path())
	if err != nil {
		path = f.Path()
	}

	return CacheKey{Path: path, Hash: hash.RegionKey(header, f.Size()), Variant: s.variant}, true
}

// countChunk decodes one chunk and adds its blocks to table. Nothing is
// added when any part of the chunk fails.
func (s *Scanner) countChunk(f *region.File, c region.Chunk, buf *pool.ByteBuffer, table *Table) error {
	buf.Reset()
	if _, err := f.Decompress(c, buf); err != nil {
		return err
	}

	wrap := func(err error) error {
		return &errs.ChunkError{
			Path:    f.Path(),
			RegionX: f.Coord().X,
			RegionZ: f.Coord().Z,
			ChunkX:  c.X,
			ChunkZ:  c.Z,
			Err:     err,
		}
	}

	_, root, err := s.decoder.Decode(buf.Bytes())
	if err != nil {
		return wrap(err)
	}
	parsed, err := chunk.Parse(root, s.chunkOpts...)
	if err != nil {
		return wrap(err)
	}
	if err := parsed.Count(table.Add); err != nil {
		return wrap(err)
	}

	return nil
}

// ScanFile counts a single region file. It is Scan for one path.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*Report, error) {
	return s.Scan(ctx, []string{path})
}

// IsCancelled reports whether err came from a cancelled or expired context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
