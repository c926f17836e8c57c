package tally

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/testutil"
	"github.com/arloliu/blocktally/region"
)

// writeWorld writes n regions along the x axis. Region i holds i+1 chunks;
// each chunk has a stone section and a section alternating between a block
// unique to the region and air.
func writeWorld(t *testing.T, dir string, n int) []string {
	t.Helper()

	paths := make([]string, n)
	for i := range n {
		b := testutil.NewRegion(i, 0)
		for c := range i + 1 {
			root := testutil.SectionsChunk(3465,
				testutil.Uniform(0, "minecraft:stone"),
				testutil.Section{
					Y:       1,
					Palette: []string{"minecraft:ore_" + string(rune('a'+i)), "minecraft:air"},
					Indices: testutil.Alternating(2),
				},
			)
			b.Chunk(c, c, root, format.CompressionZlib)
		}
		paths[i] = b.WriteFile(t, dir)
	}

	return paths
}

func newScanner(t *testing.T, opts ...ScannerOption) *Scanner {
	t.Helper()

	s, err := NewScanner(opts...)
	require.NoError(t, err)

	return s
}

func TestScan(t *testing.T) {
	paths := writeWorld(t, t.TempDir(), 3)

	report, err := newScanner(t).Scan(context.Background(), paths)
	require.NoError(t, err)
	require.NoError(t, report.Err())

	chunks := 1 + 2 + 3
	require.Equal(t, uint64(chunks*(4096+2048)), report.Table.Count("minecraft:stone"))
	require.Equal(t, uint64(chunks*2048), report.Table.Count("minecraft:air"))
	require.Equal(t, uint64(3*2048), report.Table.Count("minecraft:ore_c"))

	require.Equal(t, 3, report.Stats.Regions)
	require.Equal(t, chunks, report.Stats.Chunks)
	require.Equal(t, 3*region.ChunksPerRegion-chunks, report.Stats.ChunksAbsent)
	require.Equal(t, uint64(chunks*2*4096), report.Stats.Blocks)
	require.Equal(t, report.Table.Total(), report.Stats.Blocks)
	require.Positive(t, report.Stats.Bytes)
}

func TestScan_WorkerCountDoesNotMatter(t *testing.T) {
	paths := writeWorld(t, t.TempDir(), 8)

	want, err := newScanner(t, WithWorkers(1)).Scan(context.Background(), paths)
	require.NoError(t, err)
	require.Equal(t, []string{
		"minecraft:stone", "minecraft:ore_a", "minecraft:air", "minecraft:ore_b",
		"minecraft:ore_c", "minecraft:ore_d", "minecraft:ore_e", "minecraft:ore_f",
		"minecraft:ore_g", "minecraft:ore_h",
	}, ids(want.Table))

	for _, workers := range []int{2, 3, 8, 32} {
		got, err := newScanner(t, WithWorkers(workers)).Scan(context.Background(), paths)
		require.NoError(t, err)
		require.Equal(t, ids(want.Table), ids(got.Table), "workers=%d", workers)
		require.True(t, want.Table.Equal(got.Table))
		require.Equal(t, Top(want.Table, ReduceOptions{Limit: 4}), Top(got.Table, ReduceOptions{Limit: 4}))
	}
}

func TestScan_Failures(t *testing.T) {
	dir := t.TempDir()
	stone := testutil.SectionsChunk(3465, testutil.Uniform(0, "minecraft:stone"))

	// Chunk (0,0) claims sectors beyond the end of the file.
	truncated := testutil.NewRegion(0, 0).Chunk(1, 0, stone, format.CompressionZlib).Bytes()
	testutil.SetLocation(truncated, 0, 0, 2, 2)
	truncatedPath := filepath.Join(dir, "r.0.0.mca")
	require.NoError(t, os.WriteFile(truncatedPath, truncated, 0o600))

	// Chunk (2,0) indexes past its palette.
	badIndex := testutil.SectionsChunk(3465, testutil.Section{Palette: []string{"x:a", "x:b"}, Indices: testutil.Filled(5)})
	corruptPath := testutil.NewRegion(1, 0).
		Chunk(0, 0, stone, format.CompressionGzip).
		Chunk(2, 0, badIndex, format.CompressionZlib).
		Raw(3, 0, 99, []byte{1}).
		WriteFile(t, dir)

	missing := filepath.Join(dir, "r.9.9.mca")
	misnamed := filepath.Join(dir, "level.dat")
	require.NoError(t, os.WriteFile(misnamed, []byte{1, 2, 3}, 0o600))

	report, err := newScanner(t, WithWorkers(2)).Scan(context.Background(),
		[]string{truncatedPath, missing, corruptPath, misnamed})
	require.NoError(t, err)

	require.Equal(t, uint64(2*4096), report.Table.Count("minecraft:stone"))
	require.Equal(t, 1, report.Table.Len(), "failed chunks must not contribute")

	require.Equal(t, 2, report.Stats.Regions)
	require.Equal(t, 2, report.Stats.RegionsFailed)
	require.Equal(t, 2, report.Stats.Chunks)
	require.Equal(t, 3, report.Stats.ChunksFailed)
	require.Equal(t, 2*region.ChunksPerRegion-5, report.Stats.ChunksAbsent)

	require.Len(t, report.Failures, 5)
	f := report.Failures
	// input order, then slot order within a file
	require.ErrorIs(t, f[0], errs.ErrTruncatedPayload)
	require.Equal(t, truncatedPath, f[0].Path)
	require.Equal(t, 0, f[0].ChunkX)
	require.ErrorIs(t, f[1], os.ErrNotExist)
	require.Equal(t, -1, f[1].ChunkX)
	require.Equal(t, region.Coord{X: 9, Z: 9}, f[1].Region)
	require.ErrorIs(t, f[2], errs.ErrPaletteIndexOutOfRange)
	require.Equal(t, 2, f[2].ChunkX)
	require.Equal(t, region.Coord{X: 1, Z: 0}, f[2].Region)
	require.ErrorIs(t, f[3], errs.ErrUnsupportedCompression)
	require.Equal(t, 3, f[3].ChunkX)
	require.ErrorIs(t, f[4], errs.ErrInvalidRegionName)

	require.ErrorIs(t, report.Err(), errs.ErrTruncatedPayload)
	require.Contains(t, f[2].Error(), "chunk 2,0")
}

func TestScan_Cancelled(t *testing.T) {
	paths := writeWorld(t, t.TempDir(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newScanner(t, WithWorkers(2)).Scan(ctx, paths)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, IsCancelled(err))
	require.NotNil(t, report)
	require.Equal(t, 0, report.Stats.Chunks)
	require.Equal(t, 0, report.Table.Len())
}

// cancelOnWarn cancels a scan from inside the first warning it receives.
type cancelOnWarn struct {
	cancel context.CancelFunc
}

func (h cancelOnWarn) Enabled(context.Context, slog.Level) bool { return true }
func (h cancelOnWarn) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h cancelOnWarn) WithGroup(string) slog.Handler { return h }

func (h cancelOnWarn) Handle(_ context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		h.cancel()
	}

	return nil
}

func TestScan_CancelledMidRegion(t *testing.T) {
	dir := t.TempDir()
	good := testutil.SectionsChunk(3465, testutil.Uniform(0, "minecraft:stone"))
	path := testutil.NewRegion(0, 0).
		Chunk(0, 0, good, format.CompressionZlib).
		Raw(1, 0, byte(format.CompressionZlib), []byte{0xFF, 0x00, 0x01, 0x02}).
		Chunk(2, 0, good, format.CompressionZlib).
		WriteFile(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The corrupt chunk in slot 1 logs a warning, which cancels the scan
	// before slot 2 is visited.
	s := newScanner(t, WithWorkers(1), WithLogger(slog.New(cancelOnWarn{cancel: cancel})))
	report, err := s.ScanFile(ctx, path)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, Stats{Regions: 1, RegionsInterrupted: 1, Bytes: report.Stats.Bytes, Elapsed: report.Stats.Elapsed}, report.Stats)
	require.Positive(t, report.Stats.Bytes)
	require.Empty(t, report.Failures)
	require.Equal(t, 0, report.Table.Len())
	require.NoError(t, report.Err())
}

func TestScan_Empty(t *testing.T) {
	report, err := newScanner(t).Scan(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 0, report.Table.Len())

	emptyRegion := filepath.Join(t.TempDir(), "r.0.0.mca")
	require.NoError(t, os.WriteFile(emptyRegion, nil, 0o600))

	report, err = newScanner(t).ScanFile(context.Background(), emptyRegion)
	require.NoError(t, err)
	require.Equal(t, 1, report.Stats.Regions)
	require.Equal(t, region.ChunksPerRegion, report.Stats.ChunksAbsent)
}

func TestScan_BlockStates(t *testing.T) {
	root := testutil.SectionsChunk(3465, testutil.Section{
		Palette: []string{"minecraft:oak_log[axis=y]", "minecraft:oak_log[axis=x]"},
		Indices: testutil.Alternating(2),
	})
	path := testutil.NewRegion(0, 0).Chunk(0, 0, root, format.CompressionLZ4).WriteFile(t, t.TempDir())

	report, err := newScanner(t).ScanFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{"minecraft:oak_log": 4096}, report.Table.Map())

	report, err = newScanner(t, WithBlockStates()).ScanFile(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, map[string]uint64{
		"minecraft:oak_log[axis=y]": 2048,
		"minecraft:oak_log[axis=x]": 2048,
	}, report.Table.Map())
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[CacheKey]CachedRegion
	hits    int
}

func (m *memoryCache) Lookup(_ context.Context, key CacheKey) (CachedRegion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.entries[key]
	if ok {
		m.hits++
		r.Table = r.Table.Clone()
		return r, true, nil
	}

	return CachedRegion{}, false, nil
}

func (m *memoryCache) Store(_ context.Context, key CacheKey, r CachedRegion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.Table = r.Table.Clone()
	m.entries[key] = r

	return nil
}

func TestScan_Cache(t *testing.T) {
	dir := t.TempDir()
	paths := writeWorld(t, dir, 3)
	cache := &memoryCache{entries: make(map[CacheKey]CachedRegion)}

	fresh, err := newScanner(t, WithCache(cache)).Scan(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, cache.entries, 3)
	require.Equal(t, 0, fresh.Stats.RegionsCached)

	cached, err := newScanner(t, WithCache(cache)).Scan(context.Background(), paths)
	require.NoError(t, err)
	require.Equal(t, 3, cached.Stats.RegionsCached)
	require.Equal(t, 3, cache.hits)
	require.Equal(t, ids(fresh.Table), ids(cached.Table))
	require.True(t, fresh.Table.Equal(cached.Table))
	require.Equal(t, fresh.Stats.Blocks, cached.Stats.Blocks)
	require.Equal(t, fresh.Stats.Chunks, cached.Stats.Chunks)
	require.Equal(t, fresh.Stats.ChunksAbsent, cached.Stats.ChunksAbsent)
	require.Equal(t, 1+2+3, cached.Stats.Chunks)

	// Per-state tables are kept apart from per-name ones.
	_, err = newScanner(t, WithCache(cache), WithBlockStates()).Scan(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, cache.entries, 6)

	// Rewriting a region changes its header and invalidates the entry.
	testutil.NewRegion(0, 0).
		Chunk(5, 5, testutil.SectionsChunk(3465, testutil.Uniform(0, "minecraft:dirt")), format.CompressionZlib).
		WriteFile(t, dir)
	again, err := newScanner(t, WithCache(cache)).Scan(context.Background(), paths)
	require.NoError(t, err)
	require.Equal(t, 2, again.Stats.RegionsCached)
	require.Equal(t, uint64(4096), again.Table.Count("minecraft:dirt"))
}

func TestNewScanner_InvalidOptions(t *testing.T) {
	_, err := NewScanner(WithWorkers(0), WithLogger(nil), WithInternSize(-1))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}
