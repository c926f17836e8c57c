package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/testutil"
	"github.com/arloliu/blocktally/tally"
)

func openCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func sampleTable() *tally.Table {
	tbl := tally.NewTable()
	tbl.Add("minecraft:stone", 123456)
	tbl.Add("minecraft:air", 99)
	tbl.Add("minecraft:deepslate", 1<<33)

	return tbl
}

func TestCache_StoreLookup(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionNone} {
		t.Run(ct.String(), func(t *testing.T) {
			ctx := context.Background()
			c := openCache(t, WithCompression(ct))
			key := tally.CacheKey{Path: "/world/region/r.0.0.mca", Hash: 0xDEADBEEFCAFEF00D, Variant: tally.VariantNames}

			_, ok, err := c.Lookup(ctx, key)
			require.NoError(t, err)
			require.False(t, ok)

			want := tally.CachedRegion{Table: sampleTable(), Chunks: 612, ChunksAbsent: 412}
			require.NoError(t, c.Store(ctx, key, want))

			got, ok, err := c.Lookup(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			require.True(t, want.Table.Equal(got.Table))
			require.Equal(t, 612, got.Chunks)
			require.Equal(t, 412, got.ChunksAbsent)

			// stale hash
			stale := key
			stale.Hash++
			_, ok, err = c.Lookup(ctx, stale)
			require.NoError(t, err)
			require.False(t, ok)

			// other variant
			states := key
			states.Variant = tally.VariantStates
			_, ok, err = c.Lookup(ctx, states)
			require.NoError(t, err)
			require.False(t, ok)

			// replace
			updated := tally.NewTable()
			updated.Add("minecraft:dirt", 1)
			require.NoError(t, c.Store(ctx, stale, tally.CachedRegion{Table: updated, Chunks: 1, ChunksAbsent: 1023}))
			got, ok, err = c.Lookup(ctx, stale)
			require.NoError(t, err)
			require.True(t, ok)
			require.True(t, updated.Equal(got.Table))
			require.Equal(t, 1, got.Chunks)
			require.Equal(t, 1023, got.ChunksAbsent)

			n, err := c.Len(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, n)
		})
	}
}

func TestCache_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	key := tally.CacheKey{Path: "r.0.0.mca", Hash: 1, Variant: tally.VariantNames}

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Store(ctx, key, tally.CachedRegion{Table: sampleTable(), Chunks: 3, ChunksAbsent: 1021}))
	require.NoError(t, c.Close())

	// Entries keep their own codec, so a different default still reads them.
	c, err = Open(path, WithCompression(format.CompressionS2))
	require.NoError(t, err)
	defer c.Close()

	got, ok, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, sampleTable().Equal(got.Table))
	require.Equal(t, 3, got.Chunks)
	require.Equal(t, 1021, got.ChunksAbsent)
}

func TestCache_OldSchemaIsDropped(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE regions (
		path TEXT NOT NULL, variant TEXT NOT NULL, hash INTEGER NOT NULL, codec INTEGER NOT NULL,
		ids INTEGER NOT NULL, blocks INTEGER NOT NULL, blob BLOB NOT NULL, updated_at TEXT NOT NULL,
		PRIMARY KEY (path, variant))`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO regions VALUES ('r.0.0.mca', 'names', 1, 0, 0, 0, x'', '')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := Open(path)
	require.NoError(t, err)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "entries without chunk counts are discarded")

	key := tally.CacheKey{Path: "r.0.0.mca", Hash: 1, Variant: tally.VariantNames}
	require.NoError(t, c.Store(ctx, key, tally.CachedRegion{Table: sampleTable(), Chunks: 2, ChunksAbsent: 1022}))
	got, ok, err := c.Lookup(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, got.Chunks)
	require.NoError(t, c.Close())

	// A current schema survives reopening.
	c, err = Open(path)
	require.NoError(t, err)
	defer c.Close()

	n, err = c.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCache_Runs(t *testing.T) {
	ctx := context.Background()
	c := openCache(t)

	id, err := c.BeginRun(ctx)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	report := &tally.Report{
		Table:    sampleTable(),
		Stats:    tally.Stats{Regions: 4, RegionsCached: 1, Chunks: 40, Blocks: 1 << 35},
		Failures: []tally.Failure{{Path: "r.0.0.mca", ChunkX: 1, ChunkZ: 2, Err: errs.ErrTruncatedPayload}},
	}
	require.NoError(t, c.FinishRun(ctx, id, report))

	runs, err := c.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, id, runs[0].ID)
	require.Equal(t, 4, runs[0].Regions)
	require.Equal(t, 1, runs[0].RegionsCached)
	require.Equal(t, 40, runs[0].Chunks)
	require.Equal(t, 1, runs[0].Failures)
	require.Equal(t, uint64(1<<35), runs[0].Blocks)
	require.False(t, runs[0].FinishedAt.IsZero())

	require.Error(t, c.FinishRun(ctx, uuid.NewString(), report))
}

func TestCache_WithScanner(t *testing.T) {
	ctx := context.Background()
	c := openCache(t)

	dir := t.TempDir()
	root := testutil.SectionsChunk(3465,
		testutil.Uniform(0, "minecraft:stone"),
		testutil.Section{Y: 1, Palette: []string{"minecraft:stone", "minecraft:air"}, Indices: testutil.Alternating(2)},
	)
	paths := []string{
		testutil.NewRegion(0, 0).Chunk(0, 0, root, format.CompressionZlib).WriteFile(t, dir),
		testutil.NewRegion(1, 0).Chunk(3, 3, root, format.CompressionGzip).WriteFile(t, dir),
	}

	s, err := tally.NewScanner(tally.WithCache(c), tally.WithWorkers(2))
	require.NoError(t, err)

	fresh, err := s.Scan(ctx, paths)
	require.NoError(t, err)
	n, err := c.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	cached, err := s.Scan(ctx, paths)
	require.NoError(t, err)
	require.Equal(t, 2, cached.Stats.RegionsCached)
	require.True(t, fresh.Table.Equal(cached.Table))
	require.Equal(t, 2, cached.Stats.Chunks)
	require.Equal(t, 2*1023, cached.Stats.ChunksAbsent)
	require.Equal(t, fresh.Stats.Blocks, cached.Stats.Blocks)
	require.Equal(t,
		tally.Top(fresh.Table, tally.ReduceOptions{Sort: true}),
		tally.Top(cached.Table, tally.ReduceOptions{Sort: true}),
	)
}

func TestOpen_InvalidOptions(t *testing.T) {
	_, err := Open("")
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = Open(filepath.Join(t.TempDir(), "c.db"), WithCompression(format.CompressionLZ4))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}
