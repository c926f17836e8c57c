package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/testutil"
	"github.com/arloliu/blocktally/nbt"
)

func stoneChunk() *nbt.Compound {
	return testutil.SectionsChunk(3465, testutil.Uniform(0, "minecraft:stone"))
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	path := testutil.NewRegion(-1, 2).
		Chunk(0, 0, stoneChunk(), format.CompressionGzip).
		Chunk(31, 31, stoneChunk(), format.CompressionLZ4).
		External(4, 5, stoneChunk(), format.CompressionZlib).
		WriteFile(t, dir)

	out, _, err := runCLI(t, "info", path, "--json")
	require.NoError(t, err)

	var info regionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Equal(t, -1, info.X)
	require.Equal(t, 2, info.Z)
	require.Equal(t, 3, info.Present)
	require.Len(t, info.Chunks, 3)

	// Slot order.
	first, ext, last := info.Chunks[0], info.Chunks[1], info.Chunks[2]
	require.Equal(t, 0, first.Slot)
	require.Equal(t, -32, first.WorldX)
	require.Equal(t, 64, first.WorldZ)
	require.Equal(t, "Gzip", first.Compression)
	require.EqualValues(t, 2, first.Offset)

	require.Equal(t, 5*32+4, ext.Slot)
	require.True(t, ext.External)
	require.Equal(t, "Zlib", ext.Compression)

	require.Equal(t, 1023, last.Slot)
	require.Equal(t, "LZ4", last.Compression)

	out, _, err = runCLI(t, "info", path)
	require.NoError(t, err)
	assertContains(t, out, "Region -1,2", "Chunks: 3/1024", "COMPRESSION", "Gzip", "Zlib (external)", "LZ4", "2023-11-14T22:13:20Z")
}

func TestInfo_BrokenSlot(t *testing.T) {
	dir := t.TempDir()
	b := testutil.NewRegion(0, 0).Chunk(0, 0, stoneChunk(), format.CompressionZlib)
	data := b.Bytes()
	testutil.SetLocation(data, 1, 0, 1, 1)

	path := filepath.Join(dir, b.FileName())
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, _, err := runCLI(t, "info", path, "--json")
	require.NoError(t, err)

	var info regionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Len(t, info.Chunks, 2)
	require.Empty(t, info.Chunks[0].Error)
	require.Contains(t, info.Chunks[1].Error, "inside the header")
	require.NotContains(t, info.Chunks[1].Error, path, "coordinates are already in the row")
}

func TestInfo_Errors(t *testing.T) {
	_, _, err := runCLI(t, "info", filepath.Join(t.TempDir(), "r.0.0.mca"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "region.bin")
	require.NoError(t, os.WriteFile(bad, nil, 0o600))
	_, _, err = runCLI(t, "info", bad)
	require.Error(t, err)
}
