package main

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/tally"
)

//go:embed report.schema.json
var reportSchema string

func compileReportSchema(t *testing.T) *jsonschema.Schema {
	t.Helper()

	s, err := jsonschema.CompileString("report.schema.json", reportSchema)
	require.NoError(t, err)

	return s
}

// decodeReport validates out against the report schema and decodes it.
func decodeReport(t *testing.T, out string) jsonReport {
	t.Helper()

	var v any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.NoError(t, compileReportSchema(t).Validate(v))

	var r jsonReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))

	return r
}

func TestCount_Table(t *testing.T) {
	dir := writeWorld(t)

	out, _, err := runCLI(t, "count", dir)
	require.NoError(t, err)
	assertContains(t, out, "BLOCK", "COUNT", "minecraft:stone", "12,288", "minecraft:air", "4,096", "75.00%")
	require.Less(t, strings.Index(out, "minecraft:stone"), strings.Index(out, "minecraft:air"))
}

func TestCount_JSON(t *testing.T) {
	dir := writeWorld(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r.9.9.mca"), make([]byte, 100), 0o600))

	out, _, err := runCLI(t, "count", dir, "--json")
	require.NoError(t, err)

	r := decodeReport(t, out)
	require.False(t, r.Interrupted)
	require.Equal(t, uint64(16384), r.Total)
	require.Equal(t, 2, r.Distinct)
	require.Len(t, r.Entries, 2)
	require.Equal(t, "minecraft:stone", r.Entries[0].ID)
	require.Equal(t, uint64(12288), r.Entries[0].Count)

	require.Equal(t, 2, r.Stats.Regions)
	require.Equal(t, 1, r.Stats.RegionsFailed)
	require.Equal(t, 2, r.Stats.Chunks)
	require.Equal(t, 2*1023, r.Stats.ChunksAbsent)

	require.Len(t, r.Failures, 1)
	require.Equal(t, 9, r.Failures[0].RegionX)
	require.Nil(t, r.Failures[0].ChunkX)
	require.Contains(t, r.Failures[0].Error, errs.ErrMalformedHeader.Error())
}

func TestCount_FlagsOverrideConfig(t *testing.T) {
	dir := writeWorld(t)
	cfg := writeConfig(t, "top: 1\nignore: [stone]\n")

	out, _, err := runCLI(t, "count", dir, "--json", "--config", cfg)
	require.NoError(t, err)
	r := decodeReport(t, out)
	require.Len(t, r.Entries, 1)
	require.Equal(t, "minecraft:air", r.Entries[0].ID)

	out, _, err = runCLI(t, "count", dir, "--json", "--config", cfg, "--top", "0", "--ignore", "AIR")
	require.NoError(t, err)
	r = decodeReport(t, out)
	require.Empty(t, r.Entries, "flag ignores add to the configured ones")
	require.Equal(t, 2, r.Distinct)
}

func TestCount_Unsorted(t *testing.T) {
	dir := writeWorld(t)

	// Discovery order puts stone first either way; air is dropped by the limit.
	out, _, err := runCLI(t, "count", dir, "--json", "--sort=false", "-n", "1")
	require.NoError(t, err)
	r := decodeReport(t, out)
	require.Len(t, r.Entries, 1)
	require.Equal(t, "minecraft:stone", r.Entries[0].ID)
}

func TestCount_Cache(t *testing.T) {
	dir := writeWorld(t)
	db := filepath.Join(t.TempDir(), "cache", "blocktally.db")

	out, _, err := runCLI(t, "count", dir, "--json", "--cache", db)
	require.NoError(t, err)
	first := decodeReport(t, out)
	require.NotEmpty(t, first.RunID)
	require.Equal(t, 0, first.Stats.RegionsCached)

	out, _, err = runCLI(t, "count", dir, "--json", "--cache", db)
	require.NoError(t, err)
	second := decodeReport(t, out)
	require.NotEqual(t, first.RunID, second.RunID)
	require.Equal(t, 2, second.Stats.RegionsCached)
	require.Equal(t, first.Entries, second.Entries)
	require.Equal(t, first.Stats.Chunks, second.Stats.Chunks)
	require.Equal(t, first.Stats.ChunksAbsent, second.Stats.ChunksAbsent)

	out, _, err = runCLI(t, "count", dir, "--json", "--cache", db, "--no-cache")
	require.NoError(t, err)
	require.Empty(t, decodeReport(t, out).RunID)
}

func TestCount_Failures(t *testing.T) {
	dir := writeWorld(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r.9.9.mca"), make([]byte, 100), 0o600))

	_, stderr, err := runCLI(t, "count", dir)
	require.NoError(t, err)
	assertContains(t, stderr, "1 failures (use --verbose to list them)")

	_, stderr, err = runCLI(t, "count", dir, "-v")
	require.NoError(t, err)
	assertContains(t, stderr, "1 failures:", "r.9.9.mca")
}

func TestCount_Quiet(t *testing.T) {
	out, stderr, err := runCLI(t, "count", writeWorld(t), "-q")
	require.NoError(t, err)
	require.Empty(t, out)
	require.Empty(t, stderr)
}

func TestCount_InvalidArguments(t *testing.T) {
	_, _, err := runCLI(t, "count")
	require.Error(t, err)

	_, _, err = runCLI(t, "count", t.TempDir(), "--workers", "0")
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, _, err = runCLI(t, "count", t.TempDir(), "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCount_Empty(t *testing.T) {
	out, _, err := runCLI(t, "count", t.TempDir())
	require.NoError(t, err)
	assertContains(t, out, "No blocks counted.")
}

func TestRenderSummary_Interrupted(t *testing.T) {
	r := &tally.Report{
		Table: tally.NewTable(),
		Stats: tally.Stats{Regions: 3, RegionsCached: 1, RegionsInterrupted: 2},
	}

	var buf strings.Builder
	renderSummary(&buf, r, true)
	assertContains(t, buf.String(),
		"1 regions answered from the cache",
		"2 regions interrupted and not counted",
		"Scan interrupted; counts are partial.",
	)

	buf.Reset()
	r.Stats.RegionsInterrupted = 0
	renderSummary(&buf, r, false)
	require.NotContains(t, buf.String(), "interrupted")
}
