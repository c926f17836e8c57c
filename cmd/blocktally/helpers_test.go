package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/internal/testutil"
)

// runCLI executes the command tree with args and returns what it wrote to
// stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func assertContains(t *testing.T, output string, substrings ...string) {
	t.Helper()
	for _, s := range substrings {
		require.Contains(t, output, s)
	}
}

// writeWorld writes two regions with one chunk each: a stone section and a
// section alternating stone and air. Each region holds 6144 stone and 2048
// air.
func writeWorld(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for x := range 2 {
		root := testutil.SectionsChunk(3465,
			testutil.Uniform(0, "minecraft:stone"),
			testutil.Section{
				Y:       1,
				Palette: []string{"minecraft:stone", "minecraft:air"},
				Indices: testutil.Alternating(2),
			},
		)
		testutil.NewRegion(x, 0).Chunk(2, 3, root, format.CompressionZlib).WriteFile(t, dir)
	}

	return dir
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blocktally.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}
