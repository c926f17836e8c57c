package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/format"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "blocktally.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	ct, err := cfg.CacheCompression()
	require.NoError(t, err)
	require.Equal(t, format.CompressionZstd, ct)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
top: 5
sort: false
ignore: [" air ", "", "minecraft:cave_air"]
workers: 3
states: true
log_level: DEBUG
cache:
  path: " ~/blocktally.db "
  compression: S2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Top)
	require.False(t, cfg.Sort)
	require.Equal(t, []string{"air", "minecraft:cave_air"}, cfg.Ignore)
	require.Equal(t, 3, cfg.Workers)
	require.True(t, cfg.States)
	require.False(t, cfg.Recursive)
	require.Equal(t, "debug", cfg.LogLevel)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "blocktally.db"), cfg.Cache.Path)

	ct, err := cfg.CacheCompression()
	require.NoError(t, err)
	require.Equal(t, format.CompressionS2, ct)
}

func TestLoad_Partial(t *testing.T) {
	cfg, err := Load(writeConfig(t, "top: 3\n"))
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Top)
	require.True(t, cfg.Sort, "unset fields keep their defaults")
	require.Equal(t, Default().Workers, cfg.Workers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "top: [1, 2"))
	require.Error(t, err)

	invalid := []string{
		"top: -1",
		"workers: 0",
		"log_level: loud",
		"cache:\n  compression: lz4",
		"cache:\n  compression: brotli",
	}
	for _, body := range invalid {
		_, err := Load(writeConfig(t, body))
		require.ErrorIs(t, err, errs.ErrInvalidConfig, body)
	}
}
