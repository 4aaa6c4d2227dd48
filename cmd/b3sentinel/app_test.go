package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/cache"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("market:\n  provider: yahoo\n"), 0o644))
	return path
}

func TestNewApp_ConfigFlagLoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("QUOTE_PROVIDER=financego\n"), 0o644))
	path := writeConfig(t, dir)

	t.Setenv("QUOTE_PROVIDER", "")
	require.NoError(t, os.Unsetenv("QUOTE_PROVIDER"))
	t.Chdir(dir)

	a, err := newApp(path)
	require.NoError(t, err)
	assert.Equal(t, "financego", a.cfg.Market.Provider)
}

func TestApp_ResetCache(t *testing.T) {
	t.Chdir(t.TempDir())
	a, err := newApp(writeConfig(t, t.TempDir()))
	require.NoError(t, err)

	for _, d := range []int{1, 2, 3} {
		_, err := cache.Do(a.memo, "history", []any{d}, func() (int, error) { return d, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 3, a.memo.Stats().Entries)

	a.resetCache(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, a.memo.Stats().Entries)
}
