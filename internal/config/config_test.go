package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3600, cfg.CacheTTLSecs)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5, cfg.MaxParallel)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
	assert.Equal(t, time.Second, cfg.RetryBaseDelay())
	assert.Equal(t, 5*time.Second, cfg.OutdatedTimeout())
	assert.Equal(t, time.Second, cfg.Heartbeat())
	assert.Contains(t, cfg.CacheDir, ".boxy")
}

func TestLoadPathMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadPath(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().RetryAttempts, cfg.RetryAttempts)
}

func TestLoadPathOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
cache_ttl_secs = 120
retry_attempts = 5
max_parallel = 2
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadPath(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 2, cfg.MaxParallel)
	// Untouched keys keep their defaults.
	assert.Equal(t, 1000, cfg.RetryBaseMs)
}

func TestLoadPathRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("cache_ttl_secs = ["), 0644))

	_, err := LoadPath(path)
	assert.Error(t, err)
}
