package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljiulong/boxyy/internal/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	return New(t.TempDir(), ttl, zerolog.Nop())
}

func TestSetThenGet(t *testing.T) {
	s := newTestStore(t, time.Hour)

	in := []string{"ripgrep", "fd", "bat"}
	require.NoError(t, s.Set("cargo-global", in))

	var out []string
	ok, err := s.Get("cargo-global", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestGetMissOnAbsentKey(t *testing.T) {
	s := newTestStore(t, time.Hour)

	var out []string
	ok, err := s.Get("never-set", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetMissOnExpiredEntry(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, zerolog.Nop())

	raw, err := json.Marshal([]string{"stale"})
	require.NoError(t, err)
	entry := Entry{Data: raw, CachedAt: time.Now().Add(-2 * time.Hour).Unix()}
	data, err := json.Marshal(&entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brew-global.json"), data, 0644))

	var out []string
	ok, err := s.Get("brew-global", &out)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as a miss, not an error")
}

func TestGetCorruptEntryIsSerializationError(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, zerolog.Nop())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644))

	var out []string
	ok, err := s.Get("bad", &out)
	assert.False(t, ok)
	var serr *domain.SerializationError
	require.ErrorAs(t, err, &serr)
}

func TestSetReplacesExistingEntry(t *testing.T) {
	s := newTestStore(t, time.Hour)

	require.NoError(t, s.Set("pip-global", []string{"old"}))
	require.NoError(t, s.Set("pip-global", []string{"new"}))

	var out []string
	ok, err := s.Get("pip-global", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, out)
}

func TestInvalidate(t *testing.T) {
	s := newTestStore(t, time.Hour)

	require.NoError(t, s.Set("npm-global", []string{"left-pad"}))
	require.NoError(t, s.Invalidate("npm-global"))

	var out []string
	ok, err := s.Get("npm-global", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateAbsentKeyIsNoop(t *testing.T) {
	s := newTestStore(t, time.Hour)
	assert.NoError(t, s.Invalidate("never-set"))
}

func TestCleanRemovesOldEntriesOnly(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, time.Hour, zerolog.Nop())

	require.NoError(t, s.Set("old", []string{"a"}))
	require.NoError(t, s.Set("fresh", []string{"b"}))

	past := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.json"), past, past))

	removed, err := s.Clean(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	var out []string
	ok, err := s.Get("fresh", &out)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCleanOnMissingDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), time.Hour, zerolog.Nop())
	removed, err := s.Clean(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
