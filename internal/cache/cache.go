package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ljiulong/boxyy/internal/domain"
)

// DefaultTTL bounds how long a cached listing is trusted.
const DefaultTTL = time.Hour

// Entry is the on-disk envelope: one JSON file per key.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	CachedAt int64           `json:"cached_at"`
}

// Store is a keyed, TTL-bounded cache of serializable payloads backed by
// one file per key. Expiry is checked at read time; expired entries degrade
// to a miss rather than an error. There is no cross-process locking:
// entries are derived data, so last writer wins.
type Store struct {
	mu  sync.RWMutex
	dir string
	ttl time.Duration
	log zerolog.Logger
}

// New creates a Store rooted at dir. A non-positive ttl falls back to
// DefaultTTL. The directory is created lazily on first Set.
func New(dir string, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		dir: dir,
		ttl: ttl,
		log: logger.With().Str("component", "cache").Logger(),
	}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get loads the entry under key into dest. It returns false on a missing
// or stale entry; a payload that cannot be decoded is an error, never a
// silent miss.
func (s *Store) Get(key string, dest any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &domain.CacheError{Op: "read", Err: err}
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false, &domain.SerializationError{Err: err}
	}

	if time.Now().Unix()-entry.CachedAt > int64(s.ttl.Seconds()) {
		s.log.Debug().Str("key", key).Msg("cache entry expired")
		return false, nil
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return false, &domain.SerializationError{Err: err}
	}

	s.log.Debug().Str("key", key).Msg("cache hit")
	return true, nil
}

// Set stores value under key, replacing any existing entry with a full
// file write.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return &domain.SerializationError{Err: err}
	}
	entry := Entry{Data: raw, CachedAt: time.Now().Unix()}
	data, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return &domain.SerializationError{Err: err}
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &domain.CacheError{Op: "mkdir", Err: err}
	}
	if err := os.WriteFile(s.path(key), data, 0644); err != nil {
		return &domain.CacheError{Op: "write", Err: err}
	}

	s.log.Debug().Str("key", key).Msg("cache updated")
	return nil
}

// Invalidate removes the entry under key. Removing an absent entry is not
// an error.
func (s *Store) Invalidate(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &domain.CacheError{Op: "remove", Err: err}
	}

	s.log.Debug().Str("key", key).Msg("cache invalidated")
	return nil
}

// Clean removes every entry whose file was last modified more than
// olderThan ago and returns how many were removed. Hygiene, not
// correctness: Get already treats stale entries as misses.
func (s *Store) Clean(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, &domain.CacheError{Op: "readdir", Err: err}
	}

	cleaned := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return cleaned, &domain.CacheError{Op: "stat", Err: err}
		}
		if time.Since(info.ModTime()) <= olderThan {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return cleaned, &domain.CacheError{Op: "remove", Err: err}
		}
		cleaned++
	}

	if cleaned > 0 {
		s.log.Info().Int("removed", cleaned).Msg("cleaned expired cache entries")
	}
	return cleaned, nil
}
