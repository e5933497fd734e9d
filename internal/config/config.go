package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	CacheDir       string `toml:"cache_dir"`
	CacheTTLSecs   int    `toml:"cache_ttl_secs"`
	RetryAttempts  int    `toml:"retry_attempts"`
	RetryBaseMs    int    `toml:"retry_base_ms"`
	MaxParallel    int    `toml:"max_parallel"`
	OutdatedSecs   int    `toml:"outdated_timeout_secs"`
	HeartbeatMs    int    `toml:"heartbeat_ms"`
	DefaultManager string `toml:"default_manager"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".boxy")

	return &Config{
		CacheDir:      filepath.Join(base, "cache"),
		CacheTTLSecs:  3600,
		RetryAttempts: 3,
		RetryBaseMs:   1000,
		MaxParallel:   5,
		OutdatedSecs:  5,
		HeartbeatMs:   1000,
	}
}

// Load reads ~/.boxy/config.toml, falling back to defaults if the file is
// absent. Unknown keys are ignored so older configs keep working.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	configPath := filepath.Join(home, ".boxy", "config.toml")
	return loadPath(configPath, cfg)
}

// LoadPath reads a config from an explicit path, for tests and for the
// --config flag.
func LoadPath(path string) (*Config, error) {
	return loadPath(path, DefaultConfig())
}

func loadPath(path string, cfg *Config) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(home, ".boxy", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseMs) * time.Millisecond
}

func (c *Config) OutdatedTimeout() time.Duration {
	return time.Duration(c.OutdatedSecs) * time.Second
}

func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}
