package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultDatetimeFormat mirrors store.DefaultDatetimeFormat.
const DefaultDatetimeFormat = "%y-%m-%d %H:%M:%S"

// Config represents ~/.litegate/config.toml.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Write    WriteConfig    `toml:"write"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig describes the connection to open.
type DatabaseConfig struct {
	Path           string `toml:"path"` // ":memory:" for an in-memory database
	Driver         string `toml:"driver"`
	DatetimeFormat string `toml:"datetime_format"`
	BusyTimeoutMS  int    `toml:"busy_timeout_ms"`
	WAL            bool   `toml:"wal"`
	CloseOnExit    bool   `toml:"close_on_exit"`
}

// WriteConfig holds the default write-lock policy.
type WriteConfig struct {
	LockTimeoutMS     int  `toml:"lock_timeout_ms"` // -1 block, 0 non-blocking
	IgnoreLockTimeout bool `toml:"ignore_lock_timeout"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// BaseDir returns ~/.litegate.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".litegate")
}

// DefaultPath returns the config file path.
func DefaultPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// DefaultDBPath returns the database file used when none is configured.
func DefaultDBPath() string {
	return filepath.Join(BaseDir(), "litegate.db")
}

// DefaultLogPath returns the suggested log file location.
func DefaultLogPath() string {
	return filepath.Join(BaseDir(), "logs", "litegate.log")
}

// Default returns a config with every field set.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:           DefaultDBPath(),
			Driver:         "mattn",
			DatetimeFormat: DefaultDatetimeFormat,
			BusyTimeoutMS:  5000,
			WAL:            true,
			CloseOnExit:    true,
		},
		Write: WriteConfig{
			LockTimeoutMS: -1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config from the given path on top of Default.
// Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path if it exists and falls back to Default otherwise.
// An empty path means DefaultPath.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks values that would otherwise fail later at Open.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path is empty")
	}
	switch c.Database.Driver {
	case "", "mattn", "modernc":
	default:
		return fmt.Errorf("database.driver %q: want mattn or modernc", c.Database.Driver)
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("database.busy_timeout_ms must be >= 0, got %d", c.Database.BusyTimeoutMS)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level)
	}
	return nil
}

// BusyTimeout returns database.busy_timeout_ms as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
}

// LockTimeout returns write.lock_timeout_ms as a duration. Any negative
// value means wait forever.
func (c *Config) LockTimeout() time.Duration {
	if c.Write.LockTimeoutMS < 0 {
		return -1
	}
	return time.Duration(c.Write.LockTimeoutMS) * time.Millisecond
}
