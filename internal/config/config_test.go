package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")

	cfg := Default()
	cfg.Database.Path = ":memory:"
	cfg.Database.Driver = "modernc"
	cfg.Write.LockTimeoutMS = 250
	cfg.Write.IgnoreLockTimeout = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want %q", loaded.Database.Path, ":memory:")
	}
	if loaded.Database.Driver != "modernc" {
		t.Errorf("Database.Driver = %q, want modernc", loaded.Database.Driver)
	}
	if loaded.LockTimeout() != 250*time.Millisecond {
		t.Errorf("LockTimeout() = %s, want 250ms", loaded.LockTimeout())
	}
	if !loaded.Write.IgnoreLockTimeout {
		t.Error("Write.IgnoreLockTimeout = false, want true")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[database]\npath = \"/tmp/x.db\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Path != "/tmp/x.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Database.DatetimeFormat != DefaultDatetimeFormat {
		t.Errorf("DatetimeFormat = %q, want default", cfg.Database.DatetimeFormat)
	}
	if cfg.LockTimeout() != -1 {
		t.Errorf("LockTimeout() = %s, want -1", cfg.LockTimeout())
	}
	if !cfg.Database.CloseOnExit {
		t.Error("CloseOnExit = false, want default true")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad driver": "[database]\npath = \"x.db\"\ndriver = \"postgres\"\n",
		"empty path": "[database]\npath = \"\"\n",
		"bad level":  "[log]\nlevel = \"loud\"\n",
		"bad toml":   "[database\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(body), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestResolveMissingFallsBackToDefault(t *testing.T) {
	cfg, err := Resolve(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.Database.Path != DefaultDBPath() {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, DefaultDBPath())
	}
}

func TestSavePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	perm := info.Mode().Perm()
	if perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
