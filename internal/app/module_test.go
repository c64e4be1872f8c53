package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/litegate/internal/config"
	"github.com/matheus3301/litegate/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func writeConfig(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = store.MemoryPath
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLifecycleClosesDatabaseOnStop(t *testing.T) {
	var db *store.DB
	app := fxtest.New(t,
		Module(Params{ConfigPath: writeConfig(t, nil)}),
		fx.Populate(&db),
	)
	app.RequireStart()

	ctx := context.Background()
	if _, err := db.Write(ctx, "CREATE TABLE t(x)", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Write(ctx, "INSERT INTO t VALUES (1)", nil); err != nil {
		t.Fatal(err)
	}
	v, err := db.ReadValue(ctx, "SELECT x FROM t")
	if err != nil {
		t.Fatal(err)
	}
	if v != int64(1) {
		t.Errorf("x = %v, want 1", v)
	}

	app.RequireStop()
	if !db.Closed() {
		t.Error("database still open after app stop")
	}
}

func TestLifecycleCloseOnExitDisabled(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) { c.Database.CloseOnExit = false })

	var db *store.DB
	app := fxtest.New(t, Module(Params{ConfigPath: path}), fx.Populate(&db))
	app.RequireStart()
	app.RequireStop()

	if db.Closed() {
		t.Error("database closed although close_on_exit = false")
	}
	_ = db.Close()
}

func TestParamsOverrideConfig(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "override.db")

	var (
		db  *store.DB
		cfg *config.Config
	)
	app := fxtest.New(t,
		Module(Params{
			ConfigPath: writeConfig(t, nil),
			DBPath:     dbPath,
			Driver:     "modernc",
		}),
		fx.Populate(&db, &cfg),
	)
	app.RequireStart()
	defer app.RequireStop()

	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
	if db.Driver() != store.DriverModernc {
		t.Errorf("Driver() = %q, want modernc", db.Driver())
	}
	if cfg.Database.Path != dbPath {
		t.Errorf("cfg.Database.Path = %q, want %q", cfg.Database.Path, dbPath)
	}
}

func TestWriteDefaultsFromConfig(t *testing.T) {
	path := writeConfig(t, func(c *config.Config) {
		c.Write.LockTimeoutMS = 0
		c.Write.IgnoreLockTimeout = true
	})

	var db *store.DB
	app := fxtest.New(t, Module(Params{ConfigPath: path}), fx.Populate(&db))
	app.RequireStart()
	defer app.RequireStop()

	// Uncontended writes still run with the non-blocking default.
	res, err := db.Write(context.Background(), "CREATE TABLE t(x)", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Executed {
		t.Error("Executed = false on an uncontended lock")
	}
}

func TestInvalidOverrideFails(t *testing.T) {
	app := fx.New(
		Module(Params{ConfigPath: writeConfig(t, nil), Driver: "postgres"}),
		fx.Invoke(func(*store.DB) {}),
		fx.NopLogger,
	)
	if app.Err() == nil {
		t.Error("expected construction error for unknown driver")
	}
}

func TestRunClosesDatabaseOnShutdown(t *testing.T) {
	path := writeConfig(t, nil)

	var db *store.DB
	done := make(chan struct{})
	go func() {
		defer close(done)
		Run(Params{ConfigPath: path},
			fx.Populate(&db),
			fx.Invoke(func(lc fx.Lifecycle, s fx.Shutdowner) {
				lc.Append(fx.StartHook(func() {
					go func() { _ = s.Shutdown() }()
				}))
			}),
		)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
	if db == nil {
		t.Fatal("database was not provided")
	}
	if !db.Closed() {
		t.Error("database still open after Run returned")
	}
}
