package app

import (
	"context"

	"github.com/matheus3301/litegate/internal/config"
	"github.com/matheus3301/litegate/internal/logging"
	"github.com/matheus3301/litegate/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Params holds command-line overrides passed to the fx module.
// Empty fields keep the value from the config file.
type Params struct {
	ConfigPath string
	DBPath     string
	Driver     string
	LogLevel   string
}

// Module returns the fx module that owns the database: it opens it on
// construction and, when database.close_on_exit is set, closes it in the
// application's stop sequence.
func Module(p Params) fx.Option {
	return fx.Module("litegate",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideStore,
		),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			fl := &fxevent.ZapLogger{Logger: l.Named("fx")}
			fl.UseLogLevel(zapcore.DebugLevel)
			return fl
		}),
		fx.Invoke(registerLifecycle),
	)
}

// Run starts the application for a long-running host and blocks until
// SIGINT, SIGTERM or an fx.Shutdowner request, then runs the stop sequence.
func Run(p Params, opts ...fx.Option) {
	fx.New(Module(p), fx.Options(opts...)).Run()
}

func provideConfig(p Params) (*config.Config, error) {
	cfg, err := config.Resolve(p.ConfigPath)
	if err != nil {
		return nil, err
	}
	if p.DBPath != "" {
		cfg.Database.Path = p.DBPath
	}
	if p.Driver != "" {
		cfg.Database.Driver = p.Driver
	}
	if p.LogLevel != "" {
		cfg.Log.Level = p.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.File, cfg.Log.Level, "litegate")
}

func provideStore(cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	driver, err := store.ParseDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	writeDefaults := []store.WriteOption{store.WithLockTimeout(cfg.LockTimeout())}
	if cfg.Write.IgnoreLockTimeout {
		writeDefaults = append(writeDefaults, store.IgnoreLockTimeout())
	}

	db, err := store.Open(context.Background(), cfg.Database.Path,
		store.WithDriver(driver),
		store.WithDatetimeFormat(cfg.Database.DatetimeFormat),
		store.WithBusyTimeout(cfg.BusyTimeout()),
		store.WithWAL(cfg.Database.WAL),
		store.WithWriteDefaults(writeDefaults...),
		store.WithLogger(logger.Named("store")),
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return db.HealthCheck(ctx)
		},
		OnStop: func(_ context.Context) error {
			defer func() { _ = logger.Sync() }()
			if !cfg.Database.CloseOnExit {
				logger.Info("close_on_exit disabled, database left open")
				return nil
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing database", zap.Error(err))
			}
			return nil
		},
	})
}
