package store

import (
	"time"

	"github.com/matheus3301/litegate/internal/lock"
	"go.uber.org/zap"
)

type options struct {
	driver         Driver
	datetimeFormat string
	busyTimeout    time.Duration
	wal            bool
	writeDefaults  []WriteOption
	now            func() time.Time
	logger         *zap.Logger
}

func defaultOptions() options {
	return options{
		driver:         DriverMattn,
		datetimeFormat: DefaultDatetimeFormat,
		busyTimeout:    5 * time.Second,
		wal:            true,
		now:            time.Now,
		logger:         zap.NewNop(),
	}
}

// Option configures Open.
type Option func(*options)

// WithDriver selects the SQLite binding.
func WithDriver(d Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithDatetimeFormat sets the default strftime layout for Curdate.
func WithDatetimeFormat(format string) Option {
	return func(o *options) {
		if format != "" {
			o.datetimeFormat = format
		}
	}
}

// WithBusyTimeout sets the engine-level busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) { o.busyTimeout = d }
}

// WithWAL toggles write-ahead logging for file databases.
func WithWAL(enabled bool) Option {
	return func(o *options) { o.wal = enabled }
}

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides time.Now for Curdate.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithWriteDefaults sets write options applied before the per-call ones.
func WithWriteDefaults(opts ...WriteOption) Option {
	return func(o *options) { o.writeDefaults = append(o.writeDefaults, opts...) }
}

type writeConfig struct {
	commit        bool
	policy        lock.Policy
	ignoreTimeout bool
}

// WriteOption adjusts a single Write call.
type WriteOption func(*writeConfig)

// WithoutCommit leaves the statement in the open transaction.
func WithoutCommit() WriteOption {
	return func(c *writeConfig) { c.commit = false }
}

// WithoutLockWait fails immediately if another write holds the lock.
func WithoutLockWait() WriteOption {
	return func(c *writeConfig) { c.policy.Wait = false }
}

// WithLockTimeout bounds the lock wait. Negative blocks until the context
// ends, zero does not wait at all.
func WithLockTimeout(d time.Duration) WriteOption {
	return func(c *writeConfig) { c.policy.Timeout = d }
}

// IgnoreLockTimeout turns a lock timeout into a silent skip: Write returns
// a zero WriteResult and a nil error without running the statement.
func IgnoreLockTimeout() WriteOption {
	return func(c *writeConfig) { c.ignoreTimeout = true }
}
