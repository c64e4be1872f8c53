package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/litegate/internal/lock"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database instead of a file.
const MemoryPath = ":memory:"

// DefaultDatetimeFormat is the strftime layout used by Curdate.
const DefaultDatetimeFormat = "%y-%m-%d %H:%M:%S"

// ErrLockTimeout matches the error Write returns when the write lock is busy.
var ErrLockTimeout = lock.ErrTimeout

// Driver selects the SQLite engine binding.
type Driver string

const (
	// DriverMattn is github.com/mattn/go-sqlite3 (cgo).
	DriverMattn Driver = "mattn"
	// DriverModernc is modernc.org/sqlite (pure Go).
	DriverModernc Driver = "modernc"
)

// ParseDriver converts a config value into a Driver. Empty means DriverMattn.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case "", DriverMattn:
		return DriverMattn, nil
	case DriverModernc:
		return DriverModernc, nil
	}
	return "", fmt.Errorf("unknown sqlite driver %q (want %q or %q)", s, DriverMattn, DriverModernc)
}

// dsn returns the database/sql driver name and connection string.
func (d Driver) dsn(path string, busyTimeout time.Duration, wal bool) (string, string) {
	ms := busyTimeout.Milliseconds()
	memory := path == MemoryPath
	switch d {
	case DriverModernc:
		dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", path, ms)
		if wal && !memory {
			dsn += "&_pragma=journal_mode(WAL)"
		}
		return "sqlite", dsn
	default:
		dsn := fmt.Sprintf("%s?_busy_timeout=%d&_foreign_keys=on", path, ms)
		if wal && !memory {
			dsn += "&_journal_mode=WAL"
		}
		return "sqlite3", dsn
	}
}

// DB wraps a single SQLite connection. Writes go through one exclusive
// lock; reads, Commit, Rollback and Close never wait on it.
//
// All methods are safe for concurrent use.
type DB struct {
	id             string
	path           string
	driver         Driver
	datetimeFormat string
	writeDefaults  []WriteOption
	now            func() time.Time
	logger         *zap.Logger

	pool *sql.DB
	conn *sql.Conn
	gate *lock.Gate

	txMu     sync.Mutex
	txOpen   bool
	txUnsure bool

	closeMu sync.Mutex
	closed  bool
}

// Open connects to the database at path (or MemoryPath) and pins a single
// connection for the lifetime of the DB.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if path == "" {
		return nil, errors.New("open db: empty path")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	driverName, dsn := o.driver.dsn(path, o.busyTimeout, o.wal)
	pool, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection only: an in-memory database lives and dies with it.
	pool.SetMaxOpenConns(1)
	pool.SetMaxIdleConns(1)
	pool.SetConnMaxLifetime(0)
	pool.SetConnMaxIdleTime(0)

	conn, err := pool.Conn(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{
		id:             uuid.NewString(),
		path:           path,
		driver:         o.driver,
		datetimeFormat: o.datetimeFormat,
		writeDefaults:  o.writeDefaults,
		now:            o.now,
		pool:           pool,
		conn:           conn,
		gate:           lock.NewGate(),
	}
	db.logger = o.logger.With(zap.String("db_id", db.id))
	db.logger.Debug("database opened",
		zap.String("path", path),
		zap.String("driver", string(o.driver)),
	)
	return db, nil
}

// ID returns a random identifier assigned at Open, used in log fields.
func (db *DB) ID() string { return db.id }

// Path returns the path given to Open.
func (db *DB) Path() string { return db.path }

// Driver returns the engine binding in use.
func (db *DB) Driver() Driver { return db.driver }

// Closed reports whether Close has been called.
func (db *DB) Closed() bool {
	db.closeMu.Lock()
	defer db.closeMu.Unlock()
	return db.closed
}

// HealthCheck runs a trivial query on the connection.
func (db *DB) HealthCheck(ctx context.Context) error {
	if db.Closed() {
		return sql.ErrConnDone
	}
	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&n); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close rolls back any uncommitted work and closes the connection.
// Calling Close more than once returns nil.
func (db *DB) Close() error {
	return db.close(context.Background(), false)
}

// CloseCommit commits pending work, then closes the connection.
// Like Close, it is a no-op on an already closed DB.
func (db *DB) CloseCommit(ctx context.Context) error {
	return db.close(ctx, true)
}

func (db *DB) close(ctx context.Context, commit bool) error {
	db.closeMu.Lock()
	defer db.closeMu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true

	var errs []error
	if commit {
		if err := db.endTx(ctx, "COMMIT"); err != nil {
			errs = append(errs, fmt.Errorf("commit on close: %w", err))
		}
	}
	if err := db.endTx(ctx, "ROLLBACK"); err != nil {
		db.logger.Warn("rollback on close failed", zap.Error(err))
	}

	if err := db.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		errs = append(errs, fmt.Errorf("close conn: %w", err))
	}
	if err := db.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close db: %w", err))
	}

	db.logger.Debug("database closed", zap.Bool("commit", commit))
	return errors.Join(errs...)
}
