package store

import (
	"context"
	"errors"

	"github.com/matheus3301/litegate/internal/lock"
	"go.uber.org/zap"
)

// Write runs a statement under the write lock and, unless WithoutCommit is
// given, commits it. By default it waits for the lock indefinitely.
//
// If the lock cannot be taken under the chosen policy, Write returns an
// error matching ErrLockTimeout, or skips the statement silently when
// IgnoreLockTimeout is set. Engine errors are returned unchanged. The lock
// is released on every path.
func (db *DB) Write(ctx context.Context, query string, args []any, opts ...WriteOption) (WriteResult, error) {
	cfg := writeConfig{commit: true, policy: lock.Forever}
	for _, opt := range db.writeDefaults {
		opt(&cfg)
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := db.gate.Acquire(ctx, cfg.policy); err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			if cfg.ignoreTimeout {
				db.logger.Debug("write skipped, lock busy", zap.Error(err))
				return WriteResult{}, nil
			}
			db.logger.Warn("write lock timeout", zap.Error(err))
		}
		return WriteResult{}, err
	}
	defer db.gate.Release()

	// Once the lock is held the statement and its commit run to completion.
	ctx = context.WithoutCancel(ctx)

	res, err := db.exec(ctx, query, args)
	if err != nil {
		return WriteResult{}, err
	}

	out := WriteResult{Executed: true}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}

	if cfg.commit {
		if err := db.endTx(ctx, "COMMIT"); err != nil {
			return out, err
		}
	}
	return out, nil
}
