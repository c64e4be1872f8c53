package store

import (
	"context"
	"database/sql"
	"strings"
	"unicode"
)

// autoCommitter is implemented by the mattn driver connection.
type autoCommitter interface {
	AutoCommit() bool
}

// Commit commits the open transaction, if any. It does not take the write lock.
func (db *DB) Commit(ctx context.Context) error {
	if db.Closed() {
		return sql.ErrConnDone
	}
	return db.endTx(ctx, "COMMIT")
}

// Rollback discards the open transaction, if any. It does not take the write lock.
func (db *DB) Rollback(ctx context.Context) error {
	if db.Closed() {
		return sql.ErrConnDone
	}
	return db.endTx(ctx, "ROLLBACK")
}

// InTransaction reports whether uncommitted writes are pending.
func (db *DB) InTransaction() bool {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	if !db.txOpen {
		return false
	}
	in, known := db.engineState()
	return in || !known
}

// exec runs a statement on the pinned connection. Data-modifying statements
// open a transaction first when none is active, so they stay pending until
// Commit.
func (db *DB) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	kw := leadingKeyword(query)

	switch kw {
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		db.txMu.Lock()
		err := db.beginIfNeeded(ctx)
		db.txMu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		// A failed statement may have ended the transaction (ON CONFLICT
		// ROLLBACK). Drivers that cannot report it are re-checked on the
		// next write.
		db.txMu.Lock()
		if db.txOpen {
			db.txUnsure = true
		}
		db.txMu.Unlock()
		return nil, err
	}

	// Keep track of transactions the caller drives by hand.
	switch kw {
	case "BEGIN":
		db.setTxOpen(true)
	case "COMMIT", "END":
		db.setTxOpen(false)
	case "ROLLBACK":
		if !isSavepointRollback(query) {
			db.setTxOpen(false)
		}
	}
	return res, nil
}

// beginIfNeeded issues BEGIN unless a transaction is known to be open.
// Callers must hold txMu.
func (db *DB) beginIfNeeded(ctx context.Context) error {
	if db.txOpen {
		in, known := db.engineState()
		if known && in {
			return nil
		}
		if !known && !db.txUnsure {
			return nil
		}
	}

	_, err := db.conn.ExecContext(ctx, "BEGIN")
	if err != nil && !(db.txOpen && isNestedBegin(err)) {
		return err
	}
	db.txOpen = true
	db.txUnsure = false
	return nil
}

func (db *DB) setTxOpen(open bool) {
	db.txMu.Lock()
	db.txOpen = open
	db.txUnsure = false
	db.txMu.Unlock()
}

// endTx sends COMMIT or ROLLBACK when a transaction is open. It is a no-op
// when the engine has already ended the transaction on its own.
// Callers must not hold txMu.
func (db *DB) endTx(ctx context.Context, stmt string) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if !db.txOpen {
		return nil
	}
	if in, known := db.engineState(); known && !in {
		db.txOpen = false
		db.txUnsure = false
		return nil
	}
	if _, err := db.conn.ExecContext(ctx, stmt); err != nil && !isNoActiveTx(err) {
		return err
	}
	db.txOpen = false
	db.txUnsure = false
	return nil
}

// engineState asks the driver whether a transaction is active. known is
// false for drivers that cannot tell (modernc).
func (db *DB) engineState() (in, known bool) {
	_ = db.conn.Raw(func(dc any) error {
		if ac, ok := dc.(autoCommitter); ok {
			in, known = !ac.AutoCommit(), true
		}
		return nil
	})
	return in, known
}

// SQLite reports both as a generic SQLITE_ERROR, so the message is all
// there is to go on.
func isNoActiveTx(err error) bool {
	return strings.Contains(err.Error(), "no transaction is active")
}

func isNestedBegin(err error) bool {
	return strings.Contains(err.Error(), "within a transaction")
}

// isSavepointRollback reports whether query is ROLLBACK [TRANSACTION] TO ...,
// which leaves the enclosing transaction open.
func isSavepointRollback(query string) bool {
	fields := strings.Fields(strings.ToUpper(stripComments(query)))
	if len(fields) < 2 || fields[0] != "ROLLBACK" {
		return false
	}
	next := fields[1]
	if next == "TRANSACTION" && len(fields) > 2 {
		next = fields[2]
	}
	return next == "TO"
}

// leadingKeyword returns the first SQL keyword of query in upper case,
// skipping whitespace and comments.
func leadingKeyword(query string) string {
	s := strings.TrimLeftFunc(stripComments(query), unicode.IsSpace)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

// stripComments replaces -- and /* */ comments with a space. String
// literals are not parsed; the result is only used for keyword checks.
func stripComments(query string) string {
	var b strings.Builder
	s := query
	for len(s) > 0 {
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return b.String()
			}
			b.WriteByte(' ')
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s[2:], "*/")
			if i < 0 {
				return b.String()
			}
			b.WriteByte(' ')
			s = s[i+4:]
		default:
			b.WriteByte(s[0])
			s = s[1:]
		}
	}
	return b.String()
}
