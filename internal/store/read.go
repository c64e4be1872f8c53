package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadAll runs query and returns every row. No locking.
func (db *DB) ReadAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	return db.read(ctx, 0, query, args)
}

// ReadOne returns the first row, or nil if the query matched nothing.
func (db *DB) ReadOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := db.read(ctx, 1, query, args)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// ReadValue returns the first column of the first row.
// An empty result yields sql.ErrNoRows.
func (db *DB) ReadValue(ctx context.Context, query string, args ...any) (any, error) {
	row, err := db.ReadOne(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, sql.ErrNoRows
	}
	return row[0], nil
}

// Read dispatches on mode: []Row for FetchAll, Row for FetchOne and a
// single value for FetchValue.
func (db *DB) Read(ctx context.Context, mode ReadMode, query string, args ...any) (any, error) {
	switch mode {
	case FetchAll:
		return db.ReadAll(ctx, query, args...)
	case FetchOne:
		return db.ReadOne(ctx, query, args...)
	case FetchValue:
		return db.ReadValue(ctx, query, args...)
	}
	return nil, fmt.Errorf("unknown read mode %d", mode)
}

// read scans up to limit rows; limit <= 0 means all of them.
func (db *DB) read(ctx context.Context, limit int, query string, args []any) ([]Row, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0)
	for rows.Next() {
		vals := make(Row, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, vals)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, rows.Err()
}
