package store

// Row holds one result row with the engine's native values
// (int64, float64, string, []byte, time.Time or nil).
type Row []any

// ReadMode picks what Read returns.
type ReadMode int

const (
	// FetchAll returns []Row.
	FetchAll ReadMode = iota
	// FetchOne returns the first Row, or nil.
	FetchOne
	// FetchValue returns the first column of the first row.
	FetchValue
)

func (m ReadMode) String() string {
	switch m {
	case FetchAll:
		return "all"
	case FetchOne:
		return "one"
	case FetchValue:
		return "value"
	}
	return "unknown"
}

// WriteResult describes the outcome of a Write.
type WriteResult struct {
	// Executed is false when the write was skipped by IgnoreLockTimeout.
	Executed     bool  `json:"executed"`
	RowsAffected int64 `json:"rows_affected"`
	LastInsertID int64 `json:"last_insert_id"`
}
