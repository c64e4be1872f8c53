package store

import "github.com/ncruces/go-strftime"

// Curdate returns the current local time formatted with a strftime layout.
// An empty format uses the layout given to Open (DefaultDatetimeFormat
// unless overridden).
func (db *DB) Curdate(format string) string {
	if format == "" {
		format = db.datetimeFormat
	}
	return strftime.Format(format, db.now())
}
