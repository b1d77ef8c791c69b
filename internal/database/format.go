package database

import (
	"strings"
	"time"
)

// TimestampLayout is the layout of SQLite datetime('now') values.
const TimestampLayout = "2006-01-02 15:04:05"

// GetToday returns today's date as YYYY-MM-DD.
func GetToday() string {
	return time.Now().Format(DateLayout)
}

// FormatTimestamp formats a stored UTC timestamp for display.
// "2026-02-06 14:03:09" becomes "Feb 06, 2026 14:03".
func FormatTimestamp(ts string) string {
	t, err := time.Parse(TimestampLayout, ts)
	if err != nil {
		return ts
	}
	return t.Format("Jan 02, 2006 15:04")
}

// FormatDate formats a stored YYYY-MM-DD date for display.
func FormatDate(date string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Jan 02, 2006")
}

// ShortRunID returns the first block of a run id.
func ShortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
