package util

import (
	"strconv"
	"time"
)

// dateLayouts are tried in order before falling back to unix seconds.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"02/01/2006",
	"2006",
}

// ParseTime tries RFC3339, calendar dates (2006-01-02, 2006-01, 02/01/2006,
// 2006) and unix seconds. Returns (t, true) if any worked. Calendar dates are
// parsed in UTC.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// StartOfMonth truncates t to midnight of the first day of its month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
