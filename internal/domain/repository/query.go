package repository

import (
	"strings"
	"time"
)

const (
	DefaultQueryLimit = 500
	MaxQueryLimit     = 5000
)

// ObservationQuery selects a date range of one indicator. Zero From/To leave
// the range open on that side.
type ObservationQuery struct {
	Indicator string
	From      time.Time
	To        time.Time
	Limit     int
}

// Normalize trims the indicator, clamps the limit and swaps an inverted range.
func (q ObservationQuery) Normalize() ObservationQuery {
	q.Indicator = strings.TrimSpace(q.Indicator)
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		q.From, q.To = q.To, q.From
	}
	return q
}

// Contains reports whether t falls inside the query range (inclusive).
func (q ObservationQuery) Contains(t time.Time) bool {
	if !q.From.IsZero() && t.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && t.After(q.To) {
		return false
	}
	return true
}
