package audit

import (
	"math"
	"strings"
	"time"
)

// Event kinds written by the auth use cases. The set is open.
const (
	EventRegistration = "registration"
	EventLogin        = "login"
)

// recordOverhead approximates the per-record cost of an event beyond its
// string fields (id, timestamp, size column, row header).
const recordOverhead = 48

// Entry is what callers hand to the store; the store assigns ID and Timestamp.
type Entry struct {
	Email  string
	UserID string
	Event  string
}

// Size is the number of bytes the resulting event will count against the
// store budget.
func (e Entry) Size() int64 {
	return recordOverhead + int64(len(e.Email)+len(e.UserID)+len(e.Event))
}

// Event is an immutable audit record.
type Event struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	UserID    string    `json:"userId"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func (e Event) Size() int64 {
	return Entry{Email: e.Email, UserID: e.UserID, Event: e.Event}.Size()
}

// Filter selects events for Query. Page and Limit are 1-based and positive.
type Filter struct {
	Page  int
	Limit int
	// Email is matched as a case-insensitive substring.
	Email string
	// From and To are inclusive bounds; nil means unbounded.
	From *time.Time
	To   *time.Time
}

// Offset is the number of matching events to skip. It saturates at
// math.MaxInt instead of overflowing for very large pages.
func (f Filter) Offset() int {
	if f.Limit > 0 && f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// Matches reports whether e passes the email and time filters.
func (f Filter) Matches(e Event) bool {
	if f.Email != "" && !strings.Contains(strings.ToLower(e.Email), strings.ToLower(f.Email)) {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// Page is one page of events, newest first. Total counts every match.
type Page struct {
	Events []Event
	Total  int
	// Page and Limit echo the request after defaults are applied.
	Page  int
	Limit int
}
