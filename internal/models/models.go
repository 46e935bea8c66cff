// Package models holds the types shared by the store, the calendar engine
// and the HTTP handlers.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Visibility is how much of an event a given audience may see.
// The values are ordered by increasing disclosure and are stored as the
// integers 0, 1 and 2.
type Visibility int

const (
	Hide Visibility = iota
	Busy
	Show
)

// ErrVisibilityOutOfRange is returned when a stored visibility code is not
// 0, 1 or 2. It means the row is corrupt; callers must not guess a default.
var ErrVisibilityOutOfRange = errors.New("visibility out of range")

// ParseVisibility maps a stored integer to a Visibility.
func ParseVisibility(code int) (Visibility, error) {
	switch code {
	case 0:
		return Hide, nil
	case 1:
		return Busy, nil
	case 2:
		return Show, nil
	}
	return Hide, fmt.Errorf("%w: %d", ErrVisibilityOutOfRange, code)
}

// Code returns the stored integer form of v.
func (v Visibility) Code() int { return int(v) }

func (v Visibility) String() string {
	switch v {
	case Hide:
		return "HIDE"
	case Busy:
		return "BUSY"
	case Show:
		return "SHOW"
	}
	return fmt.Sprintf("Visibility(%d)", int(v))
}

// Event is a recurring calendar entry as stored.
//
// StartDate carries only the calendar date (midnight UTC) and StartTime only
// the time of day (on 0000-01-01 UTC); both are the owner's local civil
// values and are combined with the configured zone only when rendering.
type Event struct {
	ID          int64
	Owner       string
	StartDate   time.Time
	StartTime   time.Time
	RepeatWeeks int
	Description string
	Link        string
	ShowToGroup Visibility
	ShowToAll   Visibility
}

// Occurrence is one concrete instance of an Event inside a query window,
// already redacted for the viewer that asked for it. Occurrences are never
// stored.
type Occurrence struct {
	EventID     int64
	Owner       string
	Start       time.Time // local civil date-time, location UTC
	RepeatWeeks int
	Description string
	Link        string
	ShowToGroup int
	ShowToAll   int
	DaysTo      int
}

// Situation is the request-scoped context of a listing: who is looking and
// which dates they asked for. An empty Viewer means an anonymous visitor.
type Situation struct {
	Viewer string
	From   time.Time
	Until  time.Time
}

// Anonymous reports whether the situation has no logged-in viewer.
func (s Situation) Anonymous() bool { return s.Viewer == "" }

// Date returns the civil date y-m-d as a UTC midnight time.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClockTime returns a time-of-day value.
func ClockTime(h, m, s int) time.Time {
	return time.Date(0, time.January, 1, h, m, s, 0, time.UTC)
}

// DateOf truncates t to its civil date, keeping t's wall clock fields.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// At combines a civil date and a time of day.
func At(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC)
}
