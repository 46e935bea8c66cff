// Package calendar turns stored event definitions into the dated,
// per-viewer redacted occurrences that the listing pages show.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE: the three steps of a listing
// ────────────────────────────────────────────────────────────────────
//
//	Expand   event + window      → the dates the event falls on
//	Redact   event + viewer      → what the viewer may read about it
//	List     events + situation  → every visible occurrence, time sorted
//
// All civil dates and times here are plain wall-clock values carried in
// UTC time.Time values. The configured zone only matters when a value is
// rendered as an instant (see feed.go).
package calendar

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/halocal/halocal/internal/models"
)

// Expand returns the start date-times of ev whose date lies strictly after
// from and strictly before until. Both bounds are exclusive; List widens
// the requested window by a day on each side to make it inclusive.
//
// The result is ascending and has at most ev.RepeatWeeks+1 elements.
func Expand(ev models.Event, from, until time.Time) []time.Time {
	if ev.RepeatWeeks < 0 {
		return nil
	}
	from, until = models.DateOf(from), models.DateOf(until)

	lo := from.AddDate(0, 0, 1)
	hi := until.Add(-time.Nanosecond)
	if hi.Before(lo) {
		return nil
	}

	// Skip the whole weeks before the window. rrule also caps an open
	// rule at roughly 290 years past DTSTART, so the rule has to start
	// near the window and end at it.
	skip := 0
	if gap := dayNumber(lo) - dayNumber(ev.StartDate); gap > 0 {
		skip = int(gap / 7)
	}
	if skip > ev.RepeatWeeks {
		return nil
	}

	// COUNT=0 would mean "forever" to rrule, hence the guards above.
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.WEEKLY,
		Interval: 1,
		Count:    ev.RepeatWeeks + 1 - skip,
		Dtstart:  models.At(ev.StartDate.AddDate(0, 0, 7*skip), ev.StartTime),
		Until:    hi,
	})
	if err != nil {
		return nil
	}

	var out []time.Time
	for _, t := range rule.Between(lo, hi, true) {
		d := models.DateOf(t)
		if d.After(from) && d.Before(until) {
			out = append(out, t)
		}
	}
	return out
}

// dayNumber counts days since the Unix epoch for a civil date.
func dayNumber(d time.Time) int64 {
	return models.DateOf(d).Unix() / 86400
}

// DaysTo is the "days away" hint attached to each occurrence: the days part
// of the calendar period from now to d plus thirty times its months part.
// Whole years are dropped. It is a display hint, not a day count.
func DaysTo(now, d time.Time) int {
	_, months, days := period(models.DateOf(now), models.DateOf(d))
	return days + 30*months
}

// period splits the span from a to b into years, months and days the way
// ISO calendar periods do: whole months first, then the remaining days.
// All three parts share the sign of the span.
func period(a, b time.Time) (years, months, days int) {
	totalMonths := (b.Year()*12 + int(b.Month())) - (a.Year()*12 + int(a.Month()))
	days = b.Day() - a.Day()
	switch {
	case totalMonths > 0 && days < 0:
		totalMonths--
		anchor := addMonthsClamped(a, totalMonths)
		days = int(b.Sub(anchor).Hours() / 24)
	case totalMonths < 0 && days > 0:
		totalMonths++
		days -= daysIn(b.Year(), b.Month())
	}
	return totalMonths / 12, totalMonths % 12, days
}

// addMonthsClamped adds n months to t, clamping the day to the length of
// the target month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, n int) time.Time {
	first := models.Date(t.Year(), t.Month(), 1).AddDate(0, n, 0)
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return models.Date(first.Year(), first.Month(), day)
}

func daysIn(y int, m time.Month) int {
	return models.Date(y, m+1, 0).Day()
}
