package handlers

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/halocal/halocal/internal/models"
)

// formError is a client mistake in a submitted form or query. It is shown
// to the user verbatim with status 400.
type formError struct{ msg string }

func (e *formError) Error() string { return e.msg }

func badForm(format string, args ...any) error {
	return &formError{msg: fmt.Sprintf(format, args...)}
}

// maxRepeatWeeks is the largest value the repeat_weeks column holds on
// every supported database (PostgreSQL INTEGER is 32-bit).
const maxRepeatWeeks = math.MaxInt32

// Field sets accepted by the mutating forms. Anything else is rejected.
var (
	eventFields    = []string{"csrf", "description", "link", "startDate", "startTime", "repeatWeeks", "showToGroup", "showToAll"}
	editFields     = append(append([]string{}, eventFields...), "id")
	deleteFields   = []string{"csrf", "id"}
	passwordFields = []string{"csrf", "password"}
)

// strictForm reads a url.Values where every key must be known and appear
// at most once. The first problem found is kept in err and later reads
// become no-ops, so a handler can read all fields and check err once.
type strictForm struct {
	values url.Values
	err    error
}

func newStrictForm(values url.Values, allowed []string) *strictForm {
	f := &strictForm{values: values}
	known := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		known[k] = true
	}
	for k, vs := range values {
		switch {
		case !known[k]:
			f.err = badForm("unexpected field %q", k)
		case len(vs) > 1:
			f.err = badForm("field %q given %d times", k, len(vs))
		}
		if f.err != nil {
			break
		}
	}
	return f
}

// raw returns the single value of name and whether it was present.
func (f *strictForm) raw(name string) (string, bool) {
	vs, ok := f.values[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func (f *strictForm) fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *strictForm) required(name string) (string, bool) {
	if f.err != nil {
		return "", false
	}
	v, ok := f.raw(name)
	if !ok {
		f.fail(badForm("missing field %q", name))
		return "", false
	}
	return v, true
}

func (f *strictForm) text(name string) string {
	v, _ := f.required(name)
	return v
}

func (f *strictForm) integer(name string) int64 {
	v, ok := f.required(name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		f.fail(badForm("field %q is not an integer", name))
	}
	return n
}

// optionalInt returns def when name is absent or empty.
func (f *strictForm) optionalInt(name string, def int) int {
	if f.err != nil {
		return def
	}
	v, ok := f.raw(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		f.fail(badForm("field %q is not an integer", name))
	}
	return n
}

func (f *strictForm) date(name string) time.Time {
	v, ok := f.required(name)
	if !ok {
		return time.Time{}
	}
	d, err := parseDate(v)
	if err != nil {
		f.fail(badForm("field %q is not a date (yyyy-mm-dd)", name))
	}
	return d
}

func (f *strictForm) clock(name string) time.Time {
	v, ok := f.required(name)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
			return models.ClockTime(t.Hour(), t.Minute(), t.Second())
		}
	}
	f.fail(badForm("field %q is not a time (hh:mm)", name))
	return time.Time{}
}

func (f *strictForm) visibility(name string) models.Visibility {
	n := f.integer(name)
	if f.err != nil {
		return models.Hide
	}
	v, err := models.ParseVisibility(int(n))
	if err != nil {
		f.fail(badForm("field %q must be 0, 1 or 2", name))
	}
	return v
}

// parseDate parses an ISO calendar date.
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// eventForm decodes the fields shared by the new and edit forms. The
// owner is never taken from the form.
func eventForm(f *strictForm) (models.Event, error) {
	ev := models.Event{
		Description: f.text("description"),
		Link:        f.text("link"),
		StartDate:   f.date("startDate"),
		StartTime:   f.clock("startTime"),
		RepeatWeeks: f.optionalInt("repeatWeeks", 0),
		ShowToGroup: f.visibility("showToGroup"),
		ShowToAll:   f.visibility("showToAll"),
	}
	switch {
	case f.err != nil:
	case ev.RepeatWeeks < 0:
		f.fail(badForm("field %q must not be negative", "repeatWeeks"))
	case ev.RepeatWeeks > maxRepeatWeeks:
		f.fail(badForm("field %q must be at most %d", "repeatWeeks", maxRepeatWeeks))
	}
	return ev, f.err
}
