package calendar

import "github.com/halocal/halocal/internal/models"

// BusyText replaces the description of events shown as busy.
const BusyText = "busy"

// Redact returns the description and link of ev as viewer may see them.
// An empty viewer is an anonymous visitor.
//
//	viewer == owner   → everything
//	any other viewer  → ShowToGroup decides
//	anonymous         → ShowToAll decides
//
// HIDE blanks both fields, BUSY shows "busy" and no link, SHOW shows both.
func Redact(ev models.Event, viewer string) (description, link string) {
	if viewer != "" && viewer == ev.Owner {
		return ev.Description, ev.Link
	}
	policy := ev.ShowToAll
	if viewer != "" {
		policy = ev.ShowToGroup
	}
	switch policy {
	case models.Show:
		return ev.Description, ev.Link
	case models.Busy:
		return BusyText, ""
	default:
		return "", ""
	}
}

// Candidate reports whether ev may appear in viewer's listing at all.
// Logged-in viewers see their own events and anything not hidden from
// either audience; anonymous visitors only what is not hidden from all.
// The store runs the same test in SQL; this copy guards the pipeline when
// it is fed rows from anywhere else.
func Candidate(ev models.Event, viewer string) bool {
	if viewer == "" {
		return ev.ShowToAll > models.Hide
	}
	return ev.Owner == viewer || ev.ShowToAll > models.Hide || ev.ShowToGroup > models.Hide
}
