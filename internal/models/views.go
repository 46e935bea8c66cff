package models

// ---- View models consumed by the HTML templates ----

// MainView is the data behind the calendar page.
type MainView struct {
	Prefix      string
	CSRF        string
	User        string // empty when not logged in
	DayFrom     string // yyyy-MM-dd
	DayUntil    string // yyyy-MM-dd
	Top         string
	Links       map[string]string
	Occurrences []OccurrenceView
}

// OccurrenceView is an Occurrence decorated for display.
type OccurrenceView struct {
	Occurrence
	When     string // human readable local date and time
	UTCStamp string // yyyy-MM-ddTHH:mm:ssZ, used by the delete link
	Mine     bool
}

// MessageView renders a one-line message with a link back to the calendar.
type MessageView struct {
	Prefix  string
	Message string
}

// NewEventView is the event form for a new event. Event carries the
// initial values, normally today's date and nothing else.
type NewEventView struct {
	Prefix string
	CSRF   string
	Event  EventForm
}

// EditEventView is the event form prefilled with a stored event.
type EditEventView struct {
	Prefix string
	CSRF   string
	Event  EventForm
}

// DelEventView asks the owner to confirm a deletion.
type DelEventView struct {
	Prefix      string
	CSRF        string
	ID          int64
	Description string
	DateTime    string
}

// ChangePasswordView is the password change form.
type ChangePasswordView struct {
	Prefix string
	CSRF   string
}

// EventForm is the editable form representation of an Event.
type EventForm struct {
	ID          int64
	Owner       string
	StartDate   string // yyyy-MM-dd
	StartTime   string // HH:mm
	RepeatWeeks int
	Description string
	Link        string
	ShowToGroup int
	ShowToAll   int
}

// FormOf converts an Event to its form representation.
func FormOf(ev Event) EventForm {
	return EventForm{
		ID:          ev.ID,
		Owner:       ev.Owner,
		StartDate:   ev.StartDate.Format("2006-01-02"),
		StartTime:   ev.StartTime.Format("15:04"),
		RepeatWeeks: ev.RepeatWeeks,
		Description: ev.Description,
		Link:        ev.Link,
		ShowToGroup: ev.ShowToGroup.Code(),
		ShowToAll:   ev.ShowToAll.Code(),
	}
}
