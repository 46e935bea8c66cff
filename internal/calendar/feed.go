package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/halocal/halocal/internal/models"
)

// UTCLayout is the timestamp format of the JSON feed.
const UTCLayout = "2006-01-02T15:04:05Z"

// FeedItem is one element of the JSON listing.
type FeedItem struct {
	ID            int64  `json:"id"`
	Owner         string `json:"owner"`
	StartDateTime string `json:"startDateTime"`
	RepeatWeeks   int    `json:"repeatWeeks"`
	Description   string `json:"description"`
	Link          string `json:"link"`
	ShowToGroup   int    `json:"showToGroup"`
	ShowToAll     int    `json:"showToAll"`
	DaysTo        int    `json:"daysTo"`
}

// Instant interprets a civil date-time as wall clock time in loc.
func Instant(civil time.Time, loc *time.Location) time.Time {
	return time.Date(civil.Year(), civil.Month(), civil.Day(),
		civil.Hour(), civil.Minute(), civil.Second(), 0, loc)
}

// FormatUTC renders a civil date-time of zone loc as a UTC timestamp.
func FormatUTC(civil time.Time, loc *time.Location) string {
	return Instant(civil, loc).UTC().Format(UTCLayout)
}

// Feed converts occurrences to their JSON form. The result is never nil so
// an empty listing encodes as [].
func Feed(occs []models.Occurrence, loc *time.Location) []FeedItem {
	out := make([]FeedItem, 0, len(occs))
	for _, o := range occs {
		out = append(out, FeedItem{
			ID:            o.EventID,
			Owner:         o.Owner,
			StartDateTime: FormatUTC(o.Start, loc),
			RepeatWeeks:   o.RepeatWeeks,
			Description:   o.Description,
			Link:          o.Link,
			ShowToGroup:   o.ShowToGroup,
			ShowToAll:     o.ShowToAll,
			DaysTo:        o.DaysTo,
		})
	}
	return out
}

// privateSummary titles occurrences whose description is hidden.
const privateSummary = "(private)"

// WriteICS writes occurrences as an iCalendar document. Each occurrence is
// its own VEVENT; recurrence is already expanded and redacted, so no RRULE
// is emitted and nothing hidden can leak through one.
func WriteICS(w io.Writer, occs []models.Occurrence, loc *time.Location, host string, stamp time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//halocal//calendar//EN")

	for _, o := range occs {
		start := Instant(o.Start, loc)
		uid := fmt.Sprintf("%d-%s@%s", o.EventID, start.UTC().Format("20060102T150405Z"), host)

		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetOrganizer(o.Owner)
		summary := o.Description
		if summary == "" {
			summary = privateSummary
		}
		ev.SetSummary(summary)
		if o.Link != "" {
			ev.SetURL(o.Link)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
