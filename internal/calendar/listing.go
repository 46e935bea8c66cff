package calendar

import (
	"sort"
	"time"

	"github.com/halocal/halocal/internal/models"
)

// List expands every candidate event of events over the situation's window
// and returns the redacted occurrences sorted by start time. Occurrences
// starting at the same moment keep the order of events.
//
// now is today's date in the configured zone; it only feeds DaysTo.
func List(events []models.Event, sit models.Situation, now time.Time) []models.Occurrence {
	from := models.DateOf(sit.From).AddDate(0, 0, -1)
	until := models.DateOf(sit.Until).AddDate(0, 0, 1)

	out := []models.Occurrence{}
	for _, ev := range events {
		if !Candidate(ev, sit.Viewer) {
			continue
		}
		description, link := Redact(ev, sit.Viewer)
		for _, start := range Expand(ev, from, until) {
			out = append(out, models.Occurrence{
				EventID:     ev.ID,
				Owner:       ev.Owner,
				Start:       start,
				RepeatWeeks: ev.RepeatWeeks,
				Description: description,
				Link:        link,
				ShowToGroup: ev.ShowToGroup.Code(),
				ShowToAll:   ev.ShowToAll.Code(),
				DaysTo:      DaysTo(now, start),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
