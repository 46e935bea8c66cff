package calendar

import (
	"testing"
	"time"

	"github.com/halocal/halocal/internal/models"
)

func TestList_AliceBobScenario(t *testing.T) {
	ev := models.Event{
		ID:          7,
		Owner:       "alice",
		StartDate:   models.Date(2024, time.January, 1),
		StartTime:   models.ClockTime(9, 0, 0),
		RepeatWeeks: 1,
		Description: "standup",
		Link:        "https://meet.example.org/standup",
		ShowToGroup: models.Busy,
		ShowToAll:   models.Hide,
	}
	now := models.Date(2024, time.January, 1)
	window := models.Situation{From: models.Date(2024, time.January, 1), Until: models.Date(2024, time.January, 10)}

	bob := window
	bob.Viewer = "bob"
	got := List([]models.Event{ev}, bob, now)
	if len(got) != 2 {
		t.Fatalf("bob: expected 2 occurrences, got %d", len(got))
	}
	wantStarts := []time.Time{
		time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC),
	}
	for i, o := range got {
		if !o.Start.Equal(wantStarts[i]) {
			t.Errorf("[%d] start %v, want %v", i, o.Start, wantStarts[i])
		}
		if o.Description != "busy" || o.Link != "" {
			t.Errorf("[%d] got (%q, %q), want (busy, \"\")", i, o.Description, o.Link)
		}
		if o.EventID != 7 || o.Owner != "alice" || o.RepeatWeeks != 1 {
			t.Errorf("[%d] identity fields wrong: %+v", i, o)
		}
		if o.ShowToGroup != 1 || o.ShowToAll != 0 {
			t.Errorf("[%d] codes: group=%d all=%d", i, o.ShowToGroup, o.ShowToAll)
		}
	}
	if got[0].DaysTo != 0 || got[1].DaysTo != 7 {
		t.Errorf("daysTo: got %d and %d, want 0 and 7", got[0].DaysTo, got[1].DaysTo)
	}

	// Anonymous: hidden from everyone and not the owner, so excluded.
	if anon := List([]models.Event{ev}, window, now); len(anon) != 0 {
		t.Fatalf("anonymous: expected no occurrences, got %d", len(anon))
	}

	// Owner: sees both, unredacted.
	alice := window
	alice.Viewer = "alice"
	for _, o := range List([]models.Event{ev}, alice, now) {
		if o.Description != "standup" || o.Link != ev.Link {
			t.Errorf("owner got redacted occurrence %+v", o)
		}
	}
}

func TestList_WindowIsInclusive(t *testing.T) {
	ev := models.Event{
		ID: 1, Owner: "alice",
		StartDate: models.Date(2024, time.May, 1), StartTime: models.ClockTime(0, 0, 0),
		RepeatWeeks: 2, ShowToAll: models.Show,
	}
	// Window exactly May 1 .. May 15 includes all three instances.
	sit := models.Situation{From: models.Date(2024, time.May, 1), Until: models.Date(2024, time.May, 15)}
	if got := List([]models.Event{ev}, sit, sit.From); len(got) != 3 {
		t.Fatalf("expected 3 occurrences on an inclusive window, got %d", len(got))
	}
}

func TestList_InterleavesEvents(t *testing.T) {
	base := models.Date(2024, time.March, 1)
	a := models.Event{
		ID: 1, Owner: "alice", StartDate: base, StartTime: models.ClockTime(10, 0, 0),
		RepeatWeeks: 1, Description: "A", ShowToAll: models.Show,
	}
	b := models.Event{
		ID: 2, Owner: "bob", StartDate: base.AddDate(0, 0, 4), StartTime: models.ClockTime(10, 0, 0),
		Description: "B", ShowToAll: models.Show,
	}
	c := models.Event{
		ID: 3, Owner: "carol", StartDate: base, StartTime: models.ClockTime(8, 0, 0),
		Description: "C", ShowToAll: models.Show,
	}
	sit := models.Situation{From: base, Until: base.AddDate(0, 0, 14)}

	got := List([]models.Event{a, b, c}, sit, base)
	var order []string
	for _, o := range got {
		order = append(order, o.Description)
	}
	want := []string{"C", "A", "B", "A"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestList_EqualStartsKeepInputOrder(t *testing.T) {
	day := models.Date(2024, time.April, 2)
	mk := func(id int64) models.Event {
		return models.Event{ID: id, Owner: "x", StartDate: day, StartTime: models.ClockTime(12, 0, 0), ShowToAll: models.Show}
	}
	sit := models.Situation{From: day, Until: day}
	got := List([]models.Event{mk(3), mk(1), mk(2)}, sit, day)
	if len(got) != 3 || got[0].EventID != 3 || got[1].EventID != 1 || got[2].EventID != 2 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestList_AppliesPreFilter(t *testing.T) {
	day := models.Date(2024, time.April, 2)
	hidden := models.Event{ID: 1, Owner: "alice", StartDate: day, ShowToGroup: models.Hide, ShowToAll: models.Hide}
	sit := models.Situation{Viewer: "bob", From: day, Until: day}
	if got := List([]models.Event{hidden}, sit, day); len(got) != 0 {
		t.Fatalf("event hidden from everyone reached bob: %+v", got)
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	got := List(nil, models.Situation{}, time.Now())
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
