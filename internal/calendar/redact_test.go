package calendar

import (
	"testing"

	"github.com/halocal/halocal/internal/models"
)

var allVisibilities = []models.Visibility{models.Hide, models.Busy, models.Show}

func redactEvent(group, all models.Visibility) models.Event {
	return models.Event{
		Owner:       "alice",
		Description: "dentist",
		Link:        "https://example.org/dentist",
		ShowToGroup: group,
		ShowToAll:   all,
	}
}

func TestRedact_OwnerSeesEverything(t *testing.T) {
	for _, g := range allVisibilities {
		for _, a := range allVisibilities {
			ev := redactEvent(g, a)
			d, l := Redact(ev, "alice")
			if d != ev.Description || l != ev.Link {
				t.Errorf("group=%v all=%v: owner got (%q, %q)", g, a, d, l)
			}
		}
	}
}

func TestRedact_Table(t *testing.T) {
	want := map[models.Visibility][2]string{
		models.Hide: {"", ""},
		models.Busy: {"busy", ""},
		models.Show: {"dentist", "https://example.org/dentist"},
	}

	// Group path: any logged-in viewer other than the owner. The public
	// flag must not matter.
	for _, g := range allVisibilities {
		for _, a := range allVisibilities {
			d, l := Redact(redactEvent(g, a), "bob")
			if [2]string{d, l} != want[g] {
				t.Errorf("group path, group=%v all=%v: got (%q, %q), want %q", g, a, d, l, want[g])
			}
		}
	}

	// Public path: anonymous viewer. The group flag must not matter.
	for _, g := range allVisibilities {
		for _, a := range allVisibilities {
			d, l := Redact(redactEvent(g, a), "")
			if [2]string{d, l} != want[a] {
				t.Errorf("public path, group=%v all=%v: got (%q, %q), want %q", g, a, d, l, want[a])
			}
		}
	}
}

func TestRedact_EmptyOwnerIsNotAnonymous(t *testing.T) {
	// A row with an empty owner must not be treated as owned by the
	// anonymous visitor.
	ev := redactEvent(models.Show, models.Hide)
	ev.Owner = ""
	if d, l := Redact(ev, ""); d != "" || l != "" {
		t.Fatalf("got (%q, %q), want blanks", d, l)
	}
}

func TestCandidate(t *testing.T) {
	tests := []struct {
		group, all models.Visibility
		viewer     string
		want       bool
	}{
		{models.Hide, models.Hide, "alice", true}, // owner
		{models.Hide, models.Hide, "bob", false},
		{models.Hide, models.Hide, "", false},
		{models.Busy, models.Hide, "bob", true},
		{models.Busy, models.Hide, "", false},
		{models.Hide, models.Busy, "bob", true},
		{models.Hide, models.Busy, "", true},
		{models.Show, models.Show, "", true},
	}
	for _, tt := range tests {
		if got := Candidate(redactEvent(tt.group, tt.all), tt.viewer); got != tt.want {
			t.Errorf("Candidate(group=%v, all=%v, viewer=%q) = %v, want %v",
				tt.group, tt.all, tt.viewer, got, tt.want)
		}
	}
}
