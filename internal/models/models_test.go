package models

import (
	"errors"
	"testing"
	"time"
)

func TestParseVisibility(t *testing.T) {
	for code, want := range map[int]Visibility{0: Hide, 1: Busy, 2: Show} {
		got, err := ParseVisibility(code)
		if err != nil || got != want {
			t.Errorf("ParseVisibility(%d) = %v, %v; want %v", code, got, err, want)
		}
		if got.Code() != code {
			t.Errorf("%v.Code() = %d, want %d", got, got.Code(), code)
		}
	}

	for _, bad := range []int{-1, 3, 42} {
		if _, err := ParseVisibility(bad); !errors.Is(err, ErrVisibilityOutOfRange) {
			t.Errorf("ParseVisibility(%d): expected ErrVisibilityOutOfRange, got %v", bad, err)
		}
	}
}

func TestAt(t *testing.T) {
	got := At(Date(2024, time.February, 29), ClockTime(23, 15, 30))
	want := time.Date(2024, time.February, 29, 23, 15, 30, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At = %v, want %v", got, want)
	}
	if !DateOf(got).Equal(Date(2024, time.February, 29)) {
		t.Fatalf("DateOf(%v) = %v", got, DateOf(got))
	}
}

func TestFormOf(t *testing.T) {
	ev := Event{
		ID: 12, Owner: "alice",
		StartDate: Date(2024, time.March, 3), StartTime: ClockTime(7, 5, 0),
		RepeatWeeks: 4, Description: "run", Link: "https://example.org",
		ShowToGroup: Show, ShowToAll: Busy,
	}
	f := FormOf(ev)
	if f.ID != 12 || f.StartDate != "2024-03-03" || f.StartTime != "07:05" {
		t.Errorf("unexpected form %+v", f)
	}
	if f.ShowToGroup != 2 || f.ShowToAll != 1 || f.RepeatWeeks != 4 {
		t.Errorf("unexpected codes %+v", f)
	}
}
