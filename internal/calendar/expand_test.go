package calendar

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/halocal/halocal/internal/models"
)

func weekly(start time.Time, clock time.Time, repeat int) models.Event {
	return models.Event{
		ID:          1,
		Owner:       "alice",
		StartDate:   start,
		StartTime:   clock,
		RepeatWeeks: repeat,
		ShowToGroup: models.Show,
		ShowToAll:   models.Show,
	}
}

func TestExpand(t *testing.T) {
	jan1 := models.Date(2024, time.January, 1)
	nine := models.ClockTime(9, 0, 0)
	day := func(y int, m time.Month, d int) time.Time { return models.Date(y, m, d) }
	at := func(d time.Time) time.Time { return models.At(d, nine) }

	tests := []struct {
		name        string
		repeat      int
		from, until time.Time
		want        []time.Time
	}{
		{"single occurrence inside window", 0, day(2023, time.December, 31), day(2024, time.January, 2), []time.Time{at(jan1)}},
		{"lower bound is exclusive", 0, jan1, day(2024, time.January, 5), nil},
		{"upper bound is exclusive", 0, day(2023, time.December, 1), jan1, nil},
		{"empty window", 3, day(2024, time.January, 8), day(2024, time.January, 8), nil},
		{"window before start", 5, day(2023, time.June, 1), day(2023, time.June, 30), nil},
		{"window after last occurrence", 2, day(2024, time.January, 15), day(2024, time.March, 1), nil},
		{"weekly slice of a long series", 52, day(2024, time.February, 1), day(2024, time.February, 20),
			[]time.Time{at(day(2024, time.February, 5)), at(day(2024, time.February, 12)), at(day(2024, time.February, 19))}},
		{"negative repeat yields nothing", -1, day(2023, time.December, 1), day(2024, time.February, 1), nil},
		{"centuries after the start", 20000, day(2388, time.February, 21), day(2388, time.February, 23),
			[]time.Time{at(day(2388, time.February, 22))}},
		{"window reaches past the last week", 3, day(2023, time.December, 1), day(2400, time.January, 1),
			[]time.Time{at(jan1), at(day(2024, time.January, 8)), at(day(2024, time.January, 15)), at(day(2024, time.January, 22))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Expand(weekly(jan1, nine, tt.repeat), tt.from, tt.until)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("[%d] got %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// TestExpand_SeriesFromLongAgo compares a series started in 1700 with a
// week-by-week walk from its first date.
func TestExpand_SeriesFromLongAgo(t *testing.T) {
	start := models.Date(1700, time.January, 4)
	from, until := models.Date(2024, time.January, 1), models.Date(2024, time.January, 11)
	ev := weekly(start, models.ClockTime(7, 15, 0), 30000)

	var want []time.Time
	for k := 0; k <= ev.RepeatWeeks; k++ {
		d := start.AddDate(0, 0, 7*k)
		if d.After(from) && d.Before(until) {
			want = append(want, models.At(d, ev.StartTime))
		}
	}
	if len(want) == 0 {
		t.Fatal("walk found no dates in the window")
	}

	got := Expand(ev, from, until)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Errorf("[%d] got %v, want %v", i, got[i], want[i])
		}
	}

	// A typo year far in the past behaves the same way.
	typo := weekly(models.Date(224, time.January, 1), models.ClockTime(9, 0, 0), 100000)
	if len(Expand(typo, from, until)) == 0 {
		t.Error("series from year 224 missing in 2024")
	}
}

func TestExpand_KeepsTimeOfDayAcrossDST(t *testing.T) {
	// Civil values never see a zone, so a weekly 08:30 stays 08:30 across
	// the March daylight saving switch in any configured zone.
	ev := weekly(models.Date(2024, time.March, 4), models.ClockTime(8, 30, 0), 4)
	got := Expand(ev, models.Date(2024, time.March, 1), models.Date(2024, time.April, 30))
	if len(got) != 5 {
		t.Fatalf("expected 5 occurrences, got %d", len(got))
	}
	for _, g := range got {
		if g.Hour() != 8 || g.Minute() != 30 {
			t.Errorf("occurrence %v lost its time of day", g)
		}
	}
}

func TestExpand_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	base := models.Date(2024, time.January, 1)

	for i := 0; i < 500; i++ {
		start := base.AddDate(0, 0, rng.IntN(120))
		n := rng.IntN(30)
		from := base.AddDate(0, 0, rng.IntN(200)-20)
		until := from.AddDate(0, 0, rng.IntN(90))
		ev := weekly(start, models.ClockTime(rng.IntN(24), rng.IntN(60), 0), n)

		got := Expand(ev, from, until)
		if len(got) > n+1 {
			t.Fatalf("case %d: %d occurrences for repeat %d", i, len(got), n)
		}
		for j, g := range got {
			d := models.DateOf(g)
			if !d.After(from) || !d.Before(until) {
				t.Fatalf("case %d: %v outside (%v, %v)", i, g, from, until)
			}
			if j > 0 && !g.After(got[j-1]) {
				t.Fatalf("case %d: not strictly ascending at %d", i, j)
			}
			if days := int(d.Sub(start).Hours() / 24); days%7 != 0 || days/7 > n {
				t.Fatalf("case %d: %v is not start + 7k for k <= %d", i, g, n)
			}
		}

		// Brute force the same window and compare counts.
		want := 0
		for k := 0; k <= n; k++ {
			d := start.AddDate(0, 0, 7*k)
			if d.After(from) && d.Before(until) {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("case %d: got %d occurrences, brute force says %d", i, len(got), want)
		}
	}
}

func TestDaysTo(t *testing.T) {
	tests := []struct {
		now, d time.Time
		want   int
	}{
		{models.Date(2024, time.January, 1), models.Date(2024, time.January, 1), 0},
		{models.Date(2024, time.January, 1), models.Date(2024, time.January, 8), 7},
		{models.Date(2024, time.January, 10), models.Date(2024, time.February, 15), 35},
		// Jan 31 + 1 month clamps to Feb 29, leaving one day.
		{models.Date(2024, time.January, 31), models.Date(2024, time.March, 1), 31},
		// One year one month two days: the year is dropped.
		{models.Date(2024, time.January, 1), models.Date(2025, time.February, 3), 32},
		{models.Date(2024, time.March, 10), models.Date(2024, time.January, 5), -65},
		{models.Date(2024, time.March, 5), models.Date(2024, time.January, 20), -46},
		{models.Date(2024, time.January, 2), models.Date(2024, time.January, 1), -1},
	}
	for _, tt := range tests {
		if got := DaysTo(tt.now, tt.d); got != tt.want {
			t.Errorf("DaysTo(%s, %s) = %d, want %d",
				tt.now.Format("2006-01-02"), tt.d.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestDaysTo_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2024, time.January, 1, 23, 59, 0, 0, time.UTC)
	d := time.Date(2024, time.January, 2, 0, 1, 0, 0, time.UTC)
	if got := DaysTo(now, d); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}
