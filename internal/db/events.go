package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/halocal/halocal/internal/models"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

const eventColumns = `id, owner, start_date, start_time, repeat_weeks, description, link, show_to_group, show_to_all`

// ListVisible returns every event that can contribute to viewer's listing:
// for an anonymous viewer (empty string) those shown to all, otherwise
// also the viewer's own events and those shown to the group. Redaction is
// not applied here.
func (s *Store) ListVisible(ctx context.Context, viewer string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM ` + s.events + ` WHERE show_to_all > 0`
	var args []any
	if viewer != "" {
		query += ` OR owner = ? OR show_to_group > 0`
		args = append(args, viewer)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	// Initialise to an empty slice, not nil.
	events := []models.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// EventByID fetches one event. It returns ErrNotFound when no row has id.
func (s *Store) EventByID(ctx context.Context, id int64) (models.Event, error) {
	row := s.db.QueryRowContext(ctx,
		s.dialect.Rebind(`SELECT `+eventColumns+` FROM `+s.events+` WHERE id = ?`), id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, ErrNotFound
	}
	return ev, err
}

// InsertEvent stores a new event and returns its id. ev.ID is ignored.
func (s *Store) InsertEvent(ctx context.Context, ev models.Event) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(
		`INSERT INTO `+s.events+` (owner, start_date, start_time, repeat_weeks, description, link, show_to_group, show_to_all)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		ev.Owner, ev.StartDate.Format(dateLayout), ev.StartTime.Format(timeLayout), ev.RepeatWeeks,
		ev.Description, ev.Link, ev.ShowToGroup.Code(), ev.ShowToAll.Code(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// UpdateEvent overwrites the editable fields of event ev.ID. The owner is
// part of the WHERE clause, so the row is only touched when it still
// belongs to ev.Owner; otherwise ErrNotFound is returned.
func (s *Store) UpdateEvent(ctx context.Context, ev models.Event) error {
	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(
		`UPDATE `+s.events+` SET start_date = ?, start_time = ?, repeat_weeks = ?, description = ?,
		        link = ?, show_to_group = ?, show_to_all = ?
		 WHERE id = ? AND owner = ?`),
		ev.StartDate.Format(dateLayout), ev.StartTime.Format(timeLayout), ev.RepeatWeeks,
		ev.Description, ev.Link, ev.ShowToGroup.Code(), ev.ShowToAll.Code(),
		ev.ID, ev.Owner,
	)
	if err != nil {
		return fmt.Errorf("update event %d: %w", ev.ID, err)
	}
	return expectOne(res, ev.ID)
}

// DeleteEvent removes event id if it belongs to owner.
func (s *Store) DeleteEvent(ctx context.Context, id int64, owner string) error {
	res, err := s.db.ExecContext(ctx,
		s.dialect.Rebind(`DELETE FROM `+s.events+` WHERE id = ? AND owner = ?`), id, owner)
	if err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc rowScanner) (models.Event, error) {
	var (
		ev          models.Event
		date, clock any
		group, all  int
	)
	err := sc.Scan(&ev.ID, &ev.Owner, &date, &clock, &ev.RepeatWeeks,
		&ev.Description, &ev.Link, &group, &all)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ev, err
		}
		return ev, fmt.Errorf("scan event: %w", err)
	}

	if ev.StartDate, err = civilDate(date); err != nil {
		return ev, fmt.Errorf("event %d start_date: %w", ev.ID, err)
	}
	if ev.StartTime, err = civilClock(clock); err != nil {
		return ev, fmt.Errorf("event %d start_time: %w", ev.ID, err)
	}
	if ev.ShowToGroup, err = models.ParseVisibility(group); err != nil {
		return ev, fmt.Errorf("event %d show_to_group: %w", ev.ID, err)
	}
	if ev.ShowToAll, err = models.ParseVisibility(all); err != nil {
		return ev, fmt.Errorf("event %d show_to_all: %w", ev.ID, err)
	}
	return ev, nil
}

// civilDate normalizes whatever the driver returned for a date column.
// pgx yields time.Time for DATE; SQLite yields the stored text.
func civilDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return models.DateOf(x), nil
	case string:
		return parseDate(x)
	case []byte:
		return parseDate(string(x))
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", v)
}

func parseDate(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// civilClock normalizes a time-of-day column. pgx renders TIME as text
// with optional fractional seconds.
func civilClock(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return models.ClockTime(x.Hour(), x.Minute(), x.Second()), nil
	case string:
		return parseClock(x)
	case []byte:
		return parseClock(string(x))
	}
	return time.Time{}, fmt.Errorf("unsupported time value %T", v)
}

func parseClock(s string) (time.Time, error) {
	for _, layout := range []string{"15:04:05.999999999", "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return models.ClockTime(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time of day %q", s)
}
