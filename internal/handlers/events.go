package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/halocal/halocal/internal/calendar"
	"github.com/halocal/halocal/internal/middleware"
	"github.com/halocal/halocal/internal/models"
)

// NewEventForm handles GET /newevent.
func (s *Server) NewEventForm(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if !sess.LoggedIn() || sess.CSRF == "" {
		s.fail(w, r, errLoginRequired)
		return
	}
	s.render(w, r, http.StatusOK, "newevent.html", models.NewEventView{
		Prefix: s.prefix(),
		CSRF:   sess.CSRF,
		Event:  models.EventForm{StartDate: s.today().Format("2006-01-02")},
	})
}

// CreateEvent handles POST /newevent.
//
// LEARNING NOTE: one statement per write
// Each mutation is exactly one INSERT, UPDATE or DELETE, issued only
// after every guard stage has passed. The ownership read in UpdateEvent
// and DeleteEvent is a separate statement with no transaction around it;
// the write repeats the owner in its WHERE clause, so an event that
// changed hands in between is simply not touched.
func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	m, err := s.guard(r, eventFields)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ev, err := eventForm(m.form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ev.Owner = m.user

	id, err := s.Store.InsertEvent(r.Context(), ev)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	middleware.LoggerFrom(r.Context()).Info("event created", "event_id", id)
	http.Redirect(w, r, s.prefix(), http.StatusSeeOther)
}

// EditEventForm handles GET /editevent?id=…&csrf=…
// The csrf query parameter must match the cookie, so the edit link on the
// main page cannot be replayed from another origin.
func (s *Server) EditEventForm(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if !sess.LoggedIn() {
		s.fail(w, r, errLoginRequired)
		return
	}
	q := r.URL.Query()
	if err := checkCSRF(sess, q["csrf"]); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil {
		s.fail(w, r, badForm("id is not an integer"))
		return
	}
	ev, err := s.owned(r.Context(), id, sess.User)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "editevent.html", models.EditEventView{
		Prefix: s.prefix(),
		CSRF:   sess.CSRF,
		Event:  models.FormOf(ev),
	})
}

// UpdateEvent handles POST /editevent.
func (s *Server) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	m, err := s.guard(r, editFields)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id := m.form.integer("id")
	ev, err := eventForm(m.form)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.owned(r.Context(), id, m.user); err != nil {
		s.fail(w, r, err)
		return
	}

	ev.ID = id
	ev.Owner = m.user
	if err := s.Store.UpdateEvent(r.Context(), ev); err != nil {
		s.fail(w, r, err)
		return
	}
	middleware.LoggerFrom(r.Context()).Info("event updated", "event_id", id)
	http.Redirect(w, r, s.prefix(), http.StatusSeeOther)
}

// DeleteEventForm handles GET /delevent?id=…&description=…&datetime=…
// It only asks for confirmation; description and datetime are echoed from
// the link on the main page.
func (s *Server) DeleteEventForm(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if !sess.LoggedIn() {
		s.fail(w, r, errLoginRequired)
		return
	}
	if sess.CSRF == "" {
		s.fail(w, r, errBadCSRF)
		return
	}

	q := r.URL.Query()
	f := newStrictForm(q, []string{"id", "description", "datetime"})
	id := f.integer("id")
	description := f.text("description")
	stamp := f.text("datetime")
	if f.err != nil {
		s.fail(w, r, f.err)
		return
	}
	if _, err := time.Parse(calendar.UTCLayout, stamp); err != nil {
		s.fail(w, r, badForm("datetime is not a UTC timestamp (yyyy-mm-ddThh:mm:ssZ)"))
		return
	}
	if _, err := s.owned(r.Context(), id, sess.User); err != nil {
		s.fail(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "delevent.html", models.DelEventView{
		Prefix:      s.prefix(),
		CSRF:        sess.CSRF,
		ID:          id,
		Description: description,
		DateTime:    stamp,
	})
}

// DeleteEvent handles POST /delevent. The whole series is removed.
func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	m, err := s.guard(r, deleteFields)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id := m.form.integer("id")
	if m.form.err != nil {
		s.fail(w, r, m.form.err)
		return
	}
	if _, err := s.owned(r.Context(), id, m.user); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Store.DeleteEvent(r.Context(), id, m.user); err != nil {
		s.fail(w, r, err)
		return
	}
	middleware.LoggerFrom(r.Context()).Info("event deleted", "event_id", id)
	http.Redirect(w, r, s.prefix(), http.StatusSeeOther)
}
