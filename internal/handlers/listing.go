package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/halocal/halocal/internal/calendar"
	"github.com/halocal/halocal/internal/middleware"
	"github.com/halocal/halocal/internal/models"
)

// displayLayout renders an occurrence on the HTML page.
const displayLayout = "Monday, January 2, 2006 at 3:04:05 PM"

// situation reads the listing window from the query. Without parameters
// it is yesterday through three days from now, in the configured zone.
func (s *Server) situation(r *http.Request) (models.Situation, error) {
	today := s.today()
	sit := models.Situation{
		Viewer: middleware.GetUser(r.Context()),
		From:   today.AddDate(0, 0, -1),
		Until:  today.AddDate(0, 0, 3),
	}
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return sit, badForm("from is not a date (yyyy-mm-dd)")
		}
		sit.From = d
	}
	if v := q.Get("until"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return sit, badForm("until is not a date (yyyy-mm-dd)")
		}
		sit.Until = d
	}
	return sit, nil
}

// occurrences runs the listing pipeline for the request's viewer and
// window: store pre-filter, expansion, redaction, sort.
func (s *Server) occurrences(r *http.Request) ([]models.Occurrence, models.Situation, error) {
	sit, err := s.situation(r)
	if err != nil {
		return nil, sit, err
	}
	events, err := s.Store.ListVisible(r.Context(), sit.Viewer)
	if err != nil {
		return nil, sit, err
	}
	return calendar.List(events, sit, s.today()), sit, nil
}

// Main handles GET /, the calendar page.
func (s *Server) Main(w http.ResponseWriter, r *http.Request) {
	occs, sit, err := s.occurrences(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	sess := middleware.GetSession(r.Context())
	view := models.MainView{
		Prefix:      s.prefix(),
		CSRF:        sess.CSRF,
		User:        sess.User,
		DayFrom:     sit.From.Format("2006-01-02"),
		DayUntil:    sit.Until.Format("2006-01-02"),
		Top:         s.Top,
		Links:       s.Links,
		Occurrences: make([]models.OccurrenceView, 0, len(occs)),
	}
	for _, o := range occs {
		view.Occurrences = append(view.Occurrences, models.OccurrenceView{
			Occurrence: o,
			When:       calendar.Instant(o.Start, s.loc()).Format(displayLayout),
			UTCStamp:   calendar.FormatUTC(o.Start, s.loc()),
			Mine:       sess.LoggedIn() && o.Owner == sess.User,
		})
	}
	s.render(w, r, http.StatusOK, "main.html", view)
}

// ListJSON handles GET /list.
func (s *Server) ListJSON(w http.ResponseWriter, r *http.Request) {
	occs, _, err := s.occurrences(r)
	if err != nil {
		var fe *formError
		if errors.As(err, &fe) {
			respondError(w, http.StatusBadRequest, fe.msg)
			return
		}
		middleware.LoggerFrom(r.Context()).Error("list events", "err", err)
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respond(w, http.StatusOK, calendar.Feed(occs, s.loc()))
}

// ListICS handles GET /list.ics: the same occurrences as /list, as an
// iCalendar document.
func (s *Server) ListICS(w http.ResponseWriter, r *http.Request) {
	occs, _, err := s.occurrences(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	host := s.Host
	if host == "" {
		host = r.Host
	}
	var buf bytes.Buffer
	if err := calendar.WriteICS(&buf, occs, s.loc(), host, s.now().UTC()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	_, _ = buf.WriteTo(w)
}
