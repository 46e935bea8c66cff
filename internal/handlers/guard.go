package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/halocal/halocal/internal/auth"
	"github.com/halocal/halocal/internal/db"
	"github.com/halocal/halocal/internal/middleware"
	"github.com/halocal/halocal/internal/models"
)

// Errors produced while a write request moves through the guard. Each one
// is terminal and is turned into a response by fail.
var (
	// errNotLoggedIn sends the browser to the login page.
	errNotLoggedIn = errors.New("not logged in")
	// errLoginRequired is the page-form variant: a plain 403.
	errLoginRequired = errors.New("you are not logged in")
	errBadCSRF       = errors.New("bad CSRF token")
	errNotOwner      = errors.New("you are not the owner of this event")
)

// mutation is a write request that has passed the identity and CSRF
// stages. Its form still has to be decoded.
type mutation struct {
	user string
	form *strictForm
}

// guard runs the first stages every mutating POST goes through:
//
//	Unauthenticated → Authenticated   the user cookie opened
//	Authenticated   → CSRFChecked     the csrf form field equals the cookie
//
// Nothing is read from or written to the store before both pass, and the
// strict form check happens after the CSRF check so a forged request is
// always answered with 403. Ownership is the next stage, see owned.
func (s *Server) guard(r *http.Request, fields []string) (*mutation, error) {
	sess := middleware.GetSession(r.Context())
	if !sess.LoggedIn() {
		return nil, errNotLoggedIn
	}
	if err := r.ParseForm(); err != nil {
		return nil, badForm("unreadable form")
	}
	if err := checkCSRF(sess, r.PostForm["csrf"]); err != nil {
		return nil, err
	}
	return &mutation{user: sess.User, form: newStrictForm(r.PostForm, fields)}, nil
}

// checkCSRF compares the submitted token with the one sealed in the csrf
// cookie. A missing cookie, a missing or repeated field and any difference
// all fail the same way.
func checkCSRF(sess auth.Session, submitted []string) error {
	if sess.CSRF == "" || len(submitted) != 1 || submitted[0] == "" {
		return errBadCSRF
	}
	if subtle.ConstantTimeCompare([]byte(sess.CSRF), []byte(submitted[0])) != 1 {
		return errBadCSRF
	}
	return nil
}

// owned loads event id and checks it belongs to user. A missing event is
// reported exactly like someone else's, so ids cannot be probed.
func (s *Server) owned(ctx context.Context, id int64, user string) (models.Event, error) {
	ev, err := s.Store.EventByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return models.Event{}, errNotOwner
	}
	if err != nil {
		return models.Event{}, err
	}
	if ev.Owner != user {
		return models.Event{}, errNotOwner
	}
	return ev, nil
}

// fail turns an error from any guard stage, the form decoder or the store
// into a response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	log := middleware.LoggerFrom(r.Context())

	var fe *formError
	switch {
	case errors.Is(err, errNotLoggedIn):
		http.Redirect(w, r, s.prefix()+"login", http.StatusSeeOther)
	case errors.Is(err, errLoginRequired):
		s.message(w, r, http.StatusForbidden, errLoginRequired.Error())
	case errors.Is(err, errBadCSRF):
		log.Warn("bad CSRF token, possible forged request")
		s.message(w, r, http.StatusForbidden, errBadCSRF.Error())
	case errors.Is(err, errNotOwner), errors.Is(err, db.ErrNotFound):
		log.Warn("rejected change to an event not owned by the user")
		s.message(w, r, http.StatusForbidden, errNotOwner.Error())
	case errors.As(err, &fe):
		s.message(w, r, http.StatusBadRequest, fe.msg)
	default:
		log.Error("request failed", "err", err)
		s.message(w, r, http.StatusInternalServerError, "internal error")
	}
}
