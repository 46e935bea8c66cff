package handlers

import (
	"errors"
	"net/http"

	"github.com/halocal/halocal/internal/auth"
	"github.com/halocal/halocal/internal/middleware"
	"github.com/halocal/halocal/internal/models"
)

// basicRealm is the realm announced to browsers on GET /login.
const basicRealm = "normal"

// Login handles GET /login.
//
// The browser's own HTTP Basic dialog collects the credentials. On success
// the user and csrf cookies are set and the browser is sent back to the
// calendar; the Authorization header is never needed again.
//
// LEARNING NOTE: why Basic auth only here?
// Basic credentials are resent by the browser on every request to the
// realm, but only this route ever reads them. Everything else works from
// the encrypted cookies, which carry no password and expire with the
// process key.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	log := middleware.LoggerFrom(r.Context())

	login, password, ok := r.BasicAuth()
	if !ok {
		challenge(w)
		return
	}
	valid, err := s.Users.Verify(r.Context(), login, password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		log.Info("login failed", "login", login)
		challenge(w)
		return
	}

	cookies, err := s.Sessions.Issue(login)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}
	log.Info("login", "login", login)
	http.Redirect(w, r, s.prefix(), http.StatusSeeOther)
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+basicRealm+`", charset="UTF-8"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// Logout handles GET /logout by expiring both cookies.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	for _, c := range s.Sessions.Clear() {
		http.SetCookie(w, c)
	}
	http.Redirect(w, r, s.prefix(), http.StatusSeeOther)
}

// Ping handles GET /ping. It echoes the logged-in user, if any.
func (s *Server) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong, " + middleware.GetUser(r.Context())))
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		middleware.LoggerFrom(r.Context()).Error("health check", "err", err)
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ChangePasswordForm handles GET /changepassword.
func (s *Server) ChangePasswordForm(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	if sess.CSRF == "" {
		s.fail(w, r, errBadCSRF)
		return
	}
	s.render(w, r, http.StatusOK, "changepassword.html", models.ChangePasswordView{
		Prefix: s.prefix(),
		CSRF:   sess.CSRF,
	})
}

// ChangePassword handles POST /changepassword. Cookies already issued for
// the user stay valid; there is no server-side session to revoke.
func (s *Server) ChangePassword(w http.ResponseWriter, r *http.Request) {
	m, err := s.guard(r, passwordFields)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	password := m.form.text("password")
	if m.form.err != nil {
		s.fail(w, r, m.form.err)
		return
	}

	err = s.Users.ChangePassword(r.Context(), m.user, password)
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		s.fail(w, r, badForm("%s", err.Error()))
		return
	case errors.Is(err, auth.ErrUnknownUser):
		s.message(w, r, http.StatusForbidden, "unknown user")
		return
	case err != nil:
		s.fail(w, r, err)
		return
	}
	middleware.LoggerFrom(r.Context()).Info("password changed")
	s.message(w, r, http.StatusOK, "password changed")
}
