// Package handlers contains the HTTP handler logic for the halocal calendar.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE: package structure
// ────────────────────────────────────────────────────────────────────
// All handler files share the same "handlers" package so they can call
// each other's helpers freely without exporting them. The files are
// split by concern:
//
//	listing.go   the read side: HTML page, JSON feed, iCalendar feed
//	events.go    the write side: new / edit / delete event
//	auth.go      login, logout, password change, ping, health
//	guard.go     the checks every write goes through, in order
//	forms.go     strict form decoding
//	render.go    HTML templates and JSON helpers
//
// The central type is Server. It holds what every handler needs: the
// store, the credential verifier, the session issuer and the instance
// settings. Putting shared dependencies on a struct (instead of global
// variables) makes the code easier to test: each test creates its own
// Server with its own in-memory database and no test pollutes another.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/halocal/halocal/internal/auth"
	"github.com/halocal/halocal/internal/middleware"
	"github.com/halocal/halocal/internal/models"
)

// Store is the persistence the handlers need. *db.Store implements it;
// tests substitute spies.
type Store interface {
	ListVisible(ctx context.Context, viewer string) ([]models.Event, error)
	EventByID(ctx context.Context, id int64) (models.Event, error)
	InsertEvent(ctx context.Context, ev models.Event) (int64, error)
	UpdateEvent(ctx context.Context, ev models.Event) error
	DeleteEvent(ctx context.Context, id int64, owner string) error
	Ping(ctx context.Context) error
}

// Credentials checks and changes passwords. *auth.PasswordVerifier
// implements it.
type Credentials interface {
	Verify(ctx context.Context, login, password string) (bool, error)
	ChangePassword(ctx context.Context, login, newPassword string) error
}

// DefaultMaxFormBytes bounds POST bodies when Server.MaxFormBytes is unset.
const DefaultMaxFormBytes = 64 << 10

// Server holds shared dependencies for all handlers.
// Using a struct instead of package-level globals means tests can spin
// up many independent Server instances without state leaking between them.
type Server struct {
	Store    Store
	Users    Credentials
	Sessions auth.Issuer
	Logger   *slog.Logger

	// Prefix is the public URL path of the calendar, with a trailing
	// slash. Redirects and page links are built from it.
	Prefix string
	// Top is an optional banner for the main page.
	Top string
	// Links are extra navigation entries on the main page.
	Links map[string]string
	// Location is the zone stored civil times belong to.
	Location *time.Location
	// Host names the site in iCalendar UIDs.
	Host string
	// StaticDir is served under /static/ when set.
	StaticDir string
	// MaxFormBytes bounds POST bodies.
	MaxFormBytes int64
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) loc() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Server) prefix() string {
	if s.Prefix == "" {
		return "/"
	}
	return s.Prefix
}

// today is the current civil date in the configured zone.
func (s *Server) today() time.Time {
	return models.DateOf(s.now().In(s.loc()))
}

// Routes builds the full HTTP handler.
//
// LEARNING NOTE: middleware order
// chi applies r.Use middleware outermost first. RequestLogger must run
// before AccessLog so the access line carries the request id, and
// Recoverer sits inside AccessLog so a panic still produces one.
func (s *Server) Routes() http.Handler {
	base := s.Logger
	if base == nil {
		base = slog.Default()
	}
	maxBody := s.MaxFormBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxFormBytes
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(base))
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Session(s.Sessions))

	r.Get("/", s.Main)
	r.Get("/ping", s.Ping)
	r.Get("/healthz", s.Healthz)
	r.Get("/login", s.Login)
	r.Get("/logout", s.Logout)

	// Public feeds; CORS answers the preflight itself.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CORS)
		r.Get("/list", s.ListJSON)
		r.Get("/list.ics", s.ListICS)
		r.Options("/list", func(http.ResponseWriter, *http.Request) {})
		r.Options("/list.ics", func(http.ResponseWriter, *http.Request) {})
	})

	r.Get("/newevent", s.NewEventForm)
	r.Get("/editevent", s.EditEventForm)
	r.Get("/delevent", s.DeleteEventForm)
	r.Get("/changepassword", s.ChangePasswordForm)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BodyLimit(maxBody))
		r.Post("/newevent", s.CreateEvent)
		r.Post("/editevent", s.UpdateEvent)
		r.Post("/delevent", s.DeleteEvent)
		r.Post("/changepassword", s.ChangePassword)
	})

	if s.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(s.StaticDir))))
	}
	return r
}
