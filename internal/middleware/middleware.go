// Package middleware provides HTTP middleware for the halocal server.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE: what is middleware?
// ────────────────────────────────────────────────────────────────────
// Each function here takes the next http.Handler and returns a new one
// that runs some code around it: it can enrich the request context on
// the way in, inspect the response on the way out, or answer the request
// itself without calling next at all (CORS preflight, oversized body).
//
// The server chains them outermost first:
//
//	RequestLogger → AccessLog → Recoverer → Session → router
//
// so every log line written further in carries the request id, and the
// access line is written even when a handler panics.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/halocal/halocal/internal/auth"
)

// contextKey keeps this package's context values apart from anyone
// else's string keys.
type contextKey string

const (
	// ContextSession is the key under which the resolved auth.Session is
	// stored after Session runs.
	ContextSession contextKey = "session"
	// ContextLogger holds the request-scoped *slog.Logger.
	ContextLogger contextKey = "logger"
)

// RequestIDHeader is echoed back so a user can quote it in a bug report.
const RequestIDHeader = "X-Request-Id"

// RequestLogger assigns every request an id and stores a logger carrying
// it, the method and the path in the context.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" || len(reqID) > 64 {
				reqID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, reqID)

			logger := base.With(
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path, // path only, the query may hold a csrf token
			)
			ctx := context.WithValue(r.Context(), ContextLogger, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog writes one line per request once the response is done.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			LoggerFrom(r.Context()).Info("request",
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Session resolves the user and csrf cookies once per request and stores
// the result in the context. It never rejects a request: an absent or
// undecryptable cookie simply yields a logged-out session, and each
// handler decides what that means.
func Session(sessions auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessions.Resolve(r)
			ctx := context.WithValue(r.Context(), ContextSession, sess)
			if sess.LoggedIn() {
				ctx = context.WithValue(ctx, ContextLogger, LoggerFrom(ctx).With("user", sess.User))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BodyLimit caps request bodies at maxBytes.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS lets other origins read the public JSON and iCalendar feeds. Only
// safe methods are allowed, and cookies are not shared cross-origin, so a
// foreign page sees exactly what an anonymous visitor sees.
//
// LEARNING NOTE: what is CORS?
// A script on another site may only read our responses if we say so in
// Access-Control-Allow-Origin. With "*" any site may, but the browser
// then leaves our cookies out of the request. Before some requests the
// browser first sends an OPTIONS preflight, answered here with 204 and
// the allowed methods.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSession retrieves the session stored by Session. It is the zero
// (logged-out) session when the middleware has not run.
func GetSession(ctx context.Context) auth.Session {
	s, _ := ctx.Value(ContextSession).(auth.Session)
	return s
}

// GetUser is shorthand for GetSession(ctx).User.
func GetUser(ctx context.Context) string {
	return GetSession(ctx).User
}

// LoggerFrom returns the request-scoped logger, or slog.Default() outside
// a request.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ContextLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
