package auth

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Cookie names carried by the browser.
const (
	UserCookie = "user"
	CSRFCookie = "csrf"
)

// Session is what a request's cookies decrypt to. Empty fields mean the
// cookie was absent or did not open.
type Session struct {
	User string
	CSRF string
}

// LoggedIn reports whether an identity was recovered.
func (s Session) LoggedIn() bool { return s.User != "" }

// Issuer hands out and reads back login sessions. The cookie codec is the
// only implementation; the interface keeps handlers independent of how the
// identity is protected and where its key comes from.
type Issuer interface {
	// Issue returns the cookies that log identity in with a new CSRF token.
	Issue(identity string) ([]*http.Cookie, error)
	// Resolve recovers the session carried by r. It never fails.
	Resolve(r *http.Request) Session
	// Clear returns cookies that remove a session from the browser.
	Clear() []*http.Cookie
}

// CookieSessions implements Issuer with a Codec.
type CookieSessions struct {
	codec  *Codec
	secure bool
	logger *slog.Logger
}

// NewCookieSessions returns an Issuer sealing cookies with codec. When
// secure is true the cookies are only sent over HTTPS.
func NewCookieSessions(codec *Codec, secure bool, logger *slog.Logger) *CookieSessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &CookieSessions{codec: codec, secure: secure, logger: logger}
}

// Issue seals identity and a fresh CSRF token.
func (s *CookieSessions) Issue(identity string) ([]*http.Cookie, error) {
	user, err := s.codec.Encrypt(identity)
	if err != nil {
		return nil, fmt.Errorf("seal identity: %w", err)
	}
	csrf, err := s.codec.Encrypt(NewCSRFToken())
	if err != nil {
		return nil, fmt.Errorf("seal csrf token: %w", err)
	}
	return []*http.Cookie{s.cookie(UserCookie, user), s.cookie(CSRFCookie, csrf)}, nil
}

// Resolve opens the user and csrf cookies of r.
func (s *CookieSessions) Resolve(r *http.Request) Session {
	return Session{
		User: s.open(r, UserCookie),
		CSRF: s.open(r, CSRFCookie),
	}
}

// Clear expires both cookies.
func (s *CookieSessions) Clear() []*http.Cookie {
	out := make([]*http.Cookie, 0, 2)
	for _, name := range []string{UserCookie, CSRFCookie} {
		c := s.cookie(name, "")
		c.MaxAge = -1
		out = append(out, c)
	}
	return out
}

func (s *CookieSessions) open(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return ""
	}
	v, ok := s.codec.Decrypt(c.Value)
	if !ok {
		s.logger.Debug("cookie does not decrypt", "cookie", name)
		return ""
	}
	return v
}

func (s *CookieSessions) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
