package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/halocal/halocal/internal/middleware"
	"github.com/halocal/halocal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds every HTML view. Parsing happens once at init; a broken
// template is a build defect, so Must is appropriate.
var pages = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

// render executes the named template into a buffer first, so a template
// error becomes a clean 500 instead of a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		middleware.LoggerFrom(r.Context()).Error("render template", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// message renders a one-line page with a link back to the calendar.
func (s *Server) message(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "message.html", models.MessageView{Prefix: s.prefix(), Message: msg})
}

// respond encodes body as JSON under status. Headers must be set before
// WriteHeader.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError sends a JSON object with a single "error" key,
// e.g. {"error": "from is not a date"}.
func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"error": msg})
}
