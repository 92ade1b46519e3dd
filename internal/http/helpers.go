package http

import (
	"bytes"
	"net/http"
	"strings"

	"fondo/internal/log"
	"fondo/internal/render"
	sentryutil "fondo/internal/sentry"
)

// writeJSON encodes v into a buffer first so encoding failures still yield a
// clean 500.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := render.JSON(&buf, v); err != nil {
		s.fail(w, r, log.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError answers with JSON for API routes and plain text elsewhere.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = render.JSON(w, map[string]string{"error": msg})
		return
	}
	http.Error(w, msg, status)
}

// fail logs err, reports it to Sentry and answers 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.slog.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op,
		log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
	sentryutil.CaptureError(err, map[string]string{
		"operation": op,
		"path":      r.URL.Path,
	})
	writeError(w, r, http.StatusInternalServerError, "Errore interno del server")
}

// unavailable answers 503 while the dataset is not loaded.
func unavailable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "5")
	writeError(w, r, http.StatusServiceUnavailable, "Dati non ancora disponibili")
}
