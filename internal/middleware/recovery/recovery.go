// Package recovery turns handler panics into 500 responses and reports them.
package recovery

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"

	"fondo/internal/log"
)

// Middleware recovers panics, logs the stack and sends the panic to Sentry.
func Middleware(logger *log.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(log.ComponentHTTP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "Handler panic",
					log.FieldMethod, r.Method,
					log.FieldPath, r.URL.Path,
					log.FieldError, fmt.Sprint(rec),
					"stack", string(debug.Stack()))

				hub := sentry.GetHubFromContext(r.Context())
				if hub == nil {
					hub = sentry.CurrentHub().Clone()
				}
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetTag("endpoint", r.URL.Path)
					scope.SetTag("method", r.Method)
					scope.SetLevel(sentry.LevelFatal)
					hub.RecoverWithContext(r.Context(), rec)
				})
				hub.Flush(2 * time.Second)

				http.Error(w, "Errore interno del server", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
