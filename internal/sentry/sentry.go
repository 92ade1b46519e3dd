// Package sentryutil reports failures to Sentry. Every function is a no-op
// when no DSN was configured.
package sentryutil

import (
	"time"

	"github.com/getsentry/sentry-go"

	"fondo/internal/log"
)

// Options mirrors the SENTRY_* configuration keys.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init configures the global Sentry client. Failures are logged and
// otherwise ignored; error reporting never blocks startup.
func Init(opts Options, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		TracesSampleRate: 0.2,
		EnableTracing:    opts.DSN != "",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			event.User = sentry.User{}
			return event
		},
	})
	if err != nil {
		logger.Warn("Sentry init failed, continuing without error tracking", log.FieldError, err)
		return
	}
	if opts.DSN == "" {
		logger.Debug("SENTRY_DSN not set, error tracking disabled")
	} else {
		logger.Info("Sentry initialized", "environment", opts.Environment)
	}
}

func Flush() { sentry.Flush(2 * time.Second) }

func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func CaptureMessage(msg string, level sentry.Level, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureMessage(msg)
	})
}

// LevelWarning returns sentry.LevelWarning so callers don't need to import sentry-go directly.
func LevelWarning() sentry.Level { return sentry.LevelWarning }
