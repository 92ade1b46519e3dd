// Package http serves the dashboard: the HTML page, its JSON API, chart PNGs
// and the XLSX export. Every request recomputes its summary from the shared,
// read-only dataset.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fondo/internal/core"
	"fondo/internal/engine"
	"fondo/internal/log"
	"fondo/internal/metrics"
	"fondo/internal/middleware/ratelimit"
	"fondo/internal/middleware/recovery"
	"fondo/internal/middleware/security"
	"fondo/internal/middleware/trace"
	appweb "fondo/web"
)

// DatasetProvider hands out the loaded dataset. *dataset.Store satisfies it.
type DatasetProvider interface {
	Get() (*core.Dataset, error)
	Loaded() bool
}

// Config wires a Server.
type Config struct {
	Addr    string
	Store   DatasetProvider
	Profile engine.Profile
	Logger  *log.Logger

	// ExportRateLimit caps XLSX exports per client per minute.
	ExportRateLimit int
	// TrustedProxies are CIDRs whose forwarding headers are believed, on
	// top of loopback and private ranges.
	TrustedProxies []string
}

type Server struct {
	http.Server
	store     DatasetProvider
	profile   engine.Profile
	templates *template.Template
	logger    *log.Logger
	slog      *log.StructuredLogger
	detector  *security.Detector
	limiter   *ratelimit.Limiter
	mux       *http.ServeMux

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and registers every route.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		store:     cfg.Store,
		profile:   cfg.Profile,
		templates: t,
		logger:    logger,
		slog:      log.NewStructuredLogger(logger),
		detector:  detector,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.ExportRateLimit}),
		mux:       http.NewServeMux(),
	}
	s.limiter.OnReject = func(key string) {
		metrics.RateLimited.Inc()
		logger.WithComponent(log.ComponentRateLimit).Warn("Export rate limit hit", log.FieldClientIP, key)
	}

	s.handle("GET /{$}", "index", s.handleIndex)
	s.handle("GET /api/options", "options", s.handleOptions)
	s.handle("GET /api/summary", "summary", s.handleSummary)
	s.handle("GET /api/records", "records", s.handleRecords)
	s.handle("GET /charts/{file}", "chart", s.handleChart)
	s.mux.Handle("GET /export.xlsx", instrument("export",
		s.limiter.Middleware(s.detector.ClientIP)(http.HandlerFunc(s.handleExport))))
	s.handle("GET /healthz", "healthz", s.handleHealth)
	s.handle("GET /readyz", "readyz", s.handleReady)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.Handle("GET /static/", security.CacheControl(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	// Outermost first: recovery sees panics from everything below it.
	var h http.Handler = s.mux
	h = s.flagProbes(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.RequestIDMiddleware(func(r *http.Request) string { return trace.GetRequestID(r.Context()) })(h)
	h = log.Middleware(logger)(h)
	h = trace.NewMiddleware(logger, s.detector.ClientIP).Middleware(h)
	h = recovery.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.Handle(pattern, instrument(route, h))
}

// instrument records request count and latency under a fixed route label.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := trace.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		metrics.HTTPRequests.WithLabelValues(route, metrics.StatusClass(rec.Status())).Inc()
	})
}

// flagProbes logs and counts requests that look like scans. They are still
// served; the mux answers 404 for anything unknown.
func (s *Server) flagProbes(next http.Handler) http.Handler {
	sec := s.logger.WithComponent(log.ComponentSecurity)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			metrics.SuspiciousRequests.Inc()
			sec.WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
