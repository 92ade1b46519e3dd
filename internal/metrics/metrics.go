// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fondo_http_requests_total",
		Help: "HTTP requests by route and status class.",
	}, []string{"route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fondo_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	SummaryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fondo_summary_duration_seconds",
		Help:    "Time spent filtering and aggregating one request.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	FilteredRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fondo_filtered_records",
		Help:    "Records left after applying the request criteria.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	DatasetRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fondo_dataset_records",
		Help: "Records in the loaded dataset.",
	})

	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fondo_dataset_loads_total",
		Help: "Dataset reads by outcome.",
	}, []string{"result"})

	DatasetLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fondo_dataset_load_duration_seconds",
		Help:    "Time spent reading the dataset source.",
		Buckets: prometheus.DefBuckets,
	})

	ChartsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fondo_charts_rendered_total",
		Help: "Chart requests by view and outcome.",
	}, []string{"view", "result"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fondo_exports_total",
		Help: "XLSX exports by outcome.",
	}, []string{"result"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fondo_rate_limited_total",
		Help: "Requests refused by the export rate limiter.",
	})

	SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fondo_suspicious_requests_total",
		Help: "Requests that looked like vulnerability probes.",
	})
)

// ObserveLoad records one read of the dataset source.
func ObserveLoad(records int, took time.Duration, err error) {
	DatasetLoadDuration.Observe(took.Seconds())
	if err != nil {
		DatasetLoads.WithLabelValues("error").Inc()
		return
	}
	DatasetLoads.WithLabelValues("ok").Inc()
	DatasetRecords.Set(float64(records))
}

// ObserveSummary records one recomputation.
func ObserveSummary(records int, took time.Duration) {
	SummaryDuration.Observe(took.Seconds())
	FilteredRecords.Observe(float64(records))
}

// StatusClass buckets an HTTP status code as "2xx", "4xx" and so on.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
