// Package metrics exposes the service's Prometheus instrumentation: HTTP
// request counters/latency, prediction timing, found-event counts and TLE
// dataset freshness.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helioselene_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "helioselene_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	predictionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "helioselene_prediction_duration_seconds",
			Help:    "Wall-clock duration of one transit search.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	transitEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helioselene_transit_events_total",
			Help: "Events found by predictions, by classification and body.",
		},
		[]string{"kind", "body"},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "helioselene_tle_dataset_age_seconds",
			Help: "Age of the current TLE dataset.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(predictionDurationSeconds)
	prometheus.MustRegister(transitEventsTotal)
	prometheus.MustRegister(tleDatasetAgeSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePrediction records the duration of one completed search.
func ObservePrediction(d time.Duration) {
	predictionDurationSeconds.Observe(d.Seconds())
}

// CountEvent increments the found-event counter.
func CountEvent(kind, body string) {
	transitEventsTotal.WithLabelValues(kind, body).Inc()
}

// SetTLEDatasetAge updates the dataset freshness gauge.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAgeSeconds.Set(seconds)
}

// normalizeRoute collapses request paths to a bounded label set so scanner
// and bot traffic cannot blow up series cardinality.
func normalizeRoute(path string) string {
	switch path {
	case "/", "/healthz", "/readyz", "/metrics", "/api/v1/transits", "/api/v1/satellites":
		return path
	}
	if strings.HasPrefix(path, "/api/v1/tle/") {
		return "/api/v1/tle/{norad_id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
