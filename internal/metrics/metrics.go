// Package metrics exposes the service's Prometheus instrumentation: HTTP
// request counts and latencies plus gauges for the size of the loaded
// corpus. Collectors live in a private registry so tests can construct
// instances freely.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service collectors behind one registry.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	institutionsLoaded prometheus.Gauge
	samplesLoaded      prometheus.Gauge
}

// New constructs and registers the service collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smcbench_http_requests_total",
				Help: "HTTP requests by route pattern, method and status.",
			},
			[]string{"path", "method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smcbench_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds by route pattern and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		institutionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smcbench_institutions_loaded",
			Help: "Number of institutions in the loaded corpus.",
		}),
		samplesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smcbench_samples_loaded",
			Help: "Number of samples in the loaded corpus.",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.institutionsLoaded, m.samplesLoaded)
	return m
}

// SetLoaded records the size of the loaded corpus.
func (m *Metrics) SetLoaded(institutions, samples int) {
	m.institutionsLoaded.Set(float64(institutions))
	m.samplesLoaded.Set(float64(samples))
}

// Middleware instruments next. The path label uses the matched route
// pattern, not the raw URL, to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		path := routeLabel(r)
		m.latency.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// routeLabel prefers the mux pattern filled in during routing; unrouted
// requests collapse into one label.
func routeLabel(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return "unmatched"
	}
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	return pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
