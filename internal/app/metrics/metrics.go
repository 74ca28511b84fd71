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
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "harmony",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harmony",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "harmony",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	loadRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "harmony",
			Subsystem: "load",
			Name:      "runs_total",
			Help:      "Total number of data loads by result.",
		},
		[]string{"result"},
	)

	loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "harmony",
			Subsystem: "load",
			Name:      "duration_seconds",
			Help:      "Duration of data loads.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	loadRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "harmony",
			Subsystem: "load",
			Name:      "records",
			Help:      "Documents written per collection by the last successful load.",
		},
		[]string{"collection"},
	)

	loadOrphans = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "harmony",
			Subsystem: "load",
			Name:      "orphans",
			Help:      "Records without a parent in the last successful load.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		loadRuns,
		loadDuration,
		loadRecords,
		loadOrphans,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InFlight increments the in-flight gauge and returns its decrement.
func InFlight() func() {
	httpInFlight.Inc()
	return httpInFlight.Dec
}

// ObserveHTTPRequest records one finished request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLoad records the outcome of a data load.
func RecordLoad(success bool, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	result := "failure"
	if success {
		result = "success"
	}
	loadRuns.WithLabelValues(result).Inc()
	loadDuration.Observe(duration.Seconds())
}

// SetLoadRecords publishes the document count written to collection.
func SetLoadRecords(collection string, n int) {
	loadRecords.WithLabelValues(collection).Set(float64(n))
}

// SetLoadOrphans publishes the orphan count of kind ("posts" or "comments").
func SetLoadOrphans(kind string, n int) {
	loadOrphans.WithLabelValues(kind).Set(float64(n))
}

// CanonicalRoute maps a request path to a low-cardinality route label.
func CanonicalRoute(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		return "static"
	}
	switch {
	case len(parts) == 2 && (parts[1] == "load" || parts[1] == "users"):
		return "/api/" + parts[1]
	case len(parts) == 3 && parts[1] == "users" && isDigits(parts[2]):
		return "/api/users/{id}"
	}
	return "/api/unmatched"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
