// Package metrics provides Prometheus metrics for creator-trends.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts freshness decisions per resource.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatortrends",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)

	// Admissions counts usage gate decisions per route.
	Admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatortrends",
			Name:      "admissions_total",
			Help:      "Usage gate decisions by route and outcome",
		},
		[]string{"route", "outcome"},
	)

	// UpstreamErrors counts failed provider calls.
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatortrends",
			Name:      "upstream_errors_total",
			Help:      "Failed upstream provider calls by operation",
		},
		[]string{"operation"},
	)

	// AlertsSent counts rising-keyword notifications.
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatortrends",
			Name:      "alerts_total",
			Help:      "Rising keyword notifications by status",
		},
		[]string{"status"},
	)

	// HTTPRequests counts served requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creatortrends",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPDuration measures request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creatortrends",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// RecordCache records a cache hit or miss for resource.
func RecordCache(resource string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookups.WithLabelValues(resource, outcome).Inc()
}

// RecordAdmission records a usage gate decision.
func RecordAdmission(route string, admitted bool) {
	outcome := "denied"
	if admitted {
		outcome = "admitted"
	}
	Admissions.WithLabelValues(route, outcome).Inc()
}

// RecordUpstreamError records a failed provider call.
func RecordUpstreamError(operation string) {
	UpstreamErrors.WithLabelValues(operation).Inc()
}

// RecordAlert records a notification attempt.
func RecordAlert(status string) {
	AlertsSent.WithLabelValues(status).Inc()
}

// RecordHTTP records one served request.
func RecordHTTP(route, method, status string, seconds float64) {
	HTTPRequests.WithLabelValues(route, method, status).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(seconds)
}
