// Package metrics exposes Prometheus instrumentation for planner calls, comparisons,
// geocoding and the web dashboard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Planner API
	PlannerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opskit_planner_requests_total",
			Help: "Total number of planner API requests",
		},
		[]string{"endpoint", "status"},
	)

	PlannerRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opskit_planner_request_duration_seconds",
			Help:    "Duration of planner API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Unheard comparisons
	Comparisons = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opskit_comparisons_total",
			Help: "Total number of unheard beacon comparisons",
		},
		[]string{"mode"},
	)

	MissingBeacons = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "opskit_missing_beacons_total",
			Help: "Total number of missing beacon rows reported",
		},
	)

	SkippedEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opskit_skipped_entries_total",
			Help: "Malformed beacon entries skipped during extraction",
		},
		[]string{"source"}, // "recording", "level"
	)

	// Reverse geocoding
	GeocoderLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opskit_geocoder_lookups_total",
			Help: "Reverse geocoding lookups by outcome",
		},
		[]string{"outcome"}, // "found", "not_found", "error", "rejected"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "opskit_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Web dashboard
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opskit_http_requests_total",
			Help: "Total number of dashboard HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opskit_http_request_duration_seconds",
			Help:    "Duration of dashboard HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "opskit_active_sessions",
			Help: "Dashboard sessions currently held in memory",
		},
	)
)

// RecordPlannerRequest records one planner call. status is the HTTP status, or 0 for transport errors.
func RecordPlannerRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	PlannerRequests.WithLabelValues(endpoint, label).Inc()
	PlannerRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordComparison records a finished comparison and the number of rows it reported.
func RecordComparison(mode string, missing int) {
	Comparisons.WithLabelValues(mode).Inc()
	MissingBeacons.Add(float64(missing))
}

// RecordHTTPRequest records one dashboard request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
