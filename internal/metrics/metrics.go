// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthEvents counts auth state machine transitions by event and outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocki",
		Name:      "auth_events_total",
		Help:      "Authentication events by event and outcome.",
	}, []string{"event", "outcome"})

	// MovementsRecorded counts committed stock movements by type.
	MovementsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocki",
		Name:      "movements_recorded_total",
		Help:      "Stock movements committed to the ledger.",
	}, []string{"type"})

	// LedgerFailures counts movement writes that were rolled back.
	LedgerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "stocki",
		Name:      "ledger_failures_total",
		Help:      "Movement transactions that failed and were rolled back.",
	})

	// NotifierFailures counts failed code deliveries by kind.
	NotifierFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocki",
		Name:      "notifier_failures_total",
		Help:      "Failed one-time code deliveries.",
	}, []string{"kind"})

	// RateLimited counts requests rejected by the limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocki",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"route"})

	// HTTPRequests counts served requests.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stocki",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stocki",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
