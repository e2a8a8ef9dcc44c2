package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Roster
type MetricsRegistry struct {
	Gatherer prometheus.Gatherer

	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	RankTransitionsTotal      *prometheus.CounterVec
	LifecycleEventsTotal      *prometheus.CounterVec
	NotificationFailuresTotal *prometheus.CounterVec
	GatewayEventsTotal        *prometheus.CounterVec
	AuditEventsTotal          *prometheus.CounterVec
	LockWaitDuration          *prometheus.HistogramVec

	// Job Metrics
	ConfigDriftGuilds *prometheus.GaugeVec
	PendingLifecycle  *prometheus.GaugeVec
	JobRunDuration    *prometheus.HistogramVec
}

// NewMetricsRegistry registers every metric on reg, which is also what
// /metrics serves.
func NewMetricsRegistry(reg *prometheus.Registry) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		Gatherer: reg,

		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roster_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		RankTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_rank_transitions_total",
				Help: "Applied rank transitions by operation and result kind",
			},
			[]string{"action", "kind"},
		),
		LifecycleEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_lifecycle_events_total",
				Help: "Break, resign and comeback events",
			},
			[]string{"event"},
		),
		NotificationFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_notification_failures_total",
				Help: "Direct messages and announcements that could not be delivered",
			},
			[]string{"channel"},
		),
		GatewayEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_gateway_events_total",
				Help: "Gateway commands and button clicks by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		AuditEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_audit_events_total",
				Help: "Audit events by delivery status",
			},
			[]string{"status"},
		),
		LockWaitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_lock_wait_seconds",
				Help:    "Time spent waiting for a per-key lock",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"lock"},
		),

		// Job Metrics
		ConfigDriftGuilds: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roster_config_drift_guilds",
				Help: "Guilds whose stored configuration references missing roles or channels, by check",
			},
			[]string{"check"},
		),
		PendingLifecycle: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "roster_pending_lifecycle_records",
				Help: "Resigned members awaiting a comeback, by record state",
			},
			[]string{"state"},
		),
		JobRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_job_run_duration_seconds",
				Help:    "Duration of background job runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"job"},
		),
	}
}

// NewTestRegistry is a registry backed by a private prometheus registry.
func NewTestRegistry() *MetricsRegistry {
	return NewMetricsRegistry(prometheus.NewRegistry())
}
