// Package metrics provides Prometheus metrics for the trailmark
// progression engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the engine publishes.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Progression metrics
	discoveries          prometheus.Counter
	discoveryDuplicates  prometheus.Counter
	levelUps             prometheus.Counter
	ledgersSynthesized   prometheus.Counter
	reconciliationPicks  *prometheus.CounterVec
	leaderboardSize      prometheus.Gauge
	flushes              prometheus.Counter

	// Realm metrics
	realmWrites      *prometheus.CounterVec
	realmWriteErrors *prometheus.CounterVec
	realmReadErrors  *prometheus.CounterVec

	// Hint metrics
	hintsScheduled prometheus.Counter
	hintsFired     *prometheus.CounterVec
	hintsCancelled prometheus.Counter

	// Ingest metrics
	eventsIngested  prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsDropped   prometheus.Counter
	queueSize       prometheus.Gauge

	// Outbox metrics
	outboxDeliveries prometheus.Counter
	outboxFailures   prometheus.Counter
	outboxPending    prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "trailmark",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.discoveries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "discoveries_total",
		Help: "Total discoveries recorded",
	})
	m.discoveryDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "discovery_duplicates_total",
		Help: "Trigger firings for already-recorded discoveries",
	})
	m.levelUps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "level_ups_total",
		Help: "Edge-triggered level threshold crossings",
	})
	m.ledgersSynthesized = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "ledgers_synthesized_total",
		Help: "Reads where no realm yielded a ledger and a fresh one was created",
	})
	m.reconciliationPicks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "reconciliation_picks_total",
		Help: "Richest-wins reconciliations by winning realm",
	}, []string{"realm"})
	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "leaderboard_size",
		Help: "Entries in the local leaderboard projection",
	})
	m.flushes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "flushes_total",
		Help: "Ledger flushes to the realm store",
	})

	m.realmWrites = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "realm_writes_total",
		Help: "Successful realm writes by realm",
	}, []string{"realm"})
	m.realmWriteErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "realm_write_errors_total",
		Help: "Swallowed realm write failures by realm",
	}, []string{"realm"})
	m.realmReadErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "realm_read_errors_total",
		Help: "Swallowed realm read failures by realm",
	}, []string{"realm"})

	m.hintsScheduled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "hints_scheduled_total",
		Help: "Hint timers scheduled",
	})
	m.hintsFired = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "hints_fired_total",
		Help: "Hints issued by intensity level",
	}, []string{"level"})
	m.hintsCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "hints_cancelled_total",
		Help: "Pending hints cancelled by a discovery",
	})

	m.eventsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_ingested_total",
		Help: "Input events accepted for matching",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_duplicate_total",
		Help: "Input events rejected as transport retries",
	})
	m.eventsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_dropped_total",
		Help: "Input events dropped on queue backpressure",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Input events waiting for the dispatcher",
	})

	m.outboxDeliveries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "outbox_deliveries_total",
		Help: "Analytics notifications delivered",
	})
	m.outboxFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "outbox_failures_total",
		Help: "Analytics notification delivery failures (requeued)",
	})
	m.outboxPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "outbox_pending",
		Help: "Analytics notifications awaiting delivery",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// GetRegistry exposes the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry { return customRegistry }
