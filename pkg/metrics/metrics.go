// Package metrics provides Prometheus metrics for the cabina request board.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Submission outcomes
	submissionsAccepted *prometheus.CounterVec // outcome: created|merged
	submissionsRejected *prometheus.CounterVec // reason: not_accepting|geofence|rate_limited|quota|storage

	// Payment prompt lifecycle
	promptsStarted  prometheus.Counter
	promptsResolved *prometheus.CounterVec // choice: collaborate|decline
	promptsExpired  prometheus.Counter

	// Board state
	boardSubscribers  prometheus.Gauge
	trackedRequests   prometheus.Gauge
	snapshotsCoalesced prometheus.Counter

	// Store health
	storeLatency prometheus.Histogram
	storeErrors  prometheus.Counter

	// Catalog search
	catalogRequests prometheus.Counter
	catalogErrors   prometheus.Counter
	catalogLatency  prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cabina",
		subsystem:        "board",
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
	factory := promauto.With(m.registry)

	m.submissionsAccepted = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_accepted_total",
		Help:      "Accepted submissions by outcome (created or merged).",
	}, []string{"outcome"})

	m.submissionsRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_rejected_total",
		Help:      "Rejected submissions by reason.",
	}, []string{"reason"})

	m.promptsStarted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "payment_prompts_started_total",
		Help:      "Payment prompts raised to submitters.",
	})

	m.promptsResolved = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "payment_prompts_resolved_total",
		Help:      "Payment prompts resolved by choice.",
	}, []string{"choice"})

	m.promptsExpired = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "payment_prompts_expired_total",
		Help:      "Payment prompts abandoned past their deadline.",
	})

	m.boardSubscribers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subscribers",
		Help:      "Currently connected board subscribers.",
	})

	m.trackedRequests = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_requests",
		Help:      "Aggregated requests currently tracked across all events.",
	})

	m.snapshotsCoalesced = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_coalesced_total",
		Help:      "Board snapshots replaced before a slow subscriber consumed them.",
	})

	m.storeLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_ms",
		Help:      "Request store operation latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Request store operation failures.",
	})

	m.catalogRequests = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_requests_total",
		Help:      "Track catalog search requests.",
	})

	m.catalogErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_errors_total",
		Help:      "Track catalog search failures.",
	})

	m.catalogLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_latency_ms",
		Help:      "Track catalog search latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry metrics are collected into.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers operating on the global manager.

func RecordSubmissionAccepted(outcome string) {
	globalManager.submissionsAccepted.WithLabelValues(outcome).Inc()
}

func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

func RecordPromptStarted() {
	globalManager.promptsStarted.Inc()
}

func RecordPromptResolved(choice string) {
	globalManager.promptsResolved.WithLabelValues(choice).Inc()
}

func RecordPromptExpired() {
	globalManager.promptsExpired.Inc()
}

func UpdateBoardSubscribers(n int) {
	globalManager.boardSubscribers.Set(float64(n))
}

func UpdateTrackedRequests(n int) {
	globalManager.trackedRequests.Set(float64(n))
}

func RecordSnapshotCoalesced() {
	globalManager.snapshotsCoalesced.Inc()
}

func RecordStoreLatency(ms float64) {
	globalManager.storeLatency.Observe(ms)
}

func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

func RecordCatalogRequest() {
	globalManager.catalogRequests.Inc()
}

func RecordCatalogError() {
	globalManager.catalogErrors.Inc()
}

func RecordCatalogLatency(ms float64) {
	globalManager.catalogLatency.Observe(ms)
}

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
