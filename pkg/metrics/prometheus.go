// Package metrics provides Prometheus metrics for the engagement pulse service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collection cycle outcomes used as label values.
const (
	CycleNotTeachingDay = "not_teaching_day"
	CycleBreakWeek      = "break_or_summative"
	CycleFired          = "fired"
	CycleIdle           = "idle"
	CycleFailed         = "failed"
)

// Manager owns every collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Aggregation
	summariesComputed prometheus.Counter
	summaryLatency    prometheus.Histogram
	invalidRecords    *prometheus.CounterVec
	studentsTracked   prometheus.Gauge

	// Rating ingestion
	ratingsAccepted  prometheus.Counter
	ratingsDuplicate prometheus.Counter
	ratingsAppended  prometheus.Counter
	ratingsFailed    prometheus.Counter
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	workerCount      prometheus.Gauge

	// Collection cycles
	collectionCycles  *prometheus.CounterVec
	notificationsSent prometheus.Counter
	notifyFailures    prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByComponent   *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager registered on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pulse",
		subsystem:        "engagement",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.summariesComputed = m.counter("summaries_computed_total", "Total number of engagement summaries computed")
	m.summaryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "summary_batch_latency_milliseconds",
		Help:      "Time to load stores and compute one batch of summaries",
		Buckets:   m.histogramBuckets,
	})
	m.invalidRecords = m.counterVec("invalid_records_total", "Source records skipped because a field was not usable", "source")
	m.studentsTracked = m.gauge("students_tracked", "Number of students in the last computed dashboard")

	m.ratingsAccepted = m.counter("ratings_accepted_total", "Rating submissions accepted for ingestion")
	m.ratingsDuplicate = m.counter("ratings_duplicate_total", "Rating submissions dropped as duplicates")
	m.ratingsAppended = m.counter("ratings_appended_total", "Ratings appended to the ratings store")
	m.ratingsFailed = m.counter("ratings_append_failures_total", "Ratings that could not be appended")
	m.queueSize = m.gauge("queue_size", "Pending rating submissions")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the rating submission queue")
	m.workerCount = m.gauge("worker_count", "Number of ingestion workers")

	m.collectionCycles = m.counterVec("collection_cycles_total", "Collection cycles by outcome", "outcome")
	m.notificationsSent = m.counter("notifications_sent_total", "Collection requests delivered to the notifier")
	m.notifyFailures = m.counter("notification_failures_total", "Collection requests the notifier rejected")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordSummariesComputed adds n computed summaries.
func RecordSummariesComputed(n int) {
	globalManager.summariesComputed.Add(float64(n))
}

// RecordSummaryLatency observes the latency of one summary batch.
func RecordSummaryLatency(latencyMs float64) {
	globalManager.summaryLatency.Observe(latencyMs)
}

// RecordInvalidRecords adds n skipped records for the given source ("ratings" or "metrics").
func RecordInvalidRecords(source string, n int) {
	if n <= 0 {
		return
	}
	globalManager.invalidRecords.WithLabelValues(source).Add(float64(n))
}

// UpdateStudentsTracked sets the tracked students gauge.
func UpdateStudentsTracked(n int) {
	globalManager.studentsTracked.Set(float64(n))
}

// RecordRatingAccepted increments the accepted ratings counter.
func RecordRatingAccepted() {
	globalManager.ratingsAccepted.Inc()
}

// RecordRatingDuplicate increments the duplicate ratings counter.
func RecordRatingDuplicate() {
	globalManager.ratingsDuplicate.Inc()
}

// RecordRatingAppended increments the appended ratings counter.
func RecordRatingAppended() {
	globalManager.ratingsAppended.Inc()
}

// RecordRatingFailed increments the failed appends counter.
func RecordRatingFailed() {
	globalManager.ratingsFailed.Inc()
}

// UpdateQueueSize sets the pending submissions gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordCollectionCycle counts one collection cycle with its outcome.
func RecordCollectionCycle(outcome string) {
	globalManager.collectionCycles.WithLabelValues(outcome).Inc()
}

// RecordNotificationSent counts one delivered collection request.
func RecordNotificationSent() {
	globalManager.notificationsSent.Inc()
}

// RecordNotificationFailure counts one failed collection request.
func RecordNotificationFailure() {
	globalManager.notifyFailures.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry the service metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
