// Package metrics provides Prometheus metrics for the rollcall ingestion service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Upload pipeline
	uploadsProcessed  prometheus.Counter
	uploadsFailed     prometheus.Counter
	uploadsDuplicate  prometheus.Counter
	imagesProcessed   prometheus.Counter
	imagesFailed      prometheus.Counter
	recordsExtracted  prometheus.Counter
	duplicatesRemoved *prometheus.CounterVec
	ranksInferred     prometheus.Counter
	namesResolved     *prometheus.CounterVec
	nameCorrections   prometheus.Counter
	pipelineLatency   prometheus.Histogram

	// Ledger
	ledgerOutcomes   *prometheus.CounterVec
	ledgerRows       prometheus.Gauge
	attendanceMarked prometheus.Counter

	// Queue and workers
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge
	workerCount   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rollcall",
		subsystem:        "ingest",
		histogramBuckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      map[string]string{},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.uploadsProcessed = m.counter("uploads_processed_total", "Uploads that ran through the full pipeline")
	m.uploadsFailed = m.counter("uploads_failed_total", "Uploads aborted before reaching the ledger")
	m.uploadsDuplicate = m.counter("uploads_duplicate_total", "Uploads rejected because their session id was already submitted")
	m.imagesProcessed = m.counter("images_processed_total", "Screenshots recognized by the OCR engine")
	m.imagesFailed = m.counter("images_failed_total", "Screenshots skipped after an OCR failure")
	m.recordsExtracted = m.counter("records_extracted_total", "Player records extracted from OCR detections")
	m.duplicatesRemoved = m.counterVec("duplicates_removed_total", "Player records dropped by duplicate resolution", "kind")
	m.ranksInferred = m.counter("ranks_inferred_total", "Ranks filled in from neighbouring records")
	m.namesResolved = m.counterVec("names_resolved_total", "Name correction outcomes", "outcome")
	m.nameCorrections = m.counter("name_corrections_total", "Records whose name differed from the raw OCR text")

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pipeline_latency_milliseconds",
		Help:        "Wall time to process one upload, OCR included",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.ledgerOutcomes = m.counterVec("ledger_outcomes_total", "Event record upsert outcomes", "outcome")
	m.ledgerRows = m.gauge("ledger_rows", "Event records held by the ledger store")
	m.attendanceMarked = m.counter("attendance_marked_total", "Attendance entries created or refreshed")

	m.queueSize = m.gauge("queue_size", "Uploads waiting for a worker")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued uploads")
	m.workerCount = m.gauge("worker_count", "Upload workers running")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")
}

// RecordUploadProcessed counts an upload that reached the ledger and observes its latency.
func RecordUploadProcessed(latencyMs float64) {
	globalManager.uploadsProcessed.Inc()
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordUploadFailed counts an upload aborted before any ledger write.
func RecordUploadFailed() {
	globalManager.uploadsFailed.Inc()
}

// RecordUploadDuplicate counts an upload rejected by session idempotency.
func RecordUploadDuplicate() {
	globalManager.uploadsDuplicate.Inc()
}

// RecordImageProcessed counts one recognized screenshot.
func RecordImageProcessed() {
	globalManager.imagesProcessed.Inc()
}

// RecordImageFailed counts one screenshot skipped after an OCR error.
func RecordImageFailed() {
	globalManager.imagesFailed.Inc()
	globalManager.errorsByComponent.WithLabelValues("ocr", "image_failed").Inc()
}

// AddRecordsExtracted adds to the extracted-record counter.
func AddRecordsExtracted(n int) {
	globalManager.recordsExtracted.Add(float64(n))
}

// AddDuplicatesRemoved adds dropped records for kind ("exact", "fuzzy").
func AddDuplicatesRemoved(kind string, n int) {
	globalManager.duplicatesRemoved.WithLabelValues(kind).Add(float64(n))
}

// AddRanksInferred adds to the inferred-rank counter.
func AddRanksInferred(n int) {
	globalManager.ranksInferred.Add(float64(n))
}

// RecordNameResolved counts a name correction outcome ("matched", "unmatched").
func RecordNameResolved(outcome string) {
	globalManager.namesResolved.WithLabelValues(outcome).Inc()
}

// AddNameCorrections adds to the corrected-name counter.
func AddNameCorrections(n int) {
	globalManager.nameCorrections.Add(float64(n))
}

// AddLedgerOutcome adds n upserts with the given outcome
// ("created", "verified", "improved", "unchanged", "failed").
func AddLedgerOutcome(outcome string, n int) {
	globalManager.ledgerOutcomes.WithLabelValues(outcome).Add(float64(n))
}

// UpdateLedgerRows sets the ledger size gauge.
func UpdateLedgerRows(n int) {
	globalManager.ledgerRows.Set(float64(n))
}

// AddAttendanceMarked adds to the attendance counter.
func AddAttendanceMarked(n int) {
	globalManager.attendanceMarked.Add(float64(n))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent increments the error counter for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
