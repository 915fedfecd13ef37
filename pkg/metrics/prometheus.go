// Package metrics provides Prometheus metrics for the pedbp service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Evaluation
	rowsEvaluated     *prometheus.CounterVec
	ageParses         *prometheus.CounterVec
	mappingFallbacks  *prometheus.CounterVec
	missingColumns    prometheus.Counter
	evaluationLatency prometheus.Histogram
	batchRows         prometheus.Histogram

	// Jobs
	jobQueueSize     prometheus.Gauge
	jobQueueCapacity prometheus.Gauge
	jobsEnqueued     prometheus.Counter
	jobEnqueueErrors *prometheus.CounterVec
	jobsFinished     *prometheus.CounterVec
	jobLatency       prometheus.Histogram
	jobsDuplicate    prometheus.Counter
	jobStoreSize     prometheus.Gauge
	workerCount      prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestRows     *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out of /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pedbp",
		subsystem:        "classifier",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      prometheus.Labels{},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.rowsEvaluated = m.counterVec("rows_evaluated_total", "Rows classified, by resulting category", "category")
	m.ageParses = m.counterVec("age_parse_total", "Age parse outcomes by matched form", "form")
	m.mappingFallbacks = m.counterVec("mapping_fallback_total", "Column resolutions that fell back to the other language set", "language")
	m.missingColumns = m.counter("missing_columns_total", "Evaluations rejected because required columns were absent")
	m.evaluationLatency = m.histogram("evaluation_latency_milliseconds", "Latency of one batch evaluation in milliseconds", m.histogramBuckets)
	m.batchRows = m.histogram("batch_rows", "Number of rows per evaluated batch", prometheus.ExponentialBuckets(1, 4, 10))

	m.jobQueueSize = m.gauge("job_queue_size", "Jobs waiting in the queue")
	m.jobQueueCapacity = m.gauge("job_queue_capacity", "Capacity of the job queue")
	m.jobsEnqueued = m.counter("jobs_enqueued_total", "Jobs accepted onto the queue")
	m.jobEnqueueErrors = m.counterVec("job_enqueue_errors_total", "Jobs rejected by the queue", "reason")
	m.jobsFinished = m.counterVec("jobs_finished_total", "Jobs finished by terminal status", "status")
	m.jobLatency = m.histogram("job_latency_milliseconds", "Time from dequeue to completion in milliseconds", m.histogramBuckets)
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Job submissions rejected as duplicates of an existing job id")
	m.jobStoreSize = m.gauge("job_store_size", "Jobs held in the result store")
	m.workerCount = m.gauge("worker_count", "Number of job workers")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestRows = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_rows",
		Help:    "Dataset rows carried by evaluate and job requests",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"endpoint", "outcome"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "error_latency_milliseconds",
		Help:    "Latency of operations that ended in an error, in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordRowEvaluated counts one classified row.
func (m *Manager) RecordRowEvaluated(category string) {
	if m.enabled {
		m.rowsEvaluated.WithLabelValues(category).Inc()
	}
}

// RecordAgeParse counts one age parse outcome.
func (m *Manager) RecordAgeParse(form string) {
	if m.enabled {
		m.ageParses.WithLabelValues(form).Inc()
	}
}

// RecordMappingFallback counts a column resolution that used the fallback set.
func (m *Manager) RecordMappingFallback(language string) {
	if m.enabled {
		m.mappingFallbacks.WithLabelValues(language).Inc()
	}
}

// RecordMissingColumns counts an evaluation rejected for missing columns.
func (m *Manager) RecordMissingColumns() {
	if m.enabled {
		m.missingColumns.Inc()
	}
}

// RecordEvaluation observes one batch evaluation.
func (m *Manager) RecordEvaluation(rows int, latencyMs float64) {
	if m.enabled {
		m.batchRows.Observe(float64(rows))
		m.evaluationLatency.Observe(latencyMs)
	}
}

// Package-level recorders delegate to the global manager.

func RecordRowEvaluated(category string)           { globalManager.RecordRowEvaluated(category) }
func RecordAgeParse(form string)                   { globalManager.RecordAgeParse(form) }
func RecordMappingFallback(language string)        { globalManager.RecordMappingFallback(language) }
func RecordMissingColumns()                        { globalManager.RecordMissingColumns() }
func RecordEvaluation(rows int, latencyMs float64) { globalManager.RecordEvaluation(rows, latencyMs) }
func UpdateJobQueueSize(size int)                  { globalManager.jobQueueSize.Set(float64(size)) }
func UpdateJobQueueCapacity(capacity int)          { globalManager.jobQueueCapacity.Set(float64(capacity)) }
func RecordJobEnqueued()                           { globalManager.jobsEnqueued.Inc() }
func RecordJobEnqueueError(reason string)          { globalManager.jobEnqueueErrors.WithLabelValues(reason).Inc() }
func RecordJobFinished(status string)              { globalManager.jobsFinished.WithLabelValues(status).Inc() }
func RecordJobLatency(latencyMs float64)           { globalManager.jobLatency.Observe(latencyMs) }
func RecordJobDuplicate()                          { globalManager.jobsDuplicate.Inc() }
func UpdateJobStoreSize(size int)                  { globalManager.jobStoreSize.Set(float64(size)) }
func UpdateWorkerCount(count int)                  { globalManager.workerCount.Set(float64(count)) }
func RecordErrorByComponent(component, errType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errType).Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes HTTP request latency.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPRequestRows observes the dataset size of one request.
func RecordHTTPRequestRows(endpoint, outcome string, rows int) {
	globalManager.httpRequestRows.WithLabelValues(endpoint, outcome).Observe(float64(rows))
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency observes the latency of an operation that failed.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
