// Package metrics provides Prometheus metrics for the CollegePath service.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const defaultRefreshInterval = 10 * time.Second

// Buckets for the number of colleges returned per recommendation (0..6+).
var resultSizeBuckets = []float64{0, 1, 2, 3, 4, 5, 6} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Recommendation metrics
	recommendations       *prometheus.CounterVec
	recommendationLatency prometheus.Histogram
	resultSize            prometheus.Histogram
	emptyResults          prometheus.Counter
	invalidInputs         *prometheus.CounterVec
	matchScore            prometheus.Histogram

	// Batch pipeline metrics
	batchesSubmitted  prometheus.Counter
	batchesDuplicate  prometheus.Counter
	batchesRejected   *prometheus.CounterVec
	batchesCompleted  prometheus.Counter
	batchItems        *prometheus.CounterVec
	batchLatency      prometheus.Histogram
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueUtilization  prometheus.Gauge
	workerCount       prometheus.Gauge
	workerBusy        prometheus.Gauge
	storedResults     prometheus.Gauge
	evictedResults    prometheus.Counter
	catalogSize       prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "collegepath",
		subsystem:        "recommender",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether recorders write to the collectors.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.recommendations = m.counterVec("recommendations_total", "Recommendations served, by student stream", "stream")
	m.recommendationLatency = m.histogram("recommendation_latency_milliseconds", "Time spent scoring one profile", m.histogramBuckets)
	m.resultSize = m.histogram("recommendation_result_size", "Number of colleges returned per recommendation", resultSizeBuckets)
	m.emptyResults = m.counter("recommendation_empty_total", "Recommendations with no college matching the stream")
	m.invalidInputs = m.counterVec("invalid_input_total", "Profiles rejected at the boundary, by field", "field")
	m.matchScore = m.histogram("match_score", "Distribution of returned match percentages", prometheus.LinearBuckets(10, 10, 10))

	m.batchesSubmitted = m.counter("batches_submitted_total", "Batches accepted for asynchronous scoring")
	m.batchesDuplicate = m.counter("batches_duplicate_total", "Batch submissions replayed with a known request id")
	m.batchesRejected = m.counterVec("batches_rejected_total", "Batch submissions refused, by reason", "reason")
	m.batchesCompleted = m.counter("batches_completed_total", "Batches fully scored by the worker pool")
	m.batchItems = m.counterVec("batch_items_total", "Batch items processed, by outcome", "outcome")
	m.batchLatency = m.histogram("batch_latency_milliseconds", "Time from dequeue to completion of a batch", m.histogramBuckets)
	m.queueSize = m.gauge("queue_size", "Batches waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued batches")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.workerCount = m.gauge("worker_count", "Workers in the batch pool")
	m.workerBusy = m.gauge("worker_busy", "Workers currently scoring a batch")
	m.storedResults = m.gauge("stored_results", "Batch results held in memory")
	m.evictedResults = m.counter("evicted_results_total", "Batch results dropped to respect retention")
	m.catalogSize = m.gauge("catalog_size", "Colleges in the compiled-in catalog")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name("http_request_duration_milliseconds"),
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint and error type", "endpoint", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Live goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause", m.histogramBuckets)
}

// GetRegistry returns the registry backing the package-level recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Register attaches extra collectors to the service registry.
func Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := customRegistry.Register(c); err != nil {
			return fmt.Errorf("%w: %w", ErrRegister, err)
		}
	}
	return nil
}

// Recommendation recorders.

// RecordRecommendation records one served recommendation.
func RecordRecommendation(stream string, resultSize int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.recommendations.WithLabelValues(stream).Inc()
	globalManager.resultSize.Observe(float64(resultSize))
	globalManager.recommendationLatency.Observe(latencyMs)
	if resultSize == 0 {
		globalManager.emptyResults.Inc()
	}
}

// RecordMatchScore observes a returned match percentage.
func RecordMatchScore(match int) {
	if !globalManager.enabled {
		return
	}
	globalManager.matchScore.Observe(float64(match))
}

// RecordInvalidInput counts a rejected profile field.
func RecordInvalidInput(field string) {
	if !globalManager.enabled {
		return
	}
	globalManager.invalidInputs.WithLabelValues(field).Inc()
}

// UpdateCatalogSize sets the catalog size gauge.
func UpdateCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

// Batch pipeline recorders.

// RecordBatchSubmitted counts an accepted batch.
func RecordBatchSubmitted() { globalManager.batchesSubmitted.Inc() }

// RecordBatchDuplicate counts a replayed batch submission.
func RecordBatchDuplicate() { globalManager.batchesDuplicate.Inc() }

// RecordBatchRejected counts a refused batch submission.
func RecordBatchRejected(reason string) { globalManager.batchesRejected.WithLabelValues(reason).Inc() }

// RecordBatchCompleted counts a finished batch and its processing latency.
func RecordBatchCompleted(latencyMs float64) {
	globalManager.batchesCompleted.Inc()
	globalManager.batchLatency.Observe(latencyMs)
}

// RecordBatchItem counts a processed batch item by outcome ("scored" or "invalid").
func RecordBatchItem(outcome string) { globalManager.batchItems.WithLabelValues(outcome).Inc() }

// UpdateQueueSize sets the current queue length and utilization.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// UpdateWorkerCount sets the pool size gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// AddWorkerBusy adjusts the busy-worker gauge by delta.
func AddWorkerBusy(delta int) { globalManager.workerBusy.Add(float64(delta)) }

// UpdateStoredResults sets the number of retained batch results.
func UpdateStoredResults(count int) { globalManager.storedResults.Set(float64(count)) }

// RecordEvictedResult counts a batch result dropped by retention.
func RecordEvictedResult() { globalManager.evictedResults.Inc() }

// HTTP recorders.

// RecordHTTPRequest records a request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// System recorders.

// UpdateSystemMemoryUsage sets the heap allocation gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }
