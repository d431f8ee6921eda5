// Package metrics provides Prometheus metrics for the paddock session service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	computeBuckets   []float64
	registry         prometheus.Registerer

	// Ingestion
	payloadLoads        *prometheus.CounterVec
	recoveryAttempts    *prometheus.CounterVec
	normalizeWarnings   *prometheus.CounterVec
	eventsLoaded        prometheus.Gauge
	ingestLatency       prometheus.Histogram
	repairCandidatesHit prometheus.Histogram

	// Result cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheJoins         prometheus.Counter
	cacheComputes      prometheus.Counter
	cacheComputeErrors prometheus.Counter
	cacheEntries       prometheus.Gauge
	computeLatency     prometheus.Histogram

	// Scheduler
	autoSwitches   *prometheus.CounterVec
	staleDiscards  prometheus.Counter
	tickLatency    prometheus.Histogram
	currentIndex   prometheus.Gauge
	secondsToStart prometheus.Gauge

	// Collaborators
	weatherLookups *prometheus.CounterVec

	// Queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueued     prometheus.Counter
	queueRejected     *prometheus.CounterVec
	workerCount       prometheus.Gauge
	workerJobs        *prometheus.CounterVec
	workerJobDuration prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry the
// collectors are registered on prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "paddock",
		subsystem:        "session",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		computeBuckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.payloadLoads = m.counterVec("payload_loads_total", "Payload loads by outcome (ok, recovery_error, shape_error)", "outcome")
	m.recoveryAttempts = m.counterVec("recovery_success_total", "Successful payload recoveries by strategy", "strategy")
	m.normalizeWarnings = m.counterVec("normalize_warnings_total", "Field coercion warnings by field", "field")
	m.eventsLoaded = m.gauge("events_loaded", "Number of events in the current event set")
	m.ingestLatency = m.histogram("ingest_latency_milliseconds", "Recovery + normalization latency in milliseconds", m.histogramBuckets)
	m.repairCandidatesHit = m.histogram("repair_candidates", "Backward-repair candidates tried before success", []float64{1, 2, 3, 5, 10, 20, 50})

	m.cacheHits = m.counter("cache_hits_total", "Result cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Result cache misses and forced bypasses")
	m.cacheJoins = m.counter("cache_inflight_joins_total", "Calls that reused an in-flight computation")
	m.cacheComputes = m.counter("cache_computes_total", "Computations started by the result cache")
	m.cacheComputeErrors = m.counter("cache_compute_errors_total", "Computations that failed")
	m.cacheEntries = m.gauge("cache_entries", "Entries held by the result cache")
	m.computeLatency = m.histogram("compute_latency_milliseconds", "Per-event analysis latency in milliseconds", m.computeBuckets)

	m.autoSwitches = m.counterVec("auto_switches_total", "Scheduler auto-advances by trigger kind (window, catch_up)", "kind")
	m.staleDiscards = m.counter("stale_discards_total", "Completions discarded because their event set was superseded")
	m.tickLatency = m.histogram("tick_latency_milliseconds", "Scheduler tick evaluation latency in milliseconds", []float64{0.05, 0.1, 0.5, 1, 5, 10, 50})
	m.currentIndex = m.gauge("current_index", "Index of the current event (-1 when idle)")
	m.secondsToStart = m.gauge("seconds_to_start", "Seconds until the current event starts (negative once started)")

	m.weatherLookups = m.counterVec("weather_lookups_total", "Weather lookups by outcome", "outcome")

	m.queueSize = m.gauge("queue_size", "Analysis jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Analysis job queue capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Analysis jobs enqueued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Analysis jobs rejected by reason", "reason")
	m.workerCount = m.gauge("worker_count", "Analysis workers running")
	m.workerJobs = m.counterVec("worker_jobs_total", "Analysis jobs completed by outcome", "outcome")
	m.workerJobDuration = m.histogram("worker_job_duration_milliseconds", "Analysis job duration in milliseconds", m.computeBuckets)

	m.httpRequests = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordPayloadLoad counts a load attempt by outcome.
func RecordPayloadLoad(outcome string) { globalManager.payloadLoads.WithLabelValues(outcome).Inc() }

// RecordRecovery counts a successful recovery by strategy name.
func RecordRecovery(strategy string) { globalManager.recoveryAttempts.WithLabelValues(strategy).Inc() }

// RecordRepairCandidates observes how many repair candidates were tried.
func RecordRepairCandidates(n int) { globalManager.repairCandidatesHit.Observe(float64(n)) }

// RecordNormalizeWarning counts a field coercion warning.
func RecordNormalizeWarning(field string) {
	globalManager.normalizeWarnings.WithLabelValues(field).Inc()
}

// UpdateEventsLoaded sets the current event count.
func UpdateEventsLoaded(n int) { globalManager.eventsLoaded.Set(float64(n)) }

// RecordIngestLatency observes recovery + normalization latency.
func RecordIngestLatency(ms float64) { globalManager.ingestLatency.Observe(ms) }

// RecordCacheHit counts a cache hit.
func RecordCacheHit() { globalManager.cacheHits.Inc() }

// RecordCacheMiss counts a miss or forced bypass.
func RecordCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordCacheJoin counts a call that reused an in-flight computation.
func RecordCacheJoin() { globalManager.cacheJoins.Inc() }

// RecordCacheCompute counts a started computation.
func RecordCacheCompute() { globalManager.cacheComputes.Inc() }

// RecordCacheComputeError counts a failed computation.
func RecordCacheComputeError() { globalManager.cacheComputeErrors.Inc() }

// UpdateCacheEntries sets the number of cached results.
func UpdateCacheEntries(n int) { globalManager.cacheEntries.Set(float64(n)) }

// RecordComputeLatency observes a computation latency.
func RecordComputeLatency(ms float64) { globalManager.computeLatency.Observe(ms) }

// RecordAutoSwitch counts an auto-advance; kind is "window" or "catch_up".
func RecordAutoSwitch(kind string) { globalManager.autoSwitches.WithLabelValues(kind).Inc() }

// RecordStaleDiscard counts a discarded stale completion.
func RecordStaleDiscard() { globalManager.staleDiscards.Inc() }

// RecordTickLatency observes a tick evaluation latency.
func RecordTickLatency(ms float64) { globalManager.tickLatency.Observe(ms) }

// UpdateCurrentIndex sets the current event index.
func UpdateCurrentIndex(i int) { globalManager.currentIndex.Set(float64(i)) }

// UpdateSecondsToStart sets the countdown of the current event.
func UpdateSecondsToStart(s float64) { globalManager.secondsToStart.Set(s) }

// RecordWeatherLookup counts a weather lookup by outcome.
func RecordWeatherLookup(outcome string) { globalManager.weatherLookups.WithLabelValues(outcome).Inc() }

// UpdateQueueSize sets the pending job count.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueRejected counts a rejected job.
func RecordQueueRejected(reason string) { globalManager.queueRejected.WithLabelValues(reason).Inc() }

// UpdateWorkerCount sets the running worker count.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerJob counts a finished job by outcome.
func RecordWorkerJob(outcome string) { globalManager.workerJobs.WithLabelValues(outcome).Inc() }

// RecordWorkerJobDuration observes a job duration.
func RecordWorkerJobDuration(ms float64) { globalManager.workerJobDuration.Observe(ms) }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// GetRegistry returns the registry that holds every collector.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
