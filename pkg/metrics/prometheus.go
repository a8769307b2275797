// Package metrics provides Prometheus metrics for the ingestion and
// ranking pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the Prometheus collectors for one pipeline process.
type Manager struct {
	namespace string
	subsystem string
	enabled   bool
	registry  *prometheus.Registry

	// Fetch client metrics.
	fetchAttempts   prometheus.Counter
	fetchRetries    prometheus.Counter
	fetchFailures   prometheus.Counter
	rateLimitWaits  prometheus.Counter
	rateLimitSlept  prometheus.Counter
	cacheFallbacks  prometheus.Counter

	// Repository and processing metrics.
	runsFetched   prometheus.Counter
	runsVerified  prometheus.Gauge
	playerLookups *prometheus.CounterVec

	// Pipeline metrics.
	refreshes        *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "runboard",
		subsystem: "pipeline",
		enabled:   true,
		registry:  prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      name,
			Help:      help,
		})
		m.registry.MustRegister(c)
		return c
	}

	m.fetchAttempts = factory("fetch_attempts_total", "HTTP fetch attempts made against the remote API.")
	m.fetchRetries = factory("fetch_retries_total", "Fetch attempts that were retried after a failure.")
	m.fetchFailures = factory("fetch_failures_total", "Fetches that exhausted retries with no cache fallback.")
	m.rateLimitWaits = factory("rate_limit_waits_total", "Waits honoring a 429 Retry-After response.")
	m.rateLimitSlept = factory("rate_limit_slept_seconds_total", "Total seconds slept honoring Retry-After.")
	m.cacheFallbacks = factory("cache_fallbacks_total", "Fetches served from a stale disk cache after retries were exhausted.")
	m.runsFetched = factory("runs_fetched_total", "Raw run records fetched from the remote API.")

	m.runsVerified = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_verified",
		Help:      "Verified runs in the merged set after the latest refresh.",
	})
	m.registry.MustRegister(m.runsVerified)

	m.playerLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "player_lookups_total",
		Help:      "Player name lookups by outcome.",
	}, []string{"outcome"})
	m.registry.MustRegister(m.playerLookups)

	m.refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "refreshes_total",
		Help:      "Refresh invocations by outcome.",
	}, []string{"outcome"})
	m.registry.MustRegister(m.refreshes)

	m.pipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duration_seconds",
		Help:      "Wall time of a full refresh pipeline run.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	m.registry.MustRegister(m.pipelineDuration)
}

// Handler serves the manager's registry over HTTP.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers recording into the global manager.

// RecordFetchAttempt counts one HTTP attempt.
func RecordFetchAttempt() {
	if globalManager.enabled {
		globalManager.fetchAttempts.Inc()
	}
}

// RecordFetchRetry counts one retried attempt.
func RecordFetchRetry() {
	if globalManager.enabled {
		globalManager.fetchRetries.Inc()
	}
}

// RecordFetchFailure counts a fetch that failed with no fallback.
func RecordFetchFailure() {
	if globalManager.enabled {
		globalManager.fetchFailures.Inc()
	}
}

// RecordRateLimitWait counts one Retry-After wait of the given length.
func RecordRateLimitWait(seconds float64) {
	if globalManager.enabled {
		globalManager.rateLimitWaits.Inc()
		globalManager.rateLimitSlept.Add(seconds)
	}
}

// RecordCacheFallback counts a fetch served from stale cache.
func RecordCacheFallback() {
	if globalManager.enabled {
		globalManager.cacheFallbacks.Inc()
	}
}

// RecordRunsFetched counts raw records obtained from the API.
func RecordRunsFetched(n int) {
	if globalManager.enabled {
		globalManager.runsFetched.Add(float64(n))
	}
}

// UpdateVerifiedRuns sets the size of the latest verified set.
func UpdateVerifiedRuns(n int) {
	if globalManager.enabled {
		globalManager.runsVerified.Set(float64(n))
	}
}

// RecordPlayerLookup counts a player name lookup by outcome
// ("cached", "resolved" or "failed").
func RecordPlayerLookup(outcome string) {
	if globalManager.enabled {
		globalManager.playerLookups.WithLabelValues(outcome).Inc()
	}
}

// RecordRefresh counts a refresh invocation by outcome
// ("refreshed", "cooldown" or "failed").
func RecordRefresh(outcome string) {
	if globalManager.enabled {
		globalManager.refreshes.WithLabelValues(outcome).Inc()
	}
}

// ObservePipelineDuration records the wall time of a refresh.
func ObservePipelineDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.pipelineDuration.Observe(seconds)
	}
}

// Handler serves the global registry over HTTP.
func Handler() http.Handler {
	return globalManager.Handler()
}
