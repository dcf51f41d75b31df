package observability

import (
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Submit outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	submitsTotal    *prometheus.CounterVec
	searchesTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "adboard_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adboard_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adboard_cache_hits_total",
				Help: "Total query cache hits.",
			},
			[]string{"key"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adboard_cache_misses_total",
				Help: "Total query cache misses.",
			},
			[]string{"key"},
		),
		submitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adboard_dialog_submits_total",
				Help: "Total dialog submits by dialog and outcome.",
			},
			[]string{"dialog", "outcome"},
		),
		searchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adboard_user_searches_total",
				Help: "Total directory searches dispatched after debounce.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter for a query key.
func (m *Metrics) IncrCacheHit(key string) {
	m.cacheHits.WithLabelValues(key).Inc()
}

// IncrCacheMiss increments the cache miss counter for a query key.
func (m *Metrics) IncrCacheMiss(key string) {
	m.cacheMisses.WithLabelValues(key).Inc()
}

// IncrSubmit increments the submit counter for a dialog and outcome.
func (m *Metrics) IncrSubmit(dialog, outcome string) {
	m.submitsTotal.WithLabelValues(dialog, outcome).Inc()
}

// IncrSearch increments the directory search counter.
func (m *Metrics) IncrSearch(outcome string) {
	m.searchesTotal.WithLabelValues(outcome).Inc()
}

// GetDialogSnapshot returns a snapshot of dialog-related metrics suitable
// for the GET /v1/metrics/dialogs endpoint.
func (m *Metrics) GetDialogSnapshot(cacheKeys []string) *domain.DialogMetrics {
	// Gather current values from Prometheus counters.
	// Note: Prometheus counters expose cumulative values.
	depositSubmits := getCounterValue(m.submitsTotal, "deposit", OutcomeSuccess) +
		getCounterValue(m.submitsTotal, "deposit", OutcomeRejected) +
		getCounterValue(m.submitsTotal, "deposit", OutcomeError)
	provisioningSubmits := getCounterValue(m.submitsTotal, "provisioning", OutcomeSuccess) +
		getCounterValue(m.submitsTotal, "provisioning", OutcomeRejected) +
		getCounterValue(m.submitsTotal, "provisioning", OutcomeError)
	failures := getCounterValue(m.submitsTotal, "deposit", OutcomeRejected) +
		getCounterValue(m.submitsTotal, "deposit", OutcomeError) +
		getCounterValue(m.submitsTotal, "provisioning", OutcomeRejected) +
		getCounterValue(m.submitsTotal, "provisioning", OutcomeError)
	searches := getCounterValue(m.searchesTotal, OutcomeSuccess) +
		getCounterValue(m.searchesTotal, OutcomeError)

	var hits, misses float64
	for _, k := range cacheKeys {
		hits += getCounterValue(m.cacheHits, k)
		misses += getCounterValue(m.cacheMisses, k)
	}

	total := depositSubmits + provisioningSubmits
	errorRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		errorRate = failures / total
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.DialogMetrics{
		DepositSubmits:      int64(depositSubmits),
		ProvisioningSubmits: int64(provisioningSubmits),
		SubmitFailures:      int64(failures),
		UserSearches:        int64(searches),
		ErrorRate:           errorRate,
		CacheHitRate:        cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
