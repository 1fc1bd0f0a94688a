package harvest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the harvester.
type Metrics struct {
	Registry          *prometheus.Registry
	HarvestsTotal     *prometheus.CounterVec
	HarvestDuration   prometheus.Histogram
	CandidatesTotal   prometheus.Counter
	StrategyWins      *prometheus.CounterVec
	FetchRetriesTotal prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	CacheHitsTotal    prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	harvests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_harvests_total",
			Help: "Total harvest runs by target site.",
		},
		[]string{"site"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "harvester_harvest_duration_seconds",
			Help:    "End-to-end harvest latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	candidates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_candidates_total",
			Help: "Total ranked candidates returned to callers.",
		},
	)
	strategies := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_extraction_strategy_total",
			Help: "Winning extraction strategy per harvest.",
		},
		[]string{"strategy"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_fetch_retries_total",
			Help: "Total fetch retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvester_errors_total",
			Help: "Total fetch errors by category.",
		},
		[]string{"category"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "harvester_cache_hits_total",
			Help: "Harvests served from the result cache.",
		},
	)

	registry.MustRegister(harvests, duration, candidates, strategies, retries, errorsTotal, cacheHits)

	return &Metrics{
		Registry:          registry,
		HarvestsTotal:     harvests,
		HarvestDuration:   duration,
		CandidatesTotal:   candidates,
		StrategyWins:      strategies,
		FetchRetriesTotal: retries,
		ErrorsTotal:       errorsTotal,
		CacheHitsTotal:    cacheHits,
	}
}

// IncHarvest increments the harvest counter for a site.
func (m *Metrics) IncHarvest(site string) {
	if m == nil {
		return
	}
	m.HarvestsTotal.WithLabelValues(site).Inc()
}

// ObserveDuration records one harvest duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.HarvestDuration.Observe(d.Seconds())
}

// AddCandidates adds to the returned-candidates counter.
func (m *Metrics) AddCandidates(n int) {
	if m == nil {
		return
	}
	m.CandidatesTotal.Add(float64(n))
}

// IncStrategy increments the winning-strategy counter.
func (m *Metrics) IncStrategy(strategy string) {
	if m == nil || strategy == "" {
		return
	}
	m.StrategyWins.WithLabelValues(strategy).Inc()
}

// IncRetry increments the fetch retry counter.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.FetchRetriesTotal.Inc()
}

// IncError increments the errors counter for a category label.
func (m *Metrics) IncError(category string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(category).Inc()
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}
