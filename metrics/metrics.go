package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	retrieverLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_retriever_latency_ms",
		Help:    "Latency of retriever calls in milliseconds",
		Buckets: []float64{10, 25, 50, 75, 100, 150, 200, 300, 500, 800, 1200},
	}, []string{"type"})

	retrieverResults = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rag_retriever_results",
		Help:    "Number of results returned by a retriever",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	}, []string{"type"})

	fusionCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_fusion_candidates",
		Help:    "Number of fused candidates per query",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 50, 80},
	})

	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_cache_hits_total",
		Help: "Cache hits by namespace",
	}, []string{"kind"})

	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_cache_misses_total",
		Help: "Cache misses by namespace",
	}, []string{"kind"})

	cacheWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_cache_writes_total",
		Help: "Cache entries written by namespace",
	}, []string{"kind"})

	cacheEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rag_cache_entries",
		Help: "Live cache entries by namespace, as of the last stats poll",
	}, []string{"kind"})

	verifyStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_verify_status_total",
		Help: "Verification outcomes (pass/warn/fail)",
	}, []string{"status"})

	gateVerdict = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_gate_verdict_total",
		Help: "Quality gate verdicts (accept/replan)",
	}, []string{"verdict"})

	replans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rag_replans_total",
		Help: "Replanning rounds executed",
	})

	turnSteps = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rag_turn_steps",
		Help:    "Pipeline steps executed per turn",
		Buckets: []float64{3, 5, 8, 12, 16, 20, 24, 32},
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(retrieverLatency, retrieverResults, fusionCandidates,
			cacheHits, cacheMisses, cacheWrites, cacheEntries, verifyStatus, gateVerdict, replans, turnSteps)
	})
}

// ObserveRetriever records latency and result size for a retriever type.
func ObserveRetriever(typ string, start time.Time, results int) {
	ensureRegistered()
	dur := time.Since(start).Milliseconds()
	retrieverLatency.WithLabelValues(typ).Observe(float64(dur))
	retrieverResults.WithLabelValues(typ).Observe(float64(results))
}

// ObserveFusion records how many candidates survived fusion.
func ObserveFusion(n int) {
	ensureRegistered()
	fusionCandidates.Observe(float64(n))
}

// IncCacheHit increments the hit counter for a cache namespace.
func IncCacheHit(kind string) {
	ensureRegistered()
	cacheHits.WithLabelValues(kind).Inc()
}

// IncCacheMiss increments the miss counter for a cache namespace.
func IncCacheMiss(kind string) {
	ensureRegistered()
	cacheMisses.WithLabelValues(kind).Inc()
}

// IncCacheWrite counts an entry written to a cache namespace.
func IncCacheWrite(kind string) {
	ensureRegistered()
	cacheWrites.WithLabelValues(kind).Inc()
}

// SetCacheEntries records the live entry count of a cache namespace.
func SetCacheEntries(kind string, n int64) {
	ensureRegistered()
	cacheEntries.WithLabelValues(kind).Set(float64(n))
}

// IncVerifyStatus counts a verification outcome.
func IncVerifyStatus(status string) {
	ensureRegistered()
	verifyStatus.WithLabelValues(status).Inc()
}

// IncGateVerdict counts a quality gate verdict.
func IncGateVerdict(verdict string) {
	ensureRegistered()
	gateVerdict.WithLabelValues(verdict).Inc()
}

// IncReplan counts one replanning round.
func IncReplan() {
	ensureRegistered()
	replans.Inc()
}

// ObserveTurnSteps records how many steps a turn consumed.
func ObserveTurnSteps(n int) {
	ensureRegistered()
	turnSteps.Observe(float64(n))
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		retrieverLatency, retrieverResults, fusionCandidates,
		cacheHits, cacheMisses, verifyStatus, gateVerdict, replans, turnSteps,
	}
}
