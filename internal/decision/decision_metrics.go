package decision

import "github.com/prometheus/client_golang/prometheus"

// EngineHooks lets the engine report events without depending on the
// metrics backend. Nil fields are no-ops.
type EngineHooks struct {
	OnDecision        func(status Status, reasons int)
	OnBatch           func(size int, duration float64)
	OnEvaluationError func(stage string)
	OnClarification   func(patternID string)
}

func (h EngineHooks) onDecision(status Status, reasons int) {
	if h.OnDecision != nil {
		h.OnDecision(status, reasons)
	}
}

func (h EngineHooks) onBatch(size int, duration float64) {
	if h.OnBatch != nil {
		h.OnBatch(size, duration)
	}
}

func (h EngineHooks) onEvaluationError(stage string) {
	if h.OnEvaluationError != nil {
		h.OnEvaluationError(stage)
	}
}

func (h EngineHooks) onClarification(patternID string) {
	if h.OnClarification != nil {
		h.OnClarification(patternID)
	}
}

// Metrics holds Prometheus metrics for the decision subsystem.
type Metrics struct {
	DecisionsTotal        *prometheus.CounterVec
	ReasonsExtracted      prometheus.Histogram
	BatchSize             prometheus.Histogram
	BatchDuration         prometheus.Histogram
	EvaluationErrorsTotal *prometheus.CounterVec
	ClarificationsTotal   *prometheus.CounterVec
	SnapshotGeneration    prometheus.Gauge
	SnapshotLoadedAt      prometheus.Gauge
	SnapshotCollisions    prometheus.Gauge
	ReloadsTotal          *prometheus.CounterVec
}

// NewMetrics registers and returns decision metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assay_decisions_total",
			Help: "Per-identifier decisions by terminal status.",
		}, []string{"status"}),
		ReasonsExtracted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assay_reasons_extracted",
			Help:    "Exclusion reasons extracted per not-eligible decision.",
			Buckets: prometheus.LinearBuckets(0, 1, 12), // 0 .. 11
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assay_batch_size",
			Help:    "Identifiers per decision batch.",
			Buckets: prometheus.LinearBuckets(1, 1, 10), // 1 .. 10
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "assay_batch_duration_seconds",
			Help:    "Duration of decision batches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs .. ~1.6s
		}),
		EvaluationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assay_evaluation_errors_total",
			Help: "Recoverable per-identifier evaluation errors by stage.",
		}, []string{"stage"}),
		ClarificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assay_clarifications_total",
			Help: "Clarification responses by pattern.",
		}, []string{"pattern"}),
		SnapshotGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assay_registry_generation",
			Help: "Generation counter of the active registry snapshot.",
		}),
		SnapshotLoadedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assay_registry_loaded_timestamp_seconds",
			Help: "Unix time the active registry snapshot was loaded.",
		}),
		SnapshotCollisions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "assay_registry_collisions",
			Help: "Identifiers present in both record sets in the active snapshot.",
		}),
		ReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assay_registry_reloads_total",
			Help: "Registry reload attempts by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.DecisionsTotal,
		m.ReasonsExtracted,
		m.BatchSize,
		m.BatchDuration,
		m.EvaluationErrorsTotal,
		m.ClarificationsTotal,
		m.SnapshotGeneration,
		m.SnapshotLoadedAt,
		m.SnapshotCollisions,
		m.ReloadsTotal,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnDecision: func(status Status, reasons int) {
			m.DecisionsTotal.WithLabelValues(string(status)).Inc()
			if status == StatusNotEligible {
				m.ReasonsExtracted.Observe(float64(reasons))
			}
		},
		OnBatch: func(size int, duration float64) {
			m.BatchSize.Observe(float64(size))
			m.BatchDuration.Observe(duration)
		},
		OnEvaluationError: func(stage string) {
			m.EvaluationErrorsTotal.WithLabelValues(stage).Inc()
		},
		OnClarification: func(patternID string) {
			m.ClarificationsTotal.WithLabelValues(patternID).Inc()
		},
	}
}

// ObserveSnapshot updates the snapshot gauges after a successful load.
func (m *Metrics) ObserveSnapshot(generation uint64, loadedAtUnix float64, collisions int) {
	m.SnapshotGeneration.Set(float64(generation))
	m.SnapshotLoadedAt.Set(loadedAtUnix)
	m.SnapshotCollisions.Set(float64(collisions))
}
