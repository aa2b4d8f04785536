package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observationsIngested *prometheus.CounterVec
	driftEvaluations     *prometheus.CounterVec
	retrainingDecisions  *prometheus.CounterVec
	versionTransitions   *prometheus.CounterVec
	errorsTotal          *prometheus.CounterVec
	psiScore             *prometheus.GaugeVec
	ksPValue             *prometheus.GaugeVec
	perfMetric           *prometheus.GaugeVec
	latency              *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		observationsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_observations_ingested_total",
				Help: "Total number of observations written to a backend",
			},
			[]string{"backend", "model_type"},
		),
		driftEvaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_drift_evaluations_total",
				Help: "Total number of drift evaluations by outcome",
			},
			[]string{"model_type", "severity"},
		),
		retrainingDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_retraining_decisions_total",
				Help: "Total number of retraining decisions by outcome",
			},
			[]string{"model_type", "outcome"},
		),
		versionTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_model_transitions_total",
				Help: "Total number of model version lifecycle transitions",
			},
			[]string{"model_type", "event"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		psiScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridpulse_drift_psi",
				Help: "Last computed PSI for a model type and feature",
			},
			[]string{"model_type", "feature"},
		),
		ksPValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridpulse_drift_ks_p_value",
				Help: "Last computed KS p-value for a model type and feature",
			},
			[]string{"model_type", "feature"},
		),
		perfMetric: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gridpulse_performance_metric",
				Help: "Last observed accuracy metric for a model type",
			},
			[]string{"model_type", "metric"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gridpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordIngested records an observation written to a backend.
func (r *Recorder) RecordIngested(backend, modelType string) {
	r.observationsIngested.WithLabelValues(backend, modelType).Inc()
}

// RecordDriftEvaluation records a completed drift evaluation.
func (r *Recorder) RecordDriftEvaluation(modelType, severity string) {
	r.driftEvaluations.WithLabelValues(modelType, severity).Inc()
}

// RecordDecision records a retraining decision outcome.
func (r *Recorder) RecordDecision(modelType, outcome string) {
	r.retrainingDecisions.WithLabelValues(modelType, outcome).Inc()
}

// RecordTransition records a model version lifecycle transition.
func (r *Recorder) RecordTransition(modelType, event string) {
	r.versionTransitions.WithLabelValues(modelType, event).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordPSI records the last computed PSI for a feature.
func (r *Recorder) RecordPSI(modelType, feature string, psi float64) {
	r.psiScore.WithLabelValues(modelType, feature).Set(psi)
}

// RecordKSPValue records the last computed KS p-value for a feature.
func (r *Recorder) RecordKSPValue(modelType, feature string, p float64) {
	r.ksPValue.WithLabelValues(modelType, feature).Set(p)
}

// RecordPerformance records the last observed accuracy metric.
func (r *Recorder) RecordPerformance(modelType, metric string, value float64) {
	r.perfMetric.WithLabelValues(modelType, metric).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
