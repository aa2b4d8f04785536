package service

import (
	"context"

	"GridPulse/internal/domain/models"
)

// Comparator runs distribution-free two-sample tests. Pure and deterministic.
type Comparator interface {
	TwoSampleDrift(baseline, current []float64) (statistic, pValue float64, err error)
	PopulationStabilityIndex(baseline, current []float64, buckets int) (float64, error)
}

// DriftEvaluator turns raw feature windows and accuracy values into verdicts.
type DriftEvaluator interface {
	// EvaluateDataDrift evaluates each feature independently. A feature whose
	// sample is too small lands in the error map; the rest still get verdicts.
	EvaluateDataDrift(mt models.ModelType, features map[string]models.FeatureSample, cfg models.RetrainingConfig) (map[string]models.DriftVerdict, map[string]error)

	EvaluatePerformanceDrift(mt models.ModelType, recentMetricValue float64, cfg models.RetrainingConfig) models.PerformanceSnapshot
}

// PolicyEngine folds drift verdicts and history facts into one decision.
// Pure function of its inputs, no persisted state.
type PolicyEngine interface {
	Evaluate(mt models.ModelType, verdicts map[string]models.DriftVerdict, perf *models.PerformanceSnapshot, daysSinceLastRetrain, consecutiveViolations int, cfg models.RetrainingConfig) models.RetrainingDecision
}

// TrainingTrigger hands a retraining request to the external training job.
// Fire and forget: an ack means accepted, not trained.
type TrainingTrigger interface {
	Trigger(ctx context.Context, mt models.ModelType, decision *models.RetrainingDecision) error
}

// Authorizer guards mutating operations.
type Authorizer interface {
	Allow(token string) bool
}
