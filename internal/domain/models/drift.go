package models

import "time"

// Severity grades how far a drift signal is past its thresholds.
type Severity string

const (
	SeverityNone        Severity = "none"
	SeverityModerate    Severity = "moderate"
	SeveritySignificant Severity = "significant"
)

// FeatureSample holds one named feature's baseline window (older, reference
// distribution) and current window (recent observations). Neither window is
// mutated after capture.
type FeatureSample struct {
	Name     string
	Baseline []float64
	Current  []float64
}

// DriftVerdict is the per-feature outcome of a data-drift evaluation.
// Produced fresh on every call; persisted only if the caller logs it.
type DriftVerdict struct {
	FeatureName   string   `json:"feature_name"`
	DriftScore    float64  `json:"drift_score"` // max ECDF distance
	PValue        float64  `json:"p_value"`
	PSI           *float64 `json:"psi"` // nil when the PSI computation was skipped
	ThresholdUsed float64  `json:"threshold_used"`
	Detected      bool     `json:"detected"`
	Severity      Severity `json:"severity"`
}

// PerformanceSnapshot is the outcome of a performance-drift evaluation.
type PerformanceSnapshot struct {
	ModelType    ModelType `json:"model_type"`
	MetricName   string    `json:"metric_name"` // "mape" | "mae"
	CurrentValue float64   `json:"current_value"`
	Threshold    float64   `json:"threshold"`
	Detected     bool      `json:"detected"`
	Severity     Severity  `json:"severity"`
}

// RetrainingDecision aggregates drift verdicts, a performance snapshot, and
// time-based facts into a single retrain/no-retrain outcome.
type RetrainingDecision struct {
	ModelType             ModelType               `json:"model_type"`
	ShouldRetrain         bool                    `json:"should_retrain"`
	Reasons               []string                `json:"reasons"` // fired triggers, fixed order
	BlockedByCooldown     bool                    `json:"blocked_by_cooldown"`
	DaysSinceLastRetrain  int                     `json:"days_since_last_retrain"`
	ConsecutiveViolations int                     `json:"consecutive_violations"`
	DriftVerdicts         map[string]DriftVerdict `json:"drift_verdicts,omitempty"`
	Performance           *PerformanceSnapshot    `json:"performance,omitempty"`
	EvaluatedAt           time.Time               `json:"evaluated_at"`
}

// Trigger reason strings, in the order they are reported.
const (
	ReasonStatistical = "statistical_drift"
	ReasonPerformance = "performance_drift"
	ReasonStaleness   = "staleness"
	ReasonConsecutive = "consecutive_violations"
)
