package models

// RetrainingConfig holds one model type's thresholds, consulted on every
// evaluation and mutated only through the config update operation.
type RetrainingConfig struct {
	MetricThreshold               float64 `yaml:"metric_threshold" json:"metric_threshold"`
	DriftScoreThreshold           float64 `yaml:"drift_score_threshold" json:"drift_score_threshold"`
	SignificanceLevel             float64 `yaml:"significance_level" json:"significance_level"`
	PSIModerate                   float64 `yaml:"psi_moderate" json:"psi_moderate"`
	PSISignificant                float64 `yaml:"psi_significant" json:"psi_significant"`
	MaxDaysWithoutRetrain         int     `yaml:"max_days_without_retrain" json:"max_days_without_retrain"`
	MinDaysBetweenRetrains        int     `yaml:"min_days_between_retrains" json:"min_days_between_retrains"`
	ConsecutiveViolationsRequired int     `yaml:"consecutive_violations_required" json:"consecutive_violations_required"`
	ABMinSamples                  int     `yaml:"ab_min_samples" json:"ab_min_samples"`
	ABMetricMargin                float64 `yaml:"ab_metric_margin" json:"ab_metric_margin"`
}

// DefaultRetrainingConfig returns the stock thresholds for a model type.
func DefaultRetrainingConfig(mt ModelType) RetrainingConfig {
	cfg := RetrainingConfig{
		DriftScoreThreshold:           0.2,
		SignificanceLevel:             0.05,
		PSIModerate:                   0.1,
		PSISignificant:                0.25,
		MaxDaysWithoutRetrain:         30,
		MinDaysBetweenRetrains:        7,
		ConsecutiveViolationsRequired: 3,
		ABMinSamples:                  50,
		ABMetricMargin:                0,
	}
	switch mt {
	case ModelSolar:
		cfg.MetricThreshold = 12.0
	case ModelWind:
		cfg.MetricThreshold = 15.0
	case ModelVoltage:
		cfg.MetricThreshold = 2.5
	}
	return cfg
}

// Validate checks internal consistency. The cooldown must stay strictly below
// the staleness bound or the two rules contradict each other.
func (c RetrainingConfig) Validate(mt ModelType) error {
	if c.MetricThreshold <= 0 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "metric_threshold", Reason: "must be positive"}
	}
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "significance_level", Reason: "must be in (0, 1)"}
	}
	if c.PSIModerate <= 0 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "psi_moderate", Reason: "must be positive"}
	}
	if c.PSISignificant <= c.PSIModerate {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "psi_significant", Reason: "must exceed psi_moderate"}
	}
	if c.MaxDaysWithoutRetrain < 1 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "max_days_without_retrain", Reason: "must be at least 1"}
	}
	if c.MinDaysBetweenRetrains < 0 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "min_days_between_retrains", Reason: "must not be negative"}
	}
	if c.MinDaysBetweenRetrains >= c.MaxDaysWithoutRetrain {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "min_days_between_retrains", Reason: "must be below max_days_without_retrain"}
	}
	if c.ConsecutiveViolationsRequired < 1 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "consecutive_violations_required", Reason: "must be at least 1"}
	}
	if c.ABMinSamples < 1 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "ab_min_samples", Reason: "must be at least 1"}
	}
	if c.ABMetricMargin < 0 {
		return &ConfigValidationError{ModelType: mt, Op: "validate_config", Field: "ab_metric_margin", Reason: "must not be negative"}
	}
	return nil
}
