package models

import "time"

// DriftAnalysis is a consolidated view of one drift evaluation across features.
// Errors holds per-feature failures that did not abort the remaining features.
type DriftAnalysis struct {
	ModelType   ModelType               `json:"model_type"`
	EvaluatedAt time.Time               `json:"evaluated_at"`
	Verdicts    map[string]DriftVerdict `json:"verdicts"`
	Performance *PerformanceSnapshot    `json:"performance,omitempty"`
	Errors      map[string]string       `json:"errors,omitempty"`
}

// Detected returns true if any feature verdict detected drift.
func (a *DriftAnalysis) Detected() bool {
	for _, v := range a.Verdicts {
		if v.Detected {
			return true
		}
	}
	return false
}

// MaxSeverity returns the highest severity across feature verdicts and the
// performance snapshot.
func (a *DriftAnalysis) MaxSeverity() Severity {
	rank := func(s Severity) int {
		switch s {
		case SeveritySignificant:
			return 2
		case SeverityModerate:
			return 1
		default:
			return 0
		}
	}
	max := SeverityNone
	for _, v := range a.Verdicts {
		if rank(v.Severity) > rank(max) {
			max = v.Severity
		}
	}
	if a.Performance != nil && rank(a.Performance.Severity) > rank(max) {
		max = a.Performance.Severity
	}
	return max
}
