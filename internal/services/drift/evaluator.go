package drift

import (
	"errors"
	"fmt"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/services/stats"
)

// Evaluator wraps the statistical comparator to produce per-feature data
// drift verdicts and the single performance drift snapshot.
type Evaluator struct {
	cmp domsvc.Comparator
}

var _ domsvc.DriftEvaluator = (*Evaluator)(nil)

func NewEvaluator(cmp domsvc.Comparator) *Evaluator {
	return &Evaluator{cmp: cmp}
}

// EvaluateDataDrift evaluates every feature independently. A feature whose
// sample cannot support the KS test lands in the error map without touching
// the remaining features. A feature too small for PSI (but not for KS) still
// gets a verdict with a nil PSI, detected on the p-value alone.
func (e *Evaluator) EvaluateDataDrift(mt models.ModelType, features map[string]models.FeatureSample, cfg models.RetrainingConfig) (map[string]models.DriftVerdict, map[string]error) {
	verdicts := make(map[string]models.DriftVerdict, len(features))
	errs := make(map[string]error)

	for name, sample := range features {
		stat, p, err := e.cmp.TwoSampleDrift(sample.Baseline, sample.Current)
		if err != nil {
			errs[name] = annotate(err, mt, name)
			continue
		}

		var psi *float64
		if v, psiErr := e.cmp.PopulationStabilityIndex(sample.Baseline, sample.Current, stats.DefaultBuckets); psiErr == nil {
			psi = &v
		}

		detected := p < cfg.SignificanceLevel || (psi != nil && *psi > cfg.PSIModerate)

		severity := models.SeverityNone
		switch {
		case psi != nil && *psi > cfg.PSISignificant:
			severity = models.SeveritySignificant
		case detected:
			severity = models.SeverityModerate
		}

		verdicts[name] = models.DriftVerdict{
			FeatureName:   name,
			DriftScore:    stat,
			PValue:        p,
			PSI:           psi,
			ThresholdUsed: cfg.SignificanceLevel,
			Detected:      detected,
			Severity:      severity,
		}
	}

	return verdicts, errs
}

// EvaluatePerformanceDrift compares the recent headline metric against the
// model type's threshold. Severity turns significant past 150% of threshold.
func (e *Evaluator) EvaluatePerformanceDrift(mt models.ModelType, recentMetricValue float64, cfg models.RetrainingConfig) models.PerformanceSnapshot {
	detected := recentMetricValue > cfg.MetricThreshold

	severity := models.SeverityNone
	switch {
	case recentMetricValue > 1.5*cfg.MetricThreshold:
		severity = models.SeveritySignificant
	case detected:
		severity = models.SeverityModerate
	}

	return models.PerformanceSnapshot{
		ModelType:    mt,
		MetricName:   mt.MetricName(),
		CurrentValue: recentMetricValue,
		Threshold:    cfg.MetricThreshold,
		Detected:     detected,
		Severity:     severity,
	}
}

// annotate stamps the model type and feature onto comparator errors so they
// surface with full context.
func annotate(err error, mt models.ModelType, feature string) error {
	var ide *models.InsufficientDataError
	if errors.As(err, &ide) {
		return &models.InsufficientDataError{
			ModelType: mt,
			Op:        ide.Op,
			Feature:   feature,
			Needed:    ide.Needed,
			Got:       ide.Got,
		}
	}
	return fmt.Errorf("%s: feature %q: %w", mt, feature, err)
}
