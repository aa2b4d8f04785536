package policy

import (
	"errors"
	"reflect"
	"testing"

	"GridPulse/internal/domain/models"
)

func baseConfig() models.RetrainingConfig {
	return models.RetrainingConfig{
		MetricThreshold:               12.0,
		DriftScoreThreshold:           0.2,
		SignificanceLevel:             0.05,
		PSIModerate:                   0.1,
		PSISignificant:                0.25,
		MaxDaysWithoutRetrain:         30,
		MinDaysBetweenRetrains:        7,
		ConsecutiveViolationsRequired: 3,
		ABMinSamples:                  50,
	}
}

func driftedVerdicts() map[string]models.DriftVerdict {
	psi := 0.4
	return map[string]models.DriftVerdict{
		"pyrano1": {
			FeatureName:   "pyrano1",
			DriftScore:    0.86,
			PValue:        0.001,
			PSI:           &psi,
			ThresholdUsed: 0.05,
			Detected:      true,
			Severity:      models.SeveritySignificant,
		},
	}
}

func cleanVerdicts() map[string]models.DriftVerdict {
	psi := 0.02
	return map[string]models.DriftVerdict{
		"pyrano1": {
			FeatureName:   "pyrano1",
			DriftScore:    0.02,
			PValue:        0.9,
			PSI:           &psi,
			ThresholdUsed: 0.05,
			Severity:      models.SeverityNone,
		},
	}
}

func TestEvaluateStatisticalTrigger(t *testing.T) {
	e := NewEngine()

	d := e.Evaluate(models.ModelSolar, driftedVerdicts(), nil, 10, 0, baseConfig())
	if !d.ShouldRetrain {
		t.Fatalf("expected retrain for detected drift")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != models.ReasonStatistical {
		t.Errorf("expected reasons [statistical_drift], got %v", d.Reasons)
	}
	if d.BlockedByCooldown {
		t.Errorf("cooldown must not block at 10 days")
	}
}

func TestEvaluatePerformanceTrigger(t *testing.T) {
	e := NewEngine()
	perf := &models.PerformanceSnapshot{
		ModelType:    models.ModelSolar,
		MetricName:   "mape",
		CurrentValue: 14.2,
		Threshold:    12.0,
		Detected:     true,
		Severity:     models.SeverityModerate,
	}

	d := e.Evaluate(models.ModelSolar, cleanVerdicts(), perf, 10, 0, baseConfig())
	if !d.ShouldRetrain {
		t.Fatalf("expected retrain for performance drift")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != models.ReasonPerformance {
		t.Errorf("expected reasons [performance_drift], got %v", d.Reasons)
	}
}

func TestEvaluateStalenessOnly(t *testing.T) {
	e := NewEngine()

	d := e.Evaluate(models.ModelSolar, cleanVerdicts(), nil, 31, 0, baseConfig())
	if !d.ShouldRetrain {
		t.Fatalf("expected retrain for stale model")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != models.ReasonStaleness {
		t.Errorf("expected reasons [staleness], got %v", d.Reasons)
	}
	if d.BlockedByCooldown {
		t.Errorf("staleness and cooldown cannot both hold under a valid config")
	}
}

func TestEvaluateConsecutiveTrigger(t *testing.T) {
	e := NewEngine()

	d := e.Evaluate(models.ModelVoltage, cleanVerdicts(), nil, 10, 3, baseConfig())
	if !d.ShouldRetrain {
		t.Fatalf("expected retrain after 3 consecutive violations")
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != models.ReasonConsecutive {
		t.Errorf("expected reasons [consecutive_violations], got %v", d.Reasons)
	}

	d = e.Evaluate(models.ModelVoltage, cleanVerdicts(), nil, 10, 2, baseConfig())
	if d.ShouldRetrain {
		t.Errorf("2 violations must not fire with threshold 3")
	}
}

func TestEvaluateReasonOrder(t *testing.T) {
	e := NewEngine()
	perf := &models.PerformanceSnapshot{Detected: true, Severity: models.SeverityModerate}

	d := e.Evaluate(models.ModelSolar, driftedVerdicts(), perf, 31, 5, baseConfig())
	want := []string{
		models.ReasonStatistical,
		models.ReasonPerformance,
		models.ReasonStaleness,
		models.ReasonConsecutive,
	}
	if !reflect.DeepEqual(d.Reasons, want) {
		t.Errorf("expected fixed reason order %v, got %v", want, d.Reasons)
	}
}

func TestEvaluateCooldownOverridesTriggers(t *testing.T) {
	e := NewEngine()
	perf := &models.PerformanceSnapshot{Detected: true, Severity: models.SeveritySignificant}

	d := e.Evaluate(models.ModelSolar, driftedVerdicts(), perf, 3, 10, baseConfig())
	if d.ShouldRetrain {
		t.Fatalf("cooldown must override every trigger")
	}
	if !d.BlockedByCooldown {
		t.Errorf("expected blocked_by_cooldown")
	}
	if len(d.Reasons) != 3 {
		t.Errorf("fired reasons must survive the cooldown for auditability, got %v", d.Reasons)
	}
}

func TestEvaluateNoTriggers(t *testing.T) {
	e := NewEngine()

	d := e.Evaluate(models.ModelSolar, cleanVerdicts(), nil, 10, 0, baseConfig())
	if d.ShouldRetrain {
		t.Fatalf("no trigger fired, must not retrain")
	}
	if len(d.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", d.Reasons)
	}
	if d.BlockedByCooldown {
		t.Errorf("unexpected cooldown block")
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	e := NewEngine()
	perf := &models.PerformanceSnapshot{Detected: true, Severity: models.SeverityModerate}

	a := e.Evaluate(models.ModelSolar, driftedVerdicts(), perf, 31, 5, baseConfig())
	b := e.Evaluate(models.ModelSolar, driftedVerdicts(), perf, 31, 5, baseConfig())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs must yield identical decisions:\n%+v\n%+v", a, b)
	}
}

func TestViolationTracker(t *testing.T) {
	tr := NewViolationTracker()

	if got := tr.Observe(models.ModelSolar, true); got != 1 {
		t.Errorf("expected streak 1, got %d", got)
	}
	if got := tr.Observe(models.ModelSolar, true); got != 2 {
		t.Errorf("expected streak 2, got %d", got)
	}
	if got := tr.Observe(models.ModelWind, true); got != 1 {
		t.Errorf("streaks must be independent per model type, got %d", got)
	}
	if got := tr.Observe(models.ModelSolar, false); got != 0 {
		t.Errorf("clean evaluation must reset the streak, got %d", got)
	}

	tr.Observe(models.ModelWind, true)
	tr.Reset(models.ModelWind)
	if got := tr.Current(models.ModelWind); got != 0 {
		t.Errorf("expected reset streak, got %d", got)
	}
}

func TestConfigStoreRejectsInvalidUpdate(t *testing.T) {
	s, err := NewConfigStore(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := baseConfig()
	bad.MinDaysBetweenRetrains = 30 // equals max_days_without_retrain
	err = s.Update(models.ModelSolar, bad)
	var cve *models.ConfigValidationError
	if !errors.As(err, &cve) {
		t.Fatalf("expected ConfigValidationError, got %v", err)
	}
	if cve.ModelType != models.ModelSolar || cve.Field != "min_days_between_retrains" {
		t.Errorf("unexpected error detail: %+v", cve)
	}

	// The rejected update must not have replaced the stored config.
	if got := s.Get(models.ModelSolar).MinDaysBetweenRetrains; got != 7 {
		t.Errorf("expected stored cooldown 7 after rejected update, got %d", got)
	}
}

func TestConfigStoreUpdateAndSnapshot(t *testing.T) {
	s, err := NewConfigStore(map[models.ModelType]models.RetrainingConfig{
		models.ModelWind: func() models.RetrainingConfig {
			c := models.DefaultRetrainingConfig(models.ModelWind)
			c.MetricThreshold = 18.0
			return c
		}(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := s.Get(models.ModelWind).MetricThreshold; got != 18.0 {
		t.Errorf("expected seeded threshold 18.0, got %v", got)
	}
	if got := s.Get(models.ModelSolar).MetricThreshold; got != 12.0 {
		t.Errorf("expected default threshold 12.0 for unseeded type, got %v", got)
	}

	upd := baseConfig()
	upd.ConsecutiveViolationsRequired = 5
	if err := s.Update(models.ModelSolar, upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Get(models.ModelSolar).ConsecutiveViolationsRequired; got != 5 {
		t.Errorf("expected updated value 5, got %d", got)
	}

	snap := s.Snapshot()
	if len(snap) != len(models.AllModelTypes()) {
		t.Errorf("expected snapshot covering every model type, got %d entries", len(snap))
	}

	// Mutating the snapshot must not leak into the store.
	c := snap[models.ModelSolar]
	c.MetricThreshold = 1
	snap[models.ModelSolar] = c
	if got := s.Get(models.ModelSolar).MetricThreshold; got != 12.0 {
		t.Errorf("snapshot mutation leaked into the store: %v", got)
	}
}

func TestConfigStoreRejectsInvalidSeed(t *testing.T) {
	bad := models.DefaultRetrainingConfig(models.ModelSolar)
	bad.PSISignificant = 0.05 // below psi_moderate

	_, err := NewConfigStore(map[models.ModelType]models.RetrainingConfig{models.ModelSolar: bad})
	var cve *models.ConfigValidationError
	if !errors.As(err, &cve) {
		t.Fatalf("expected ConfigValidationError, got %v", err)
	}
}
