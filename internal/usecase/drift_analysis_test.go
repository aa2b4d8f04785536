package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/services/drift"
	"GridPulse/internal/services/policy"
	"GridPulse/internal/services/stats"
)

// normalGrid returns deterministic samples following a normal distribution,
// generated from evenly spaced quantiles.
func normalGrid(n int, mean, sigma, phase float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		u := (float64(i) + phase) / float64(n)
		out[i] = mean + sigma*math.Sqrt2*math.Erfinv(2*u-1)
	}
	return out
}

func newAnalysisUseCase(t *testing.T, store *fakeSampleStore, acc *fakeAccuracy, fm *fakeMetrics) *DriftAnalysisUseCase {
	t.Helper()
	configs, err := policy.NewConfigStore(nil)
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	return NewDriftAnalysisUseCase(store, acc, drift.NewEvaluator(stats.NewComparator()), configs, fm, testLogger(t))
}

func TestAnalyzeNoShift(t *testing.T) {
	store := &fakeSampleStore{
		samples: map[string]*models.FeatureSample{
			"pyrano1": {
				Name:     "pyrano1",
				Baseline: normalGrid(200, 800, 50, 0.3),
				Current:  normalGrid(150, 800, 50, 0.7),
			},
		},
		features: []string{"pyrano1"},
	}
	fm := &fakeMetrics{}
	uc := newAnalysisUseCase(t, store, &fakeAccuracy{value: 10.0, n: 40}, fm)

	res, err := uc.Analyze(context.Background(), AnalyzeParams{ModelType: models.ModelSolar})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	v, ok := res.Verdicts["pyrano1"]
	if !ok {
		t.Fatalf("expected verdict for pyrano1")
	}
	if v.Detected {
		t.Errorf("expected no drift, got %+v", v)
	}
	if res.Performance == nil {
		t.Fatalf("expected performance snapshot")
	}
	if res.Performance.Detected {
		t.Errorf("10.0 must sit below the solar threshold, got %+v", res.Performance)
	}
	if res.Errors != nil {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
	if res.EvaluatedAt.IsZero() {
		t.Errorf("expected evaluated_at to be stamped")
	}
	if fm.count("drift/solar/none") != 1 {
		t.Errorf("expected one none-severity evaluation recorded")
	}
}

func TestAnalyzeShiftWithPartialFailure(t *testing.T) {
	store := &fakeSampleStore{
		samples: map[string]*models.FeatureSample{
			"pyrano1": {
				Name:     "pyrano1",
				Baseline: normalGrid(200, 800, 50, 0.3),
				Current:  normalGrid(150, 950, 50, 0.5),
			},
		},
		errs: map[string]error{
			"humidity": &models.InsufficientDataError{ModelType: models.ModelSolar, Op: "windows", Feature: "humidity", Needed: 1500, Got: 3},
		},
		features: []string{"pyrano1", "humidity"},
	}
	fm := &fakeMetrics{}
	uc := newAnalysisUseCase(t, store, &fakeAccuracy{n: 0}, fm)

	res, err := uc.Analyze(context.Background(), AnalyzeParams{ModelType: models.ModelSolar})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	v, ok := res.Verdicts["pyrano1"]
	if !ok {
		t.Fatalf("expected verdict for pyrano1")
	}
	if !v.Detected || v.Severity != models.SeveritySignificant {
		t.Errorf("expected significant drift for 3-sigma shift, got %+v", v)
	}
	if _, ok := res.Errors["humidity"]; !ok {
		t.Errorf("expected humidity failure recorded, got %v", res.Errors)
	}
	if res.Performance != nil {
		t.Errorf("expected no performance snapshot without forecasts")
	}
	if res.MaxSeverity() != models.SeveritySignificant {
		t.Errorf("expected significant max severity, got %s", res.MaxSeverity())
	}
	if fm.count("psi/solar/pyrano1") != 1 || fm.count("ksp/solar/pyrano1") != 1 {
		t.Errorf("expected per-feature score metrics recorded")
	}
}

func TestAnalyzeExplicitFeatures(t *testing.T) {
	store := &fakeSampleStore{
		samples: map[string]*models.FeatureSample{
			"wind_speed": {
				Name:     "wind_speed",
				Baseline: normalGrid(100, 12, 3, 0.4),
				Current:  normalGrid(100, 12, 3, 0.6),
			},
		},
		features: []string{"wind_speed", "gust", "direction"},
	}
	uc := newAnalysisUseCase(t, store, &fakeAccuracy{n: 0}, &fakeMetrics{})

	res, err := uc.Analyze(context.Background(), AnalyzeParams{
		ModelType: models.ModelWind,
		Features:  []string{"wind_speed"},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Verdicts) != 1 {
		t.Errorf("expected only the requested feature, got %v", res.Verdicts)
	}
}

func TestAnalyzeNoStoredFeatures(t *testing.T) {
	uc := newAnalysisUseCase(t, &fakeSampleStore{}, &fakeAccuracy{}, &fakeMetrics{})

	_, err := uc.Analyze(context.Background(), AnalyzeParams{ModelType: models.ModelVoltage})
	var ide *models.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.ModelType != models.ModelVoltage {
		t.Errorf("unexpected error detail: %+v", ide)
	}
}
