package features

import (
	"math"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
)

func TestSplitWindows(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	baseline, current := SplitWindows(values, 4, 3)
	if len(baseline) != 4 || len(current) != 3 {
		t.Fatalf("expected windows 4/3, got %d/%d", len(baseline), len(current))
	}
	if baseline[0] != 4 || baseline[3] != 7 {
		t.Errorf("unexpected baseline window: %v", baseline)
	}
	if current[0] != 8 || current[2] != 10 {
		t.Errorf("unexpected current window: %v", current)
	}
}

func TestSplitWindowsShortSeries(t *testing.T) {
	baseline, current := SplitWindows([]float64{1, 2, 3}, 3, 2)
	if baseline != nil || current != nil {
		t.Errorf("expected nil windows for short series, got %v / %v", baseline, current)
	}

	baseline, current = SplitWindows([]float64{1, 2, 3}, 0, 2)
	if baseline != nil || current != nil {
		t.Errorf("expected nil windows for zero baseline size, got %v / %v", baseline, current)
	}
}

func TestMAPE(t *testing.T) {
	now := time.Now()
	samples := []*models.ForecastSample{
		{Predicted: 110, Actual: 100, Timestamp: now}, // 10%
		{Predicted: 90, Actual: 100, Timestamp: now},  // 10%
		{Predicted: 120, Actual: 100, Timestamp: now}, // 20%
		{Predicted: 50, Actual: 0, Timestamp: now},    // skipped
	}

	got := MAPE(samples)
	if math.Abs(got-13.333333333333334) > 1e-9 {
		t.Errorf("expected MAPE about 13.33, got %v", got)
	}

	if MAPE(nil) != 0 {
		t.Errorf("expected 0 for empty input")
	}
}

func TestMAE(t *testing.T) {
	now := time.Now()
	samples := []*models.ForecastSample{
		{Predicted: 231.5, Actual: 230.0, Timestamp: now},
		{Predicted: 228.0, Actual: 230.5, Timestamp: now},
	}

	got := MAE(samples)
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("expected MAE 2.0, got %v", got)
	}
}

func TestMetricFor(t *testing.T) {
	now := time.Now()
	samples := []*models.ForecastSample{
		{Predicted: 110, Actual: 100, Timestamp: now},
	}

	if got := MetricFor(models.ModelSolar, samples); math.Abs(got-10) > 1e-9 {
		t.Errorf("expected MAPE 10 for solar, got %v", got)
	}
	if got := MetricFor(models.ModelVoltage, samples); math.Abs(got-10) > 1e-9 {
		t.Errorf("expected MAE 10 for voltage, got %v", got)
	}
}

func TestStdDev(t *testing.T) {
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2.138089935299395) > 1e-9 {
		t.Errorf("unexpected sample stddev: %v", got)
	}
	if StdDev([]float64{1}) != 0 {
		t.Errorf("expected 0 for single value")
	}
}
