package features

import (
	"math"

	"GridPulse/internal/domain/models"
)

// Values extracts the numeric values from observations, preserving order.
func Values(obs []*models.Observation) []float64 {
	if len(obs) == 0 {
		return nil
	}
	out := make([]float64, 0, len(obs))
	for _, o := range obs {
		out = append(out, o.Value)
	}
	return out
}

// SplitWindows splits an oldest-first series into a baseline window followed
// by a current window, taking the newest baselineSize+currentSize values.
// Returns nil windows when the series is shorter than the combined size.
func SplitWindows(values []float64, baselineSize, currentSize int) (baseline, current []float64) {
	if baselineSize <= 0 || currentSize <= 0 {
		return nil, nil
	}
	total := baselineSize + currentSize
	if len(values) < total {
		return nil, nil
	}
	tail := values[len(values)-total:]
	return tail[:baselineSize], tail[baselineSize:]
}

// MAPE computes the mean absolute percentage error over forecast samples.
// Samples with a zero actual are skipped; returns 0 when nothing is usable.
func MAPE(samples []*models.ForecastSample) float64 {
	sum := 0.0
	n := 0
	for _, s := range samples {
		if s.Actual == 0 {
			continue
		}
		sum += s.PctError()
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// MAE computes the mean absolute error over forecast samples.
func MAE(samples []*models.ForecastSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.AbsError()
	}
	return sum / float64(len(samples))
}

// MetricFor computes the model type's headline metric over samples:
// MAPE for percentage-kind models, MAE for absolute-kind models.
func MetricFor(mt models.ModelType, samples []*models.ForecastSample) float64 {
	if mt.Kind() == models.MetricAbsolute {
		return MAE(samples)
	}
	return MAPE(samples)
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation, or 0 with fewer than 2 values.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, v := range values {
		sum += v
		sum2 += v * v
	}
	mean := sum / float64(n)
	variance := (sum2 - float64(n)*mean*mean) / float64(n-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
