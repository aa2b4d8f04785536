package models

import "time"

// Observation is a single feature measurement reported by a site sensor.
type Observation struct {
	ModelType ModelType `json:"model_type"`
	SiteID    string    `json:"site_id"`
	Feature   string    `json:"feature"` // "pyrano1", "wind_speed", "bus_voltage", ...
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ForecastSample pairs a model prediction with the measured actual,
// the raw material for accuracy metrics.
type ForecastSample struct {
	ModelType ModelType
	VersionID int64
	SiteID    string
	Predicted float64
	Actual    float64
	Timestamp time.Time
}

// AbsError returns |predicted - actual|.
func (f ForecastSample) AbsError() float64 {
	d := f.Predicted - f.Actual
	if d < 0 {
		return -d
	}
	return d
}

// PctError returns the absolute percentage error, or 0 when the actual is 0.
func (f ForecastSample) PctError() float64 {
	if f.Actual == 0 {
		return 0
	}
	return f.AbsError() / abs(f.Actual) * 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
