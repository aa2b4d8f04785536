package models

// ModelType identifies which forecasting domain a record belongs to.
// Immutable once set on a record.
type ModelType string

const (
	ModelSolar   ModelType = "solar"
	ModelWind    ModelType = "wind"
	ModelVoltage ModelType = "voltage"
)

// MetricKind describes how a model's headline accuracy metric is expressed.
type MetricKind string

const (
	MetricPercentage MetricKind = "percentage" // MAPE, percent points
	MetricAbsolute   MetricKind = "absolute"   // MAE, units of the measured quantity
)

// IsValid returns true if mt is a supported model type.
func (mt ModelType) IsValid() bool {
	switch mt {
	case ModelSolar, ModelWind, ModelVoltage:
		return true
	default:
		return false
	}
}

// MetricName returns the headline accuracy metric for the model type.
func (mt ModelType) MetricName() string {
	if mt == ModelVoltage {
		return "mae"
	}
	return "mape"
}

// Kind returns how the headline metric is expressed.
func (mt ModelType) Kind() MetricKind {
	if mt == ModelVoltage {
		return MetricAbsolute
	}
	return MetricPercentage
}

// AllModelTypes returns the supported model types in stable order.
func AllModelTypes() []ModelType {
	return []ModelType{ModelSolar, ModelWind, ModelVoltage}
}

// NormalizeModelType converts a raw string to a model type; ok is false when unsupported.
func NormalizeModelType(s string) (ModelType, bool) {
	mt := ModelType(s)
	return mt, mt.IsValid()
}
