package repository

import (
	"context"
	"time"

	"GridPulse/internal/domain/models"
)

// SampleStore provides read-only access to feature windows for drift analysis.
type SampleStore interface {
	// Windows returns the newest baselineSize+currentSize values for a feature,
	// oldest first, split into a baseline window and a current window.
	Windows(ctx context.Context, mt models.ModelType, feature string, baselineSize, currentSize int) (*models.FeatureSample, error)

	// Features lists the feature names with stored observations for a model type.
	Features(ctx context.Context, mt models.ModelType) ([]string, error)
}

// AccuracySource provides recent accuracy values per model type.
type AccuracySource interface {
	// RecentMetric aggregates the model type's headline metric (MAPE or MAE)
	// over forecasts recorded since the cutoff. n is the sample count.
	RecentMetric(ctx context.Context, mt models.ModelType, since time.Time) (value float64, n int, err error)
}
