package repository

import (
	"context"
	"time"

	"GridPulse/internal/domain/models"
)

// ObservationStream is a live feed of observations, typically a websocket.
// Read returns shared channels; the error channel reports terminal stream
// failures that warrant a Reconnect.
type ObservationStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Observation, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher forwards observations to the message backbone.
type Publisher interface {
	Publish(ctx context.Context, o *models.Observation) error
	PublishBatch(ctx context.Context, obs []*models.Observation) error
	Close() error
}

// Storage persists observations and forecast samples.
type Storage interface {
	// Init ensures tables exist. Idempotent.
	Init(ctx context.Context) error
	Store(ctx context.Context, o *models.Observation) error
	StoreBatch(ctx context.Context, obs []*models.Observation) error
	StoreForecasts(ctx context.Context, samples []*models.ForecastSample) error
	Query(ctx context.Context, mt models.ModelType, feature string, from, to time.Time, limit int) ([]*models.Observation, error)
	Health(ctx context.Context) error
	Close() error
}

// TransitionLog is the durable append-only audit trail behind the registry.
// Appends are write-behind; Replay rebuilds in-memory state at boot.
type TransitionLog interface {
	Append(ctx context.Context, rec *models.TransitionRecord) error
	Replay(ctx context.Context) ([]models.TransitionRecord, error)
}

// Metrics is the Prometheus surface shared across the pipeline. Implementations
// must be safe for concurrent use.
type Metrics interface {
	RecordIngested(backend, modelType string)
	RecordDriftEvaluation(modelType, severity string)
	RecordDecision(modelType, outcome string)
	RecordTransition(modelType, event string)
	RecordError(kind string)
	RecordPSI(modelType, feature string, psi float64)
	RecordKSPValue(modelType, feature string, p float64)
	RecordPerformance(modelType, metric string, value float64)
	RecordLatency(op string, seconds float64)
}
