package trainer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/domain/repository"
	domsvc "GridPulse/internal/domain/service"
	apphttp "GridPulse/pkg/http"
	"GridPulse/pkg/logger"
)

// TriggerPayload is the request body sent to the training service. The same
// shape rides the queue in queue mode.
type TriggerPayload struct {
	ModelType   string    `json:"model_type"`
	Reasons     []string  `json:"reasons"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	RequestedAt time.Time `json:"requested_at"`
}

// TriggerAck is the training service acknowledgment. Accepted means queued
// for training, not trained.
type TriggerAck struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// HTTPTrigger posts retraining requests to the external training service.
type HTTPTrigger struct {
	client   *apphttp.Client
	url      string
	token    string
	attempts int
	backoff  time.Duration
	logger   *logger.Logger
	metrics  repository.Metrics
}

var _ domsvc.TrainingTrigger = (*HTTPTrigger)(nil)

type HTTPTriggerOption func(*HTTPTrigger)

// WithRetry sets how many delivery attempts are made and the pause between
// them. Attempts below 1 are treated as 1.
func WithRetry(attempts int, backoff time.Duration) HTTPTriggerOption {
	return func(t *HTTPTrigger) {
		if attempts < 1 {
			attempts = 1
		}
		t.attempts = attempts
		t.backoff = backoff
	}
}

// WithAuthToken adds a bearer token to every dispatch.
func WithAuthToken(token string) HTTPTriggerOption {
	return func(t *HTTPTrigger) {
		t.token = token
	}
}

func NewHTTPTrigger(client *apphttp.Client, url string, lgr *logger.Logger, metrics repository.Metrics, opts ...HTTPTriggerOption) *HTTPTrigger {
	t := &HTTPTrigger{
		client:   client,
		url:      url,
		attempts: 3,
		backoff:  2 * time.Second,
		logger:   lgr,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Trigger delivers the decision to the training service, retrying transient
// failures. The returned error is the last attempt's.
func (t *HTTPTrigger) Trigger(ctx context.Context, mt models.ModelType, decision *models.RetrainingDecision) error {
	payload := TriggerPayload{
		ModelType:   string(mt),
		RequestedAt: time.Now().UTC(),
	}
	if decision != nil {
		payload.Reasons = decision.Reasons
		payload.EvaluatedAt = decision.EvaluatedAt
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if t.token != "" {
		headers["Authorization"] = "Bearer " + t.token
	}

	var lastErr error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		var ack TriggerAck
		lastErr = t.client.SendAndParse(ctx, &apphttp.RequestOptions{
			Method:  http.MethodPost,
			URL:     t.url,
			Headers: headers,
			Body:    payload,
		}, &ack)
		if lastErr == nil {
			t.logger.Info("retraining trigger accepted",
				logger.String("model_type", string(mt)),
				logger.String("job_id", ack.JobID),
				logger.String("status", ack.Status),
				logger.Int("attempt", attempt))
			return nil
		}

		t.logger.Warn("retraining trigger attempt failed",
			logger.String("model_type", string(mt)),
			logger.Int("attempt", attempt),
			logger.Error(lastErr))
		if attempt == t.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.backoff):
		}
	}

	if t.metrics != nil {
		t.metrics.RecordError("training_trigger")
	}
	return fmt.Errorf("trigger retraining for %s after %d attempts: %w", mt, t.attempts, lastErr)
}
