package trainer

import (
	"context"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/pkg/logger"
	"GridPulse/pkg/queue"
)

const TriggerMessageType = "training.trigger"

// Enqueuer is the slice of the queue the trigger needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) error
}

// QueueTrigger hands retraining requests to the Redis queue instead of
// calling the training service inline. A registered TrainingJob drains the
// queue and performs the actual HTTP dispatch.
type QueueTrigger struct {
	queue  Enqueuer
	logger *logger.Logger
}

var _ domsvc.TrainingTrigger = (*QueueTrigger)(nil)

func NewQueueTrigger(q Enqueuer, lgr *logger.Logger) *QueueTrigger {
	return &QueueTrigger{queue: q, logger: lgr}
}

func (t *QueueTrigger) Trigger(ctx context.Context, mt models.ModelType, decision *models.RetrainingDecision) error {
	payload := TriggerPayload{
		ModelType:   string(mt),
		RequestedAt: time.Now().UTC(),
	}
	if decision != nil {
		payload.Reasons = decision.Reasons
		payload.EvaluatedAt = decision.EvaluatedAt
	}

	if err := t.queue.Enqueue(ctx, TriggerMessageType, payload); err != nil {
		return fmt.Errorf("enqueue retraining trigger for %s: %w", mt, err)
	}
	t.logger.Info("retraining trigger enqueued",
		logger.String("model_type", string(mt)),
		logger.Strings("reasons", payload.Reasons))
	return nil
}

// TrainingJob drains queued triggers and forwards them to the training
// service through the HTTP trigger.
type TrainingJob struct {
	trigger domsvc.TrainingTrigger
	logger  *logger.Logger
}

var _ queue.Job = (*TrainingJob)(nil)

func NewTrainingJob(trigger domsvc.TrainingTrigger, lgr *logger.Logger) *TrainingJob {
	return &TrainingJob{trigger: trigger, logger: lgr}
}

func (j *TrainingJob) Name() string { return "training-dispatch" }

func (j *TrainingJob) Type() string { return TriggerMessageType }

func (j *TrainingJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[TriggerPayload](payload)
	if err != nil {
		return fmt.Errorf("parse training trigger payload: %w", err)
	}
	mt, ok := models.NormalizeModelType(p.ModelType)
	if !ok {
		return fmt.Errorf("training trigger payload: unknown model type %q", p.ModelType)
	}

	decision := &models.RetrainingDecision{
		ModelType:     mt,
		ShouldRetrain: true,
		Reasons:       p.Reasons,
		EvaluatedAt:   p.EvaluatedAt,
	}
	if err := j.trigger.Trigger(ctx, mt, decision); err != nil {
		j.logger.Error("queued training dispatch failed",
			logger.String("model_type", string(mt)),
			logger.Error(err))
		return err
	}
	return nil
}
