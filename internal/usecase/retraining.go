package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/services/policy"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/util"
)

type driftAnalyzer interface {
	Analyze(ctx context.Context, p AnalyzeParams) (*models.DriftAnalysis, error)
}

type championSource interface {
	GetChampion(mt models.ModelType) (*models.ModelVersion, error)
}

// RetrainingUseCase runs the full evaluate-and-maybe-trigger flow. Dates and
// violation streaks are tracked here so the policy engine stays pure.
type RetrainingUseCase struct {
	analyzer driftAnalyzer
	engine   domsvc.PolicyEngine
	tracker  *policy.ViolationTracker
	registry championSource
	trigger  domsvc.TrainingTrigger
	configs  *policy.ConfigStore
	metrics  domrepo.Metrics
	logger   *applogger.Logger

	mu            sync.Mutex
	lastTriggered map[models.ModelType]time.Time
}

func NewRetrainingUseCase(
	analyzer *DriftAnalysisUseCase,
	engine domsvc.PolicyEngine,
	tracker *policy.ViolationTracker,
	registry championSource,
	trigger domsvc.TrainingTrigger,
	configs *policy.ConfigStore,
	metrics domrepo.Metrics,
	lgr *applogger.Logger,
) *RetrainingUseCase {
	return &RetrainingUseCase{
		analyzer:      analyzer,
		engine:        engine,
		tracker:       tracker,
		registry:      registry,
		trigger:       trigger,
		configs:       configs,
		metrics:       metrics,
		logger:        lgr,
		lastTriggered: make(map[models.ModelType]time.Time),
	}
}

// Evaluate produces a retraining decision without dispatching anything.
func (uc *RetrainingUseCase) Evaluate(ctx context.Context, mt models.ModelType) (*models.RetrainingDecision, error) {
	cfg := uc.configs.Get(mt)

	analysis, err := uc.analyzer.Analyze(ctx, AnalyzeParams{ModelType: mt})
	if err != nil {
		return nil, err
	}

	days, known := uc.daysSinceLastRetrain(mt)
	if !known {
		// Never trained counts as stale.
		days = cfg.MaxDaysWithoutRetrain + 1
	}

	violated := analysis.Detected() || (analysis.Performance != nil && analysis.Performance.Detected)
	consecutive := uc.tracker.Observe(mt, violated)

	decision := uc.engine.Evaluate(mt, analysis.Verdicts, analysis.Performance, days, consecutive, cfg)
	decision.EvaluatedAt = analysis.EvaluatedAt

	outcome := "hold"
	switch {
	case decision.BlockedByCooldown:
		outcome = "blocked"
	case decision.ShouldRetrain:
		outcome = "retrain"
	}
	uc.metrics.RecordDecision(string(mt), outcome)
	uc.logger.Audit("retraining decision",
		applogger.String("model_type", string(mt)),
		applogger.Bool("should_retrain", decision.ShouldRetrain),
		applogger.Strings("reasons", decision.Reasons),
		applogger.Bool("blocked_by_cooldown", decision.BlockedByCooldown),
		applogger.Int("days_since_last_retrain", decision.DaysSinceLastRetrain),
		applogger.Int("consecutive_violations", decision.ConsecutiveViolations),
	)
	return &decision, nil
}

// Trigger evaluates and dispatches when the decision (or force) says so.
// Force bypasses the policy gate, including the cooldown.
func (uc *RetrainingUseCase) Trigger(ctx context.Context, mt models.ModelType, force bool) (*models.RetrainingDecision, error) {
	decision, err := uc.Evaluate(ctx, mt)
	if err != nil {
		if !force {
			return nil, err
		}
		// A forced trigger still fires when evaluation itself failed.
		uc.logger.Warn("forced trigger despite evaluation failure",
			applogger.String("model_type", string(mt)),
			applogger.Error(err))
		decision = &models.RetrainingDecision{
			ModelType:     mt,
			ShouldRetrain: true,
			EvaluatedAt:   time.Now().UTC(),
		}
	}

	if !force && !decision.ShouldRetrain {
		return decision, nil
	}

	if err := uc.trigger.Trigger(ctx, mt, decision); err != nil {
		return decision, fmt.Errorf("dispatch retraining: %w", err)
	}

	uc.mu.Lock()
	uc.lastTriggered[mt] = time.Now().UTC()
	uc.mu.Unlock()
	uc.tracker.Reset(mt)
	uc.metrics.RecordDecision(string(mt), "dispatched")
	uc.logger.Audit("retraining dispatched",
		applogger.String("model_type", string(mt)),
		applogger.Strings("reasons", decision.Reasons),
		applogger.Bool("forced", force),
	)
	return decision, nil
}

// daysSinceLastRetrain is counted from the later of the current champion's
// promotion and the last dispatched trigger.
func (uc *RetrainingUseCase) daysSinceLastRetrain(mt models.ModelType) (int, bool) {
	var ref time.Time
	if champ, err := uc.registry.GetChampion(mt); err == nil && champ != nil && champ.PromotedAt != nil {
		ref = *champ.PromotedAt
	}
	uc.mu.Lock()
	if t, ok := uc.lastTriggered[mt]; ok && t.After(ref) {
		ref = t
	}
	uc.mu.Unlock()
	if ref.IsZero() {
		return 0, false
	}
	return util.DaysSince(ref, time.Now().UTC()), true
}
