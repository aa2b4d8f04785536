package policy

import (
	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
)

// Engine folds drift verdicts and history facts into a retraining decision.
// Pure function of its inputs: no clock, no stored state, so identical inputs
// always produce an identical decision.
type Engine struct{}

var _ domsvc.PolicyEngine = (*Engine)(nil)

func NewEngine() *Engine { return &Engine{} }

// trigger is one evaluated policy rule.
type trigger struct {
	fired  bool
	reason string
}

// Evaluate runs every trigger, unions the outcomes, then applies the cooldown
// guard. The guard flips should_retrain off but keeps the fired reasons for
// auditability. EvaluatedAt is left for the caller to stamp.
func (e *Engine) Evaluate(mt models.ModelType, verdicts map[string]models.DriftVerdict, perf *models.PerformanceSnapshot, daysSinceLastRetrain, consecutiveViolations int, cfg models.RetrainingConfig) models.RetrainingDecision {
	triggers := []trigger{
		statisticalTrigger(verdicts),
		performanceTrigger(perf),
		stalenessTrigger(daysSinceLastRetrain, cfg),
		consecutiveTrigger(consecutiveViolations, cfg),
	}

	reasons := make([]string, 0, len(triggers))
	for _, t := range triggers {
		if t.fired {
			reasons = append(reasons, t.reason)
		}
	}

	decision := models.RetrainingDecision{
		ModelType:             mt,
		ShouldRetrain:         len(reasons) > 0,
		Reasons:               reasons,
		DaysSinceLastRetrain:  daysSinceLastRetrain,
		ConsecutiveViolations: consecutiveViolations,
		DriftVerdicts:         verdicts,
		Performance:           perf,
	}

	if daysSinceLastRetrain < cfg.MinDaysBetweenRetrains {
		decision.BlockedByCooldown = true
		decision.ShouldRetrain = false
	}

	return decision
}

func statisticalTrigger(verdicts map[string]models.DriftVerdict) trigger {
	for _, v := range verdicts {
		if v.Detected {
			return trigger{fired: true, reason: models.ReasonStatistical}
		}
	}
	return trigger{reason: models.ReasonStatistical}
}

func performanceTrigger(perf *models.PerformanceSnapshot) trigger {
	return trigger{fired: perf != nil && perf.Detected, reason: models.ReasonPerformance}
}

func stalenessTrigger(days int, cfg models.RetrainingConfig) trigger {
	return trigger{fired: days >= cfg.MaxDaysWithoutRetrain, reason: models.ReasonStaleness}
}

func consecutiveTrigger(violations int, cfg models.RetrainingConfig) trigger {
	return trigger{fired: violations >= cfg.ConsecutiveViolationsRequired, reason: models.ReasonConsecutive}
}
