package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/services/policy"
)

func floatPtr(v float64) *float64 { return &v }

func newRetrainingUseCase(t *testing.T, fa *fakeAnalyzer, champ *models.ModelVersion, ft *fakeTrigger, fm *fakeMetrics) *RetrainingUseCase {
	t.Helper()
	configs, err := policy.NewConfigStore(nil)
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	return &RetrainingUseCase{
		analyzer:      fa,
		engine:        policy.NewEngine(),
		tracker:       policy.NewViolationTracker(),
		registry:      &fakeChampions{champion: champ},
		trigger:       ft,
		configs:       configs,
		metrics:       fm,
		logger:        testLogger(t),
		lastTriggered: make(map[models.ModelType]time.Time),
	}
}

func cleanAnalysis(mt models.ModelType) *models.DriftAnalysis {
	return &models.DriftAnalysis{
		ModelType:   mt,
		EvaluatedAt: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC),
		Verdicts: map[string]models.DriftVerdict{
			"pyrano1": {FeatureName: "pyrano1", DriftScore: 0.04, PValue: 0.8, PSI: floatPtr(0.02), ThresholdUsed: 0.05},
		},
	}
}

func driftedAnalysis(mt models.ModelType) *models.DriftAnalysis {
	return &models.DriftAnalysis{
		ModelType:   mt,
		EvaluatedAt: time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC),
		Verdicts: map[string]models.DriftVerdict{
			"pyrano1": {
				FeatureName:   "pyrano1",
				DriftScore:    0.85,
				PValue:        0.0001,
				PSI:           floatPtr(0.4),
				ThresholdUsed: 0.05,
				Detected:      true,
				Severity:      models.SeveritySignificant,
			},
		},
	}
}

func championPromotedDaysAgo(days int) *models.ModelVersion {
	at := time.Now().UTC().AddDate(0, 0, -days)
	return &models.ModelVersion{
		ModelType:  models.ModelSolar,
		VersionID:  1,
		Role:       models.RoleChampion,
		CreatedAt:  at.AddDate(0, 0, -1),
		PromotedAt: &at,
	}
}

func TestEvaluateNeverTrainedIsStale(t *testing.T) {
	fa := &fakeAnalyzer{analysis: cleanAnalysis(models.ModelSolar)}
	fm := &fakeMetrics{}
	uc := newRetrainingUseCase(t, fa, nil, &fakeTrigger{}, fm)

	decision, err := uc.Evaluate(context.Background(), models.ModelSolar)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !decision.ShouldRetrain {
		t.Fatalf("expected retrain for never-trained model, got %+v", decision)
	}
	if !reflect.DeepEqual(decision.Reasons, []string{models.ReasonStaleness}) {
		t.Errorf("expected staleness as the only reason, got %v", decision.Reasons)
	}
	if !decision.EvaluatedAt.Equal(fa.analysis.EvaluatedAt) {
		t.Errorf("expected evaluated_at from the analysis, got %v", decision.EvaluatedAt)
	}
	if fm.count("decision/solar/retrain") != 1 {
		t.Errorf("expected retrain outcome recorded")
	}
}

func TestEvaluateCooldownBlocksFreshChampion(t *testing.T) {
	fa := &fakeAnalyzer{analysis: driftedAnalysis(models.ModelSolar)}
	fm := &fakeMetrics{}
	uc := newRetrainingUseCase(t, fa, championPromotedDaysAgo(3), &fakeTrigger{}, fm)

	decision, err := uc.Evaluate(context.Background(), models.ModelSolar)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if decision.ShouldRetrain {
		t.Errorf("expected cooldown to block retraining")
	}
	if !decision.BlockedByCooldown {
		t.Errorf("expected blocked_by_cooldown set")
	}
	if len(decision.Reasons) == 0 {
		t.Errorf("expected fired reasons kept while blocked")
	}
	if decision.DaysSinceLastRetrain != 3 {
		t.Errorf("expected 3 days since retrain, got %d", decision.DaysSinceLastRetrain)
	}
	if fm.count("decision/solar/blocked") != 1 {
		t.Errorf("expected blocked outcome recorded")
	}
}

func TestTriggerDispatchesAndStartsCooldown(t *testing.T) {
	fa := &fakeAnalyzer{analysis: driftedAnalysis(models.ModelSolar)}
	ft := &fakeTrigger{}
	uc := newRetrainingUseCase(t, fa, championPromotedDaysAgo(40), ft, &fakeMetrics{})

	decision, err := uc.Trigger(context.Background(), models.ModelSolar, false)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if !decision.ShouldRetrain {
		t.Fatalf("expected retrain decision, got %+v", decision)
	}
	if ft.calls != 1 {
		t.Fatalf("expected one dispatch, got %d", ft.calls)
	}
	if got := uc.tracker.Current(models.ModelSolar); got != 0 {
		t.Errorf("expected violation streak reset after dispatch, got %d", got)
	}

	// The dispatch itself starts the cooldown window.
	second, err := uc.Evaluate(context.Background(), models.ModelSolar)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !second.BlockedByCooldown {
		t.Errorf("expected cooldown right after dispatch, got %+v", second)
	}
	if second.DaysSinceLastRetrain != 0 {
		t.Errorf("expected 0 days since dispatch, got %d", second.DaysSinceLastRetrain)
	}
}

func TestTriggerHoldsWithoutReasons(t *testing.T) {
	fa := &fakeAnalyzer{analysis: cleanAnalysis(models.ModelSolar)}
	ft := &fakeTrigger{}
	uc := newRetrainingUseCase(t, fa, championPromotedDaysAgo(10), ft, &fakeMetrics{})

	decision, err := uc.Trigger(context.Background(), models.ModelSolar, false)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if decision.ShouldRetrain {
		t.Errorf("expected hold, got %+v", decision)
	}
	if ft.calls != 0 {
		t.Errorf("expected no dispatch on hold, got %d", ft.calls)
	}
}

func TestTriggerForceBypassesHold(t *testing.T) {
	fa := &fakeAnalyzer{analysis: cleanAnalysis(models.ModelSolar)}
	ft := &fakeTrigger{}
	fm := &fakeMetrics{}
	uc := newRetrainingUseCase(t, fa, championPromotedDaysAgo(10), ft, fm)

	if _, err := uc.Trigger(context.Background(), models.ModelSolar, true); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if ft.calls != 1 {
		t.Fatalf("expected forced dispatch, got %d calls", ft.calls)
	}
	if fm.count("decision/solar/dispatched") != 1 {
		t.Errorf("expected dispatched outcome recorded")
	}
}

func TestTriggerForceSurvivesAnalysisFailure(t *testing.T) {
	fa := &fakeAnalyzer{err: errors.New("clickhouse down")}
	ft := &fakeTrigger{}
	uc := newRetrainingUseCase(t, fa, nil, ft, &fakeMetrics{})

	if _, err := uc.Trigger(context.Background(), models.ModelSolar, false); err == nil {
		t.Fatalf("expected evaluation error without force")
	}
	if ft.calls != 0 {
		t.Fatalf("expected no dispatch on failed evaluation, got %d", ft.calls)
	}

	decision, err := uc.Trigger(context.Background(), models.ModelSolar, true)
	if err != nil {
		t.Fatalf("forced trigger: %v", err)
	}
	if !decision.ShouldRetrain {
		t.Errorf("expected synthesized retrain decision, got %+v", decision)
	}
	if ft.calls != 1 {
		t.Errorf("expected forced dispatch, got %d", ft.calls)
	}
}
