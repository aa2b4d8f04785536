package abtest

import (
	"context"
	"fmt"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/services/policy"
	"GridPulse/internal/services/registry"
	"GridPulse/pkg/logger"
)

const (
	ActionAuto     = "auto"
	ActionPromote  = "promote"
	ActionRollback = "rollback"
)

// Controller drives champion/challenger comparisons on top of the registry.
// The comparison rule itself lives in ABTestSession.ChallengerWins; the
// controller only binds it to the per-model-type config.
type Controller struct {
	registry *registry.Registry
	configs  *policy.ConfigStore
	logger   *logger.Logger
}

func NewController(reg *registry.Registry, configs *policy.ConfigStore, lgr *logger.Logger) *Controller {
	return &Controller{
		registry: reg,
		configs:  configs,
		logger:   lgr,
	}
}

// Setup opens a session comparing the current champion against the given
// challenger version. A zero sampleTarget falls back to the configured
// minimum sample count.
func (c *Controller) Setup(ctx context.Context, mt models.ModelType, challengerVersionID int64, sampleTarget int) (*models.ABTestSession, error) {
	if sampleTarget <= 0 {
		sampleTarget = c.configs.Get(mt).ABMinSamples
	}
	sess, err := c.registry.BeginSession(ctx, mt, challengerVersionID, sampleTarget)
	if err != nil {
		return nil, err
	}
	c.logger.Info("ab session started",
		logger.String("model_type", string(mt)),
		logger.String("session_id", sess.ID),
		logger.Int64("champion", sess.ChampionVersionID),
		logger.Int64("challenger", sess.ChallengerVersionID),
		logger.Int("sample_target", sess.SampleTarget))
	return sess, nil
}

// Observe feeds one paired metric observation into a running session.
func (c *Controller) Observe(ctx context.Context, sessionID string, championMetric, challengerMetric float64) (*models.ABTestSession, error) {
	return c.registry.RecordSample(ctx, sessionID, championMetric, challengerMetric)
}

// Conclude finishes a session. Action "auto" applies the configured
// better-or-equal rule; "promote" and "rollback" are operator overrides.
func (c *Controller) Conclude(ctx context.Context, sessionID, action string) (*models.ABTestSession, error) {
	var decide func(*models.ABTestSession) models.ABAction
	switch action {
	case "", ActionAuto:
		decide = func(s *models.ABTestSession) models.ABAction {
			cfg := c.configs.Get(s.ModelType)
			if s.ChallengerWins(cfg.ABMinSamples, cfg.ABMetricMargin) {
				return models.ABActionPromote
			}
			return models.ABActionRollback
		}
	case ActionPromote:
		decide = func(*models.ABTestSession) models.ABAction { return models.ABActionPromote }
	case ActionRollback:
		decide = func(*models.ABTestSession) models.ABAction { return models.ABActionRollback }
	default:
		return nil, fmt.Errorf("conclude session %s: unknown action %q", sessionID, action)
	}

	sess, err := c.registry.ConcludeSession(ctx, sessionID, decide)
	if err != nil {
		return nil, err
	}
	c.logger.Info("ab session concluded",
		logger.String("model_type", string(sess.ModelType)),
		logger.String("session_id", sess.ID),
		logger.String("status", string(sess.Status)),
		logger.Int("samples", sess.Comparison.SampleCount),
		logger.Float64("champion_mean", sess.Comparison.ChampionMean),
		logger.Float64("challenger_mean", sess.Comparison.ChallengerMean))
	return sess, nil
}

// Get returns a session snapshot by id.
func (c *Controller) Get(sessionID string) (*models.ABTestSession, error) {
	return c.registry.GetSession(sessionID)
}

// Active returns the running session for the model type, nil when none.
func (c *Controller) Active(mt models.ModelType) (*models.ABTestSession, error) {
	return c.registry.ActiveSession(mt)
}
