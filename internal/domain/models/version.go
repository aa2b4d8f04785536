package models

import "time"

// Role is a model version's lifecycle stage. Transitions are monotone:
// candidate -> challenger -> {champion | retired}, champion -> retired.
// Rollback re-promotes a retired ex-champion as a new logged transition.
type Role string

const (
	RoleCandidate  Role = "candidate"
	RoleChallenger Role = "challenger"
	RoleChampion   Role = "champion"
	RoleRetired    Role = "retired"
)

// ModelVersion is one registered model artifact per model type.
// VersionIDs increase monotonically per model type and are never reused.
type ModelVersion struct {
	ModelType       ModelType          `json:"model_type"`
	VersionID       int64              `json:"version_id"`
	Role            Role               `json:"role"`
	CreatedAt       time.Time          `json:"created_at"`
	PromotedAt      *time.Time         `json:"promoted_at,omitempty"`
	RetiredAt       *time.Time         `json:"retired_at,omitempty"`
	MetricsSnapshot map[string]float64 `json:"metrics_snapshot,omitempty"`
}

// TransitionEvent names a registry lifecycle event.
type TransitionEvent string

const (
	EventRegistered         TransitionEvent = "registered"
	EventPromotedChallenger TransitionEvent = "promoted_challenger"
	EventPromotedChampion   TransitionEvent = "promoted_champion"
	EventDemotedChampion    TransitionEvent = "demoted_champion"
	EventRetiredChallenger  TransitionEvent = "retired_challenger"
	EventRolledBack         TransitionEvent = "rolled_back"
)

// TransitionRecord is one appended entry in a model type's audit trail.
// Version is a snapshot of the version as of the transition, not a reference.
type TransitionRecord struct {
	Seq       int64           `json:"seq"`
	ModelType ModelType       `json:"model_type"`
	Event     TransitionEvent `json:"event"`
	At        time.Time       `json:"at"`
	Version   ModelVersion    `json:"version"`
}

// ABStatus is an A/B session's lifecycle state.
type ABStatus string

const (
	ABRunning    ABStatus = "running"
	ABPromoted   ABStatus = "promoted"
	ABRolledBack ABStatus = "rolled_back"
)

// ABAction is the outcome applied when a session concludes.
type ABAction string

const (
	ABActionPromote  ABAction = "promote"
	ABActionRollback ABAction = "rollback"
)

// ABComparison holds the aggregated champion-vs-challenger statistics of a session.
type ABComparison struct {
	SampleCount    int     `json:"sample_count"`
	ChampionMean   float64 `json:"champion_mean"`
	ChallengerMean float64 `json:"challenger_mean"`
}

// ABTestSession is a champion-vs-challenger comparison window.
// At most one session per model type is running at any time.
type ABTestSession struct {
	ID                  string       `json:"id"`
	ModelType           ModelType    `json:"model_type"`
	ChampionVersionID   int64        `json:"champion_version_id"`
	ChallengerVersionID int64        `json:"challenger_version_id"`
	StartedAt           time.Time    `json:"started_at"`
	ConcludedAt         *time.Time   `json:"concluded_at,omitempty"`
	Status              ABStatus     `json:"status"`
	SampleTarget        int          `json:"sample_target"`
	Comparison          ABComparison `json:"comparison_metrics"`

	championSum   float64
	challengerSum float64
}

// RecordObservation accumulates one paired accuracy measurement.
// Lower metric values are better for both MAPE and MAE.
func (s *ABTestSession) RecordObservation(championMetric, challengerMetric float64) {
	s.championSum += championMetric
	s.challengerSum += challengerMetric
	s.Comparison.SampleCount++
	n := float64(s.Comparison.SampleCount)
	s.Comparison.ChampionMean = s.championSum / n
	s.Comparison.ChallengerMean = s.challengerSum / n
}

// ChallengerWins reports whether the challenger's aggregated metric beats the
// champion's by at least margin, with at least minSamples observations.
func (s *ABTestSession) ChallengerWins(minSamples int, margin float64) bool {
	if s.Comparison.SampleCount < minSamples {
		return false
	}
	return s.Comparison.ChallengerMean <= s.Comparison.ChampionMean-margin
}
