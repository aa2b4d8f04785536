package models

// Requests for monitoring HTTP endpoints. Defined in domain for consistency and reuse.

type DriftAnalyzeRequest struct {
	ModelType    string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
	BaselineSize int    `query:"baseline_size" json:"baseline_size" default:"1000" validate:"gte=20,lte=100000"`
	CurrentSize  int    `query:"current_size" json:"current_size" default:"500" validate:"gte=20,lte=100000"`
	Features     string `query:"features" json:"features"` // CSV, empty = all configured features
}

type GetSamplesRequest struct {
	ModelType string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
	Feature   string `query:"feature" json:"feature" validate:"required"`
	From      string `query:"from" json:"from"` // RFC3339 or unix seconds; default now-24h
	To        string `query:"to" json:"to"`     // default now
	Limit     int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type RetrainingEvaluateRequest struct {
	ModelType string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
}

type RetrainingTriggerRequest struct {
	ModelType string `json:"model_type" validate:"required,oneof=solar wind voltage"`
	Force     bool   `json:"force"` // bypass policy evaluation
}

type RegisterCandidateRequest struct {
	ModelType       string             `json:"model_type" validate:"required,oneof=solar wind voltage"`
	MetricsSnapshot map[string]float64 `json:"metrics_snapshot"`
}

type PromoteRequest struct {
	ModelType string `json:"model_type" validate:"required,oneof=solar wind voltage"`
	VersionID int64  `json:"version_id" validate:"required,gt=0"`
	To        string `json:"to" validate:"required,oneof=challenger champion"`
}

type ChampionRequest struct {
	ModelType string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
}

type ModelHistoryRequest struct {
	ModelType string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
	Page      int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	PerPage   int    `query:"per_page" json:"per_page" default:"50" validate:"gte=1,lte=500"`
}

type RollbackRequest struct {
	ModelType string `json:"model_type" validate:"required,oneof=solar wind voltage"`
}

type ABSetupRequest struct {
	ModelType           string `json:"model_type" validate:"required,oneof=solar wind voltage"`
	ChallengerVersionID int64  `json:"challenger_version_id" validate:"required,gt=0"`
	SampleTarget        int    `json:"sample_target" default:"50" validate:"gte=1,lte=100000"`
}

type ABObservationRequest struct {
	ChampionMetric   float64 `json:"champion_metric" validate:"gte=0"`
	ChallengerMetric float64 `json:"challenger_metric" validate:"gte=0"`
}

type ABConcludeRequest struct {
	Action string `json:"action" default:"auto" validate:"oneof=auto promote rollback"`
}

type ABActiveRequest struct {
	ModelType string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
}

type ConfigGetRequest struct {
	ModelType string `query:"model_type" json:"model_type" validate:"required,oneof=solar wind voltage"`
}

// ConfigUpdateRequest carries a full per-model-type RetrainingConfig.
// PSISignificant must exceed PSIModerate and the cooldown must sit strictly
// below the staleness bound; both are checked again by Validate on the store.
type ConfigUpdateRequest struct {
	ModelType                     string  `json:"model_type" validate:"required,oneof=solar wind voltage"`
	MetricThreshold               float64 `json:"metric_threshold" validate:"required,gt=0"`
	DriftScoreThreshold           float64 `json:"drift_score_threshold" default:"0.2" validate:"gte=0,lte=1"`
	SignificanceLevel             float64 `json:"significance_level" default:"0.05" validate:"gt=0,lt=1"`
	PSIModerate                   float64 `json:"psi_moderate" default:"0.1" validate:"gt=0"`
	PSISignificant                float64 `json:"psi_significant" default:"0.25" validate:"gtfield=PSIModerate"`
	MaxDaysWithoutRetrain         int     `json:"max_days_without_retrain" default:"30" validate:"gte=1"`
	MinDaysBetweenRetrains        int     `json:"min_days_between_retrains" default:"7" validate:"gte=0,ltfield=MaxDaysWithoutRetrain"`
	ConsecutiveViolationsRequired int     `json:"consecutive_violations_required" default:"3" validate:"gte=1"`
	ABMinSamples                  int     `json:"ab_min_samples" default:"50" validate:"gte=1"`
	ABMetricMargin                float64 `json:"ab_metric_margin" validate:"gte=0"`
}

// ToConfig converts the request into the domain config.
func (r ConfigUpdateRequest) ToConfig() RetrainingConfig {
	return RetrainingConfig{
		MetricThreshold:               r.MetricThreshold,
		DriftScoreThreshold:           r.DriftScoreThreshold,
		SignificanceLevel:             r.SignificanceLevel,
		PSIModerate:                   r.PSIModerate,
		PSISignificant:                r.PSISignificant,
		MaxDaysWithoutRetrain:         r.MaxDaysWithoutRetrain,
		MinDaysBetweenRetrains:        r.MinDaysBetweenRetrains,
		ConsecutiveViolationsRequired: r.ConsecutiveViolationsRequired,
		ABMinSamples:                  r.ABMinSamples,
		ABMetricMargin:                r.ABMetricMargin,
	}
}
