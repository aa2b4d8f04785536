package registry

import (
	"context"
	"sync"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/domain/repository"
	"GridPulse/pkg/logger"
)

// Registry is the authoritative record of model versions and their lifecycle.
// All state lives in memory, rebuilt from the transition log at boot; every
// mutation appends to the log write-behind. Mutating operations are
// serialized per model type; losing the race yields ConcurrentModificationError
// instead of blocking, so callers retry with backoff.
type Registry struct {
	log     repository.TransitionLog
	logger  *logger.Logger
	metrics repository.Metrics

	states map[models.ModelType]*typeState

	sessMu   sync.RWMutex
	sessions map[string]models.ModelType // session id -> owning model type
}

// typeState is one model type's slice of the registry. st.mu serializes
// mutations; reads take the read side and return copies.
type typeState struct {
	mu            sync.RWMutex
	versions      map[int64]*models.ModelVersion
	order         []int64
	history       []models.TransitionRecord
	nextID        int64
	seq           int64
	championID    int64 // 0 = no champion
	pastChampions []int64
	active        *models.ABTestSession
	allSessions   map[string]*models.ABTestSession
	sessionSeq    int64
}

func New(log repository.TransitionLog, lgr *logger.Logger, metrics repository.Metrics) *Registry {
	r := &Registry{
		log:      log,
		logger:   lgr,
		metrics:  metrics,
		states:   make(map[models.ModelType]*typeState),
		sessions: make(map[string]models.ModelType),
	}
	for _, mt := range models.AllModelTypes() {
		r.states[mt] = &typeState{
			versions:    make(map[int64]*models.ModelVersion),
			nextID:      1,
			allSessions: make(map[string]*models.ABTestSession),
		}
	}
	return r
}

func (r *Registry) state(mt models.ModelType) (*typeState, error) {
	st, ok := r.states[mt]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: "lookup_state", Reason: "unsupported model type"}
	}
	return st, nil
}

// RegisterCandidate assigns the next version id for the model type and
// records the version with role candidate.
func (r *Registry) RegisterCandidate(ctx context.Context, mt models.ModelType, metricsSnapshot map[string]float64) (*models.ModelVersion, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	if !st.mu.TryLock() {
		return nil, &models.ConcurrentModificationError{ModelType: mt, Op: "register_candidate"}
	}
	defer st.mu.Unlock()

	v := &models.ModelVersion{
		ModelType:       mt,
		VersionID:       st.nextID,
		Role:            models.RoleCandidate,
		CreatedAt:       time.Now().UTC(),
		MetricsSnapshot: cloneMetrics(metricsSnapshot),
	}
	st.nextID++
	st.versions[v.VersionID] = v
	st.order = append(st.order, v.VersionID)

	r.append(ctx, st, models.EventRegistered, v)
	r.verifySingleChampion(st, mt)

	cp := cloneVersion(v)
	return &cp, nil
}

// PromoteToChallenger moves a candidate into the challenger role. Rejected
// while an A/B session is running for the model type.
func (r *Registry) PromoteToChallenger(ctx context.Context, mt models.ModelType, versionID int64) (*models.ModelVersion, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	if !st.mu.TryLock() {
		return nil, &models.ConcurrentModificationError{ModelType: mt, Op: "promote_to_challenger"}
	}
	defer st.mu.Unlock()

	v, err := r.promoteToChallengerLocked(ctx, st, mt, versionID)
	if err != nil {
		return nil, err
	}
	cp := cloneVersion(v)
	return &cp, nil
}

// promoteToChallengerLocked applies the candidate -> challenger transition.
// Caller holds st.mu.
func (r *Registry) promoteToChallengerLocked(ctx context.Context, st *typeState, mt models.ModelType, versionID int64) (*models.ModelVersion, error) {
	const op = "promote_to_challenger"

	if st.active != nil {
		return nil, &models.SessionConflictError{ModelType: mt, Op: op, SessionID: st.active.ID}
	}
	v, ok := st.versions[versionID]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, VersionID: versionID, Reason: "unknown version"}
	}
	if v.Role != models.RoleCandidate {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, VersionID: versionID, Role: v.Role, Reason: "only a candidate can become challenger"}
	}

	v.Role = models.RoleChallenger
	r.append(ctx, st, models.EventPromotedChallenger, v)
	r.verifySingleChampion(st, mt)
	return v, nil
}

// PromoteToChampion moves a challenger into the champion role, demoting the
// prior champion (if any) to retired. Both transitions are appended under the
// same lock as one logical unit.
func (r *Registry) PromoteToChampion(ctx context.Context, mt models.ModelType, versionID int64) (*models.ModelVersion, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	if !st.mu.TryLock() {
		return nil, &models.ConcurrentModificationError{ModelType: mt, Op: "promote_to_champion"}
	}
	defer st.mu.Unlock()

	v, err := r.promoteToChampionLocked(ctx, st, mt, versionID)
	if err != nil {
		return nil, err
	}
	cp := cloneVersion(v)
	return &cp, nil
}

// promoteToChampionLocked applies the challenger -> champion transition.
// Caller holds st.mu.
func (r *Registry) promoteToChampionLocked(ctx context.Context, st *typeState, mt models.ModelType, versionID int64) (*models.ModelVersion, error) {
	const op = "promote_to_champion"

	v, ok := st.versions[versionID]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, VersionID: versionID, Reason: "unknown version"}
	}
	if v.Role != models.RoleChallenger {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, VersionID: versionID, Role: v.Role, Reason: "only a challenger can become champion"}
	}

	now := time.Now().UTC()

	if st.championID != 0 {
		prior := st.versions[st.championID]
		prior.Role = models.RoleRetired
		prior.RetiredAt = &now
		st.pastChampions = append(st.pastChampions, prior.VersionID)
		st.championID = 0
		r.append(ctx, st, models.EventDemotedChampion, prior)
	}

	v.Role = models.RoleChampion
	promoted := now
	v.PromotedAt = &promoted
	st.championID = v.VersionID
	r.append(ctx, st, models.EventPromotedChampion, v)
	r.verifySingleChampion(st, mt)
	return v, nil
}

// Rollback re-promotes the most recently demoted champion and retires the
// current one. The swap is appended as new transitions; history is never
// rewritten.
func (r *Registry) Rollback(ctx context.Context, mt models.ModelType) (*models.ModelVersion, error) {
	const op = "rollback"

	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	if !st.mu.TryLock() {
		return nil, &models.ConcurrentModificationError{ModelType: mt, Op: op}
	}
	defer st.mu.Unlock()

	if st.championID == 0 || len(st.pastChampions) == 0 {
		return nil, &models.NoPriorChampionError{ModelType: mt, Op: op}
	}

	targetID := st.pastChampions[len(st.pastChampions)-1]
	st.pastChampions = st.pastChampions[:len(st.pastChampions)-1]
	target := st.versions[targetID]

	now := time.Now().UTC()

	current := st.versions[st.championID]
	current.Role = models.RoleRetired
	current.RetiredAt = &now
	st.pastChampions = append(st.pastChampions, current.VersionID)
	st.championID = 0
	r.append(ctx, st, models.EventDemotedChampion, current)

	target.Role = models.RoleChampion
	promoted := now
	target.PromotedAt = &promoted
	target.RetiredAt = nil
	st.championID = target.VersionID
	r.append(ctx, st, models.EventRolledBack, target)
	r.verifySingleChampion(st, mt)

	cp := cloneVersion(target)
	return &cp, nil
}

// GetChampion returns the current champion, or nil when none exists.
func (r *Registry) GetChampion(mt models.ModelType) (*models.ModelVersion, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.championID == 0 {
		return nil, nil
	}
	cp := cloneVersion(st.versions[st.championID])
	return &cp, nil
}

// GetVersion returns one version by id.
func (r *Registry) GetVersion(mt models.ModelType, versionID int64) (*models.ModelVersion, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	v, ok := st.versions[versionID]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: "get_version", VersionID: versionID, Reason: "unknown version"}
	}
	cp := cloneVersion(v)
	return &cp, nil
}

// History returns one page of the transition log, oldest first, plus the
// total record count.
func (r *Registry) History(mt models.ModelType, page, perPage int) ([]models.TransitionRecord, int, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	total := len(st.history)
	start := (page - 1) * perPage
	if start >= total {
		return []models.TransitionRecord{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]models.TransitionRecord, 0, end-start)
	for _, rec := range st.history[start:end] {
		rec.Version = cloneVersion(&rec.Version)
		out = append(out, rec)
	}
	return out, total, nil
}

// append stamps and records a transition, then pushes it to the durable log.
// A log failure is logged and counted but does not fail the mutation; the
// in-memory state stays authoritative. Caller holds st.mu.
func (r *Registry) append(ctx context.Context, st *typeState, event models.TransitionEvent, v *models.ModelVersion) {
	st.seq++
	rec := models.TransitionRecord{
		Seq:       st.seq,
		ModelType: v.ModelType,
		Event:     event,
		At:        time.Now().UTC(),
		Version:   cloneVersion(v),
	}
	st.history = append(st.history, rec)

	if r.log != nil {
		if err := r.log.Append(ctx, &rec); err != nil {
			r.logger.Error("transition log append failed",
				logger.String("model_type", string(v.ModelType)),
				logger.String("event", string(event)),
				logger.Int64("version_id", v.VersionID),
				logger.Error(err))
			if r.metrics != nil {
				r.metrics.RecordError("transition_log_append")
			}
		}
	}
	if r.metrics != nil {
		r.metrics.RecordTransition(string(v.ModelType), string(event))
	}
	r.logger.Audit("model transition",
		logger.String("model_type", string(v.ModelType)),
		logger.String("event", string(event)),
		logger.Int64("version_id", v.VersionID))
}

// verifySingleChampion asserts the 0-or-1 champion invariant after a
// mutation. A violation is a registry bug; it is surfaced loudly, never
// auto-corrected. Caller holds st.mu.
func (r *Registry) verifySingleChampion(st *typeState, mt models.ModelType) {
	champions := 0
	for _, v := range st.versions {
		if v.Role == models.RoleChampion {
			champions++
		}
	}
	expected := 0
	if st.championID != 0 {
		expected = 1
	}
	if champions != expected {
		r.logger.Error("single-champion invariant violated",
			logger.String("model_type", string(mt)),
			logger.Int("champions", champions))
		if r.metrics != nil {
			r.metrics.RecordError("champion_invariant")
		}
	}
}

func cloneVersion(v *models.ModelVersion) models.ModelVersion {
	cp := *v
	cp.MetricsSnapshot = cloneMetrics(v.MetricsSnapshot)
	if v.PromotedAt != nil {
		t := *v.PromotedAt
		cp.PromotedAt = &t
	}
	if v.RetiredAt != nil {
		t := *v.RetiredAt
		cp.RetiredAt = &t
	}
	return cp
}

func cloneMetrics(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
