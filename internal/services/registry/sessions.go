package registry

import (
	"context"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
)

// BeginSession opens an A/B comparison window for a candidate version. The
// candidate is promoted to challenger under the same lock, so a session and
// its challenger promotion commit together or not at all.
func (r *Registry) BeginSession(ctx context.Context, mt models.ModelType, challengerVersionID int64, sampleTarget int) (*models.ABTestSession, error) {
	const op = "begin_ab_session"

	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	if !st.mu.TryLock() {
		return nil, &models.ConcurrentModificationError{ModelType: mt, Op: op}
	}
	defer st.mu.Unlock()

	if st.active != nil {
		return nil, &models.SessionConflictError{ModelType: mt, Op: op, SessionID: st.active.ID}
	}
	if st.championID == 0 {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, VersionID: challengerVersionID, Reason: "no champion to compare against"}
	}

	challenger, err := r.promoteToChallengerLocked(ctx, st, mt, challengerVersionID)
	if err != nil {
		return nil, err
	}

	st.sessionSeq++
	s := &models.ABTestSession{
		ID:                  fmt.Sprintf("%s-ab-%d", mt, st.sessionSeq),
		ModelType:           mt,
		ChampionVersionID:   st.championID,
		ChallengerVersionID: challenger.VersionID,
		StartedAt:           time.Now().UTC(),
		Status:              models.ABRunning,
		SampleTarget:        sampleTarget,
	}
	st.active = s
	st.allSessions[s.ID] = s

	r.sessMu.Lock()
	r.sessions[s.ID] = mt
	r.sessMu.Unlock()

	cp := *s
	return &cp, nil
}

// RecordSample accumulates one paired accuracy observation into a running
// session. No decision is made per observation.
func (r *Registry) RecordSample(ctx context.Context, sessionID string, championMetric, challengerMetric float64) (*models.ABTestSession, error) {
	const op = "record_ab_sample"

	st, mt, err := r.sessionState(sessionID, op)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.allSessions[sessionID]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, Reason: fmt.Sprintf("unknown session %s", sessionID)}
	}
	if s.Status != models.ABRunning {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, Reason: fmt.Sprintf("session %s already %s", sessionID, s.Status)}
	}

	s.RecordObservation(championMetric, challengerMetric)

	cp := *s
	return &cp, nil
}

// ConcludeSession closes a running session. decide inspects the session under
// the type lock and returns the action to apply: promote moves the challenger
// to champion (retiring the incumbent); rollback retires the challenger and
// leaves the incumbent in place.
func (r *Registry) ConcludeSession(ctx context.Context, sessionID string, decide func(*models.ABTestSession) models.ABAction) (*models.ABTestSession, error) {
	const op = "conclude_ab_session"

	st, mt, err := r.sessionState(sessionID, op)
	if err != nil {
		return nil, err
	}

	if !st.mu.TryLock() {
		return nil, &models.ConcurrentModificationError{ModelType: mt, Op: op}
	}
	defer st.mu.Unlock()

	s, ok := st.allSessions[sessionID]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, Reason: fmt.Sprintf("unknown session %s", sessionID)}
	}
	if s.Status != models.ABRunning {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, Reason: fmt.Sprintf("session %s already %s", sessionID, s.Status)}
	}

	action := decide(s)
	now := time.Now().UTC()

	switch action {
	case models.ABActionPromote:
		if _, err := r.promoteToChampionLocked(ctx, st, mt, s.ChallengerVersionID); err != nil {
			return nil, err
		}
		s.Status = models.ABPromoted
	case models.ABActionRollback:
		challenger, ok := st.versions[s.ChallengerVersionID]
		if !ok {
			return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, VersionID: s.ChallengerVersionID, Reason: "unknown challenger version"}
		}
		challenger.Role = models.RoleRetired
		challenger.RetiredAt = &now
		r.append(ctx, st, models.EventRetiredChallenger, challenger)
		s.Status = models.ABRolledBack
	default:
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, Reason: fmt.Sprintf("unknown action %q", action)}
	}

	s.ConcludedAt = &now
	st.active = nil
	r.verifySingleChampion(st, mt)

	cp := *s
	return &cp, nil
}

// GetSession returns a session by id, running or concluded.
func (r *Registry) GetSession(sessionID string) (*models.ABTestSession, error) {
	const op = "get_ab_session"

	st, mt, err := r.sessionState(sessionID, op)
	if err != nil {
		return nil, err
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.allSessions[sessionID]
	if !ok {
		return nil, &models.InvalidTransitionError{ModelType: mt, Op: op, Reason: fmt.Sprintf("unknown session %s", sessionID)}
	}
	cp := *s
	return &cp, nil
}

// ActiveSession returns the running session for a model type, or nil.
func (r *Registry) ActiveSession(mt models.ModelType) (*models.ABTestSession, error) {
	st, err := r.state(mt)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	if st.active == nil {
		return nil, nil
	}
	cp := *st.active
	return &cp, nil
}

// sessionState resolves a session id to its owning model type state.
func (r *Registry) sessionState(sessionID, op string) (*typeState, models.ModelType, error) {
	r.sessMu.RLock()
	mt, ok := r.sessions[sessionID]
	r.sessMu.RUnlock()
	if !ok {
		return nil, "", &models.InvalidTransitionError{Op: op, Reason: fmt.Sprintf("unknown session %s", sessionID)}
	}
	st, err := r.state(mt)
	if err != nil {
		return nil, mt, err
	}
	return st, mt, nil
}
