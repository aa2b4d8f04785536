package registry

import (
	"context"
	"fmt"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/logger"
)

// Restore rebuilds the in-memory state from the durable transition log.
// Called once at boot, before the registry serves traffic. Running A/B
// sessions are not persisted; an interrupted session simply restarts.
func (r *Registry) Restore(ctx context.Context) error {
	if r.log == nil {
		return nil
	}

	records, err := r.log.Replay(ctx)
	if err != nil {
		return fmt.Errorf("replay transition log: %w", err)
	}

	for i := range records {
		rec := &records[i]
		st, err := r.state(rec.ModelType)
		if err != nil {
			r.logger.Warn("skipping transition for unknown model type",
				logger.String("model_type", string(rec.ModelType)),
				logger.Int64("seq", rec.Seq))
			continue
		}
		st.mu.Lock()
		r.applyRecord(st, rec)
		st.mu.Unlock()
	}

	for _, mt := range models.AllModelTypes() {
		st := r.states[mt]
		st.mu.RLock()
		r.logger.Info("registry state restored",
			logger.String("model_type", string(mt)),
			logger.Int("versions", len(st.versions)),
			logger.Int("transitions", len(st.history)),
			logger.Int64("champion", st.championID))
		st.mu.RUnlock()
	}
	return nil
}

// applyRecord folds one logged transition into the type state, mirroring the
// write path exactly. Caller holds st.mu.
func (r *Registry) applyRecord(st *typeState, rec *models.TransitionRecord) {
	v := cloneVersion(&rec.Version)
	id := v.VersionID

	switch rec.Event {
	case models.EventRegistered:
		st.versions[id] = &v
		st.order = append(st.order, id)
		if id >= st.nextID {
			st.nextID = id + 1
		}
	case models.EventPromotedChallenger:
		st.versions[id] = &v
	case models.EventDemotedChampion:
		st.versions[id] = &v
		if st.championID == id {
			st.championID = 0
		}
		st.pastChampions = append(st.pastChampions, id)
	case models.EventPromotedChampion:
		st.versions[id] = &v
		st.championID = id
	case models.EventRolledBack:
		st.versions[id] = &v
		st.championID = id
		st.pastChampions = removeID(st.pastChampions, id)
	case models.EventRetiredChallenger:
		st.versions[id] = &v
	default:
		r.logger.Warn("unknown transition event in log",
			logger.String("event", string(rec.Event)),
			logger.Int64("seq", rec.Seq))
		return
	}

	st.history = append(st.history, *rec)
	if rec.Seq > st.seq {
		st.seq = rec.Seq
	}
}

// removeID drops the newest occurrence of id from the stack.
func removeID(stack []int64, id int64) []int64 {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == id {
			return append(stack[:i], stack[i+1:]...)
		}
	}
	return stack
}
