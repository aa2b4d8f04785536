package models

import "fmt"

// InsufficientDataError reports a sample too small for a statistical test.
// Recovered locally by skipping that feature, never treated as "no drift".
type InsufficientDataError struct {
	ModelType ModelType
	Op        string
	Feature   string
	Needed    int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("%s: insufficient data: need %d samples, got %d", e.Op, e.Needed, e.Got)
	if e.Feature != "" {
		msg = fmt.Sprintf("%s: feature %q: %s", e.ModelType, e.Feature, msg)
	} else if e.ModelType != "" {
		msg = fmt.Sprintf("%s: %s", e.ModelType, msg)
	}
	return msg
}

// InvalidTransitionError reports a registry lifecycle rule violation.
type InvalidTransitionError struct {
	ModelType ModelType
	Op        string
	VersionID int64
	Role      Role
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s: version %d (role %s): %s", e.ModelType, e.Op, e.VersionID, e.Role, e.Reason)
}

// SessionConflictError reports an A/B session already running for a model type.
type SessionConflictError struct {
	ModelType ModelType
	Op        string
	SessionID string
}

func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("%s: %s: session %s already running", e.ModelType, e.Op, e.SessionID)
}

// NoPriorChampionError reports a rollback with no eligible prior champion.
type NoPriorChampionError struct {
	ModelType ModelType
	Op        string
}

func (e *NoPriorChampionError) Error() string {
	return fmt.Sprintf("%s: %s: no prior champion to roll back to", e.ModelType, e.Op)
}

// ConcurrentModificationError reports a lost race on a per-model-type lock.
// Callers should retry with backoff.
type ConcurrentModificationError struct {
	ModelType ModelType
	Op        string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: %s: concurrent modification in flight", e.ModelType, e.Op)
}

// ConfigValidationError reports an inconsistent retraining config,
// rejected at update time rather than at evaluation time.
type ConfigValidationError struct {
	ModelType ModelType
	Op        string
	Field     string
	Reason    string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %s", e.ModelType, e.Op, e.Field, e.Reason)
}
