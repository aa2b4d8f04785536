package policy

import (
	"sync"

	"GridPulse/internal/domain/models"
)

// ViolationTracker counts consecutive drift-violation evaluations per model
// type. The streak feeds the consecutive-violation trigger and resets on a
// clean evaluation or an executed retraining.
type ViolationTracker struct {
	mu     sync.Mutex
	counts map[models.ModelType]int
}

func NewViolationTracker() *ViolationTracker {
	return &ViolationTracker{counts: make(map[models.ModelType]int)}
}

// Observe records one evaluation outcome and returns the updated streak,
// including the observation itself.
func (t *ViolationTracker) Observe(mt models.ModelType, violated bool) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if violated {
		t.counts[mt]++
	} else {
		t.counts[mt] = 0
	}
	return t.counts[mt]
}

// Current returns the streak without modifying it.
func (t *ViolationTracker) Current(mt models.ModelType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[mt]
}

// Reset clears the streak after a retraining run.
func (t *ViolationTracker) Reset(mt models.ModelType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[mt] = 0
}
