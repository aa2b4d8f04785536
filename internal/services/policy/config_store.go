package policy

import (
	"sync"

	"GridPulse/internal/domain/models"
)

// ConfigStore holds the per-model-type retraining thresholds. Seeded once at
// boot, read by every evaluation, mutated only through Update.
type ConfigStore struct {
	mu      sync.RWMutex
	configs map[models.ModelType]models.RetrainingConfig
}

// NewConfigStore seeds the store, falling back to stock defaults for any
// model type the seed does not cover. Invalid seed entries are rejected.
func NewConfigStore(seed map[models.ModelType]models.RetrainingConfig) (*ConfigStore, error) {
	s := &ConfigStore{configs: make(map[models.ModelType]models.RetrainingConfig)}
	for _, mt := range models.AllModelTypes() {
		cfg, ok := seed[mt]
		if !ok {
			cfg = models.DefaultRetrainingConfig(mt)
		}
		if err := cfg.Validate(mt); err != nil {
			return nil, err
		}
		s.configs[mt] = cfg
	}
	return s, nil
}

// Get returns the current config for a model type.
func (s *ConfigStore) Get(mt models.ModelType) models.RetrainingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configs[mt]
}

// Update validates and swaps in a new config for one model type.
func (s *ConfigStore) Update(mt models.ModelType, cfg models.RetrainingConfig) error {
	if err := cfg.Validate(mt); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[mt] = cfg
	return nil
}

// Snapshot returns a copy of every model type's config.
func (s *ConfigStore) Snapshot() map[models.ModelType]models.RetrainingConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.ModelType]models.RetrainingConfig, len(s.configs))
	for mt, cfg := range s.configs {
		out[mt] = cfg
	}
	return out
}
