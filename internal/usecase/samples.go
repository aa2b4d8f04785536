package usecase

import (
	"context"
	"fmt"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
)

// SamplesUseCase provides business logic for retrieving raw observations.
type SamplesUseCase struct {
	store domrepo.Storage
}

func NewSamplesUseCase(store domrepo.Storage) *SamplesUseCase {
	return &SamplesUseCase{store: store}
}

type GetSamplesParams struct {
	ModelType models.ModelType
	Feature   string
	From      time.Time
	To        time.Time
	Limit     int
}

type GetSamplesResult struct {
	ModelType    models.ModelType      `json:"model_type"`
	Feature      string                `json:"feature"`
	From         time.Time             `json:"from"`
	To           time.Time             `json:"to"`
	Count        int                   `json:"count"`
	Observations []*models.Observation `json:"observations"`
}

func (uc *SamplesUseCase) GetSamples(ctx context.Context, p GetSamplesParams) (*GetSamplesResult, error) {
	if p.Feature == "" {
		return nil, fmt.Errorf("feature required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	obs, err := uc.store.Query(ctx, p.ModelType, p.Feature, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get samples: %w", err)
	}

	return &GetSamplesResult{
		ModelType:    p.ModelType,
		Feature:      p.Feature,
		From:         p.From,
		To:           p.To,
		Count:        len(obs),
		Observations: obs,
	}, nil
}
