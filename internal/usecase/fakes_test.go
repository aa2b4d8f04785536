package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"GridPulse/internal/domain/models"
	"GridPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) bump(k string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[k]++
}

func (m *fakeMetrics) count(k string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[k]
}

func (m *fakeMetrics) RecordIngested(backend, mt string)           { m.bump("ingested/" + backend + "/" + mt) }
func (m *fakeMetrics) RecordDriftEvaluation(mt, severity string)   { m.bump("drift/" + mt + "/" + severity) }
func (m *fakeMetrics) RecordDecision(mt, outcome string)           { m.bump("decision/" + mt + "/" + outcome) }
func (m *fakeMetrics) RecordTransition(mt, event string)           { m.bump("transition/" + mt + "/" + event) }
func (m *fakeMetrics) RecordError(kind string)                     { m.bump("error/" + kind) }
func (m *fakeMetrics) RecordPSI(mt, feature string, v float64)     { m.bump("psi/" + mt + "/" + feature) }
func (m *fakeMetrics) RecordKSPValue(mt, feature string, v float64) {
	m.bump("ksp/" + mt + "/" + feature)
}
func (m *fakeMetrics) RecordPerformance(mt, metric string, v float64) {
	m.bump("perf/" + mt + "/" + metric)
}
func (m *fakeMetrics) RecordLatency(op string, s float64) { m.bump("latency/" + op) }

type fakeStorage struct {
	mu        sync.Mutex
	stored    []*models.Observation
	forecasts []*models.ForecastSample
	fail      error
}

func (s *fakeStorage) Init(ctx context.Context) error { return nil }

func (s *fakeStorage) Store(ctx context.Context, o *models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.stored = append(s.stored, o)
	return nil
}

func (s *fakeStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.stored = append(s.stored, obs...)
	return nil
}

func (s *fakeStorage) StoreForecasts(ctx context.Context, samples []*models.ForecastSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.forecasts = append(s.forecasts, samples...)
	return nil
}

func (s *fakeStorage) Query(ctx context.Context, mt models.ModelType, feature string, from, to time.Time, limit int) ([]*models.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Observation
	for _, o := range s.stored {
		if o.ModelType == mt && o.Feature == feature {
			out = append(out, o)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStorage) Health(ctx context.Context) error { return nil }
func (s *fakeStorage) Close() error                     { return nil }

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.Observation
	fail      error
}

func (p *fakePublisher) Publish(ctx context.Context, o *models.Observation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, o)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, obs...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeSampleStore struct {
	samples  map[string]*models.FeatureSample
	errs     map[string]error
	features []string
}

func (s *fakeSampleStore) Windows(ctx context.Context, mt models.ModelType, feature string, baselineSize, currentSize int) (*models.FeatureSample, error) {
	if err, ok := s.errs[feature]; ok {
		return nil, err
	}
	if sample, ok := s.samples[feature]; ok {
		return sample, nil
	}
	return nil, &models.InsufficientDataError{ModelType: mt, Op: "windows", Feature: feature, Needed: baselineSize + currentSize, Got: 0}
}

func (s *fakeSampleStore) Features(ctx context.Context, mt models.ModelType) ([]string, error) {
	return s.features, nil
}

type fakeAccuracy struct {
	value float64
	n     int
	err   error
}

func (a *fakeAccuracy) RecentMetric(ctx context.Context, mt models.ModelType, since time.Time) (float64, int, error) {
	return a.value, a.n, a.err
}

type fakeAnalyzer struct {
	analysis *models.DriftAnalysis
	err      error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, p AnalyzeParams) (*models.DriftAnalysis, error) {
	return a.analysis, a.err
}

type fakeChampions struct {
	champion *models.ModelVersion
}

func (c *fakeChampions) GetChampion(mt models.ModelType) (*models.ModelVersion, error) {
	return c.champion, nil
}

type fakeTrigger struct {
	mu    sync.Mutex
	calls int
	last  *models.RetrainingDecision
	fail  error
}

func (f *fakeTrigger) Trigger(ctx context.Context, mt models.ModelType, decision *models.RetrainingDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.calls++
	f.last = decision
	return nil
}
