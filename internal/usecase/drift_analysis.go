package usecase

import (
	"context"
	"sync"
	"time"

	"GridPulse/internal/domain/models"
	domrepo "GridPulse/internal/domain/repository"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/services/policy"
	applogger "GridPulse/pkg/logger"
	"GridPulse/pkg/util"
)

const (
	defaultBaselineSize = 1000
	defaultCurrentSize  = 500
)

// DriftAnalysisUseCase fans out per-feature window fetches and folds the
// results into one DriftAnalysis. A failing feature never aborts the rest.
type DriftAnalysisUseCase struct {
	samples    domrepo.SampleStore
	accuracy   domrepo.AccuracySource
	eval       domsvc.DriftEvaluator
	configs    *policy.ConfigStore
	metrics    domrepo.Metrics
	logger     *applogger.Logger
	timeout    time.Duration
	perfWindow time.Duration
}

func NewDriftAnalysisUseCase(
	samples domrepo.SampleStore,
	accuracy domrepo.AccuracySource,
	eval domsvc.DriftEvaluator,
	configs *policy.ConfigStore,
	metrics domrepo.Metrics,
	lgr *applogger.Logger,
) *DriftAnalysisUseCase {
	return &DriftAnalysisUseCase{
		samples:    samples,
		accuracy:   accuracy,
		eval:       eval,
		configs:    configs,
		metrics:    metrics,
		logger:     lgr,
		timeout:    10 * time.Second,
		perfWindow: 24 * time.Hour,
	}
}

type AnalyzeParams struct {
	ModelType    models.ModelType
	BaselineSize int
	CurrentSize  int
	Features     []string
}

func (uc *DriftAnalysisUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.DriftAnalysis, error) {
	if p.BaselineSize <= 0 {
		p.BaselineSize = defaultBaselineSize
	}
	if p.CurrentSize <= 0 {
		p.CurrentSize = defaultCurrentSize
	}

	// Overall timeout
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	cfg := uc.configs.Get(p.ModelType)

	feats := p.Features
	if len(feats) == 0 {
		var err error
		feats, err = uc.samples.Features(ctx, p.ModelType)
		if err != nil {
			return nil, err
		}
	}
	if len(feats) == 0 {
		return nil, &models.InsufficientDataError{
			ModelType: p.ModelType,
			Op:        "analyze",
			Needed:    1,
			Got:       0,
		}
	}

	res := &models.DriftAnalysis{
		ModelType:   p.ModelType,
		EvaluatedAt: time.Now().UTC(),
		Errors:      map[string]string{},
	}

	type item struct {
		name   string
		sample *models.FeatureSample
		err    error
	}
	ch := make(chan item, len(feats))
	var wg sync.WaitGroup

	for _, f := range feats {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()
			s, err := uc.samples.Windows(ctx, p.ModelType, f, p.BaselineSize, p.CurrentSize)
			ch <- item{f, s, err}
		}(f)
	}

	type perfItem struct {
		value float64
		n     int
		err   error
	}
	perfCh := make(chan perfItem, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Minute-aligned window start, so analyses within the same minute
		// issue identical accuracy queries.
		since, _ := util.AlignWindow(time.Now().Add(-uc.perfWindow), time.Now(), time.Minute)
		v, n, err := uc.accuracy.RecentMetric(ctx, p.ModelType, since)
		perfCh <- perfItem{v, n, err}
	}()

	go func() { wg.Wait(); close(ch); close(perfCh) }()

	windows := make(map[string]models.FeatureSample, len(feats))
	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			continue
		}
		windows[it.name] = *it.sample
	}

	verdicts, evalErrs := uc.eval.EvaluateDataDrift(p.ModelType, windows, cfg)
	res.Verdicts = verdicts
	for name, err := range evalErrs {
		res.Errors[name] = err.Error()
	}
	for name, v := range verdicts {
		uc.metrics.RecordKSPValue(string(p.ModelType), name, v.PValue)
		if v.PSI != nil {
			uc.metrics.RecordPSI(string(p.ModelType), name, *v.PSI)
		}
	}

	if perf := <-perfCh; perf.err != nil {
		res.Errors["performance"] = perf.err.Error()
	} else if perf.n > 0 {
		snap := uc.eval.EvaluatePerformanceDrift(p.ModelType, perf.value, cfg)
		res.Performance = &snap
		uc.metrics.RecordPerformance(string(p.ModelType), snap.MetricName, perf.value)
	}

	uc.metrics.RecordDriftEvaluation(string(p.ModelType), string(res.MaxSeverity()))
	uc.metrics.RecordLatency("drift_analysis", time.Since(start).Seconds())
	uc.logger.Info("drift analysis complete",
		applogger.String("model_type", string(p.ModelType)),
		applogger.Int("features", len(feats)),
		applogger.Int("failed", len(res.Errors)),
		applogger.Bool("detected", res.Detected()),
		applogger.String("severity", string(res.MaxSeverity())),
		applogger.Duration("duration_ms", time.Since(start)),
	)

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
