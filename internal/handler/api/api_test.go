package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/services/abtest"
	"GridPulse/internal/services/auth"
	"GridPulse/internal/services/drift"
	"GridPulse/internal/services/policy"
	"GridPulse/internal/services/registry"
	"GridPulse/internal/services/stats"
	"GridPulse/internal/usecase"
	xhttp "GridPulse/pkg/http"
	"GridPulse/pkg/logger"
)

const adminToken = "test-admin-token"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type memSampleStore struct {
	features map[models.ModelType][]string
	windows  map[string]*models.FeatureSample
}

func (s *memSampleStore) Windows(ctx context.Context, mt models.ModelType, feature string, baselineSize, currentSize int) (*models.FeatureSample, error) {
	if fs, ok := s.windows[string(mt)+"/"+feature]; ok {
		return fs, nil
	}
	return nil, &models.InsufficientDataError{ModelType: mt, Op: "windows", Feature: feature, Needed: baselineSize + currentSize, Got: 0}
}

func (s *memSampleStore) Features(ctx context.Context, mt models.ModelType) ([]string, error) {
	return s.features[mt], nil
}

type memAccuracy struct {
	value float64
	n     int
}

func (a *memAccuracy) RecentMetric(ctx context.Context, mt models.ModelType, since time.Time) (float64, int, error) {
	return a.value, a.n, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordIngested(backend, modelType string)            {}
func (nopMetrics) RecordDriftEvaluation(modelType, severity string)    {}
func (nopMetrics) RecordDecision(modelType, outcome string)            {}
func (nopMetrics) RecordTransition(modelType, event string)            {}
func (nopMetrics) RecordError(kind string)                             {}
func (nopMetrics) RecordPSI(modelType, feature string, psi float64)    {}
func (nopMetrics) RecordKSPValue(modelType, feature string, p float64) {}
func (nopMetrics) RecordPerformance(modelType, metric string, v float64) {
}
func (nopMetrics) RecordLatency(op string, seconds float64) {}

// normalGrid builds a deterministic sample following N(mean, sigma).
func normalGrid(n int, mean, sigma, phase float64) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		u := (float64(i) + phase) / float64(n)
		out[i] = mean + sigma*math.Sqrt2*math.Erfinv(2*u-1)
	}
	return out
}

type env struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type appErrBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field"`
	Params  map[string]interface{} `json:"params"`
}

func doReq(t *testing.T, e *echo.Echo, method, target, body, token string) (*httptest.ResponseRecorder, env) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(AdminTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out env
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
		}
	}
	return rec, out
}

func firstAppErr(t *testing.T, data json.RawMessage) appErrBody {
	t.Helper()
	var errs []appErrBody
	if err := json.Unmarshal(data, &errs); err != nil {
		t.Fatalf("decode app errors: %v (data %s)", err, string(data))
	}
	if len(errs) == 0 {
		t.Fatalf("expected at least one error entry")
	}
	return errs[0]
}

func newRegistryEcho(t *testing.T) (*echo.Echo, *registry.Registry) {
	t.Helper()
	lgr := testLogger(t)
	reg := registry.New(nil, lgr, nil)
	h := NewRegistryHandler(lgr, reg, auth.NewStaticTokenAuthorizer(adminToken))
	e := echo.New()
	h.RegisterRoutes(e)
	return e, reg
}

func installChampion(t *testing.T, reg *registry.Registry, mt models.ModelType) int64 {
	t.Helper()
	ctx := context.Background()
	v, err := reg.RegisterCandidate(ctx, mt, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.PromoteToChallenger(ctx, mt, v.VersionID); err != nil {
		t.Fatalf("to challenger: %v", err)
	}
	if _, err := reg.PromoteToChampion(ctx, mt, v.VersionID); err != nil {
		t.Fatalf("to champion: %v", err)
	}
	return v.VersionID
}

func TestChampionEndpoint(t *testing.T) {
	e, reg := newRegistryEcho(t)
	id := installChampion(t, reg, models.ModelSolar)

	rec, out := doReq(t, e, http.MethodGet, "/api/models/champion?model_type=solar", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected transport 200, got %d", rec.Code)
	}
	if out.Status != http.StatusOK {
		t.Fatalf("expected body status 200, got %d", out.Status)
	}
	var v models.ModelVersion
	if err := json.Unmarshal(out.Data, &v); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if v.VersionID != id || v.Role != models.RoleChampion {
		t.Fatalf("unexpected champion %+v", v)
	}
}

func TestChampionNotFound(t *testing.T) {
	e, _ := newRegistryEcho(t)

	_, out := doReq(t, e, http.MethodGet, "/api/models/champion?model_type=wind", "", "")
	if out.Status != http.StatusNotFound {
		t.Fatalf("expected 404 in body, got %d", out.Status)
	}
	if got := firstAppErr(t, out.Data); got.Code != "ERR_NOT_FOUND" {
		t.Fatalf("expected ERR_NOT_FOUND, got %s", got.Code)
	}
}

func TestValidationRejectsUnknownModelType(t *testing.T) {
	e, _ := newRegistryEcho(t)

	_, out := doReq(t, e, http.MethodGet, "/api/models/champion?model_type=tidal", "", "")
	if out.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 in body, got %d", out.Status)
	}
	var verrs []xhttp.ValidationError
	if err := json.Unmarshal(out.Data, &verrs); err != nil {
		t.Fatalf("decode validation errors: %v", err)
	}
	if len(verrs) == 0 || verrs[0].Code != "ERR_ONEOF" {
		t.Fatalf("expected ERR_ONEOF, got %+v", verrs)
	}
}

func TestAdminGuard(t *testing.T) {
	e, _ := newRegistryEcho(t)
	body := `{"model_type":"solar"}`

	_, out := doReq(t, e, http.MethodPost, "/api/models/candidates", body, "")
	if out.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodPost, "/api/models/candidates", body, "wrong")
	if out.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodPost, "/api/models/candidates", body, adminToken)
	if out.Status != http.StatusCreated {
		t.Fatalf("expected 201 with token, got %d", out.Status)
	}
	var v models.ModelVersion
	if err := json.Unmarshal(out.Data, &v); err != nil {
		t.Fatalf("decode version: %v", err)
	}
	if v.VersionID != 1 || v.Role != models.RoleCandidate {
		t.Fatalf("unexpected candidate %+v", v)
	}
}

func TestPromoteUnknownVersionConflict(t *testing.T) {
	e, _ := newRegistryEcho(t)

	_, out := doReq(t, e, http.MethodPost, "/api/models/promote",
		`{"model_type":"solar","version_id":99,"to":"challenger"}`, adminToken)
	if out.Status != http.StatusConflict {
		t.Fatalf("expected 409 in body, got %d", out.Status)
	}
	got := firstAppErr(t, out.Data)
	if got.Code != "ERR_INVALID_TRANSITION" {
		t.Fatalf("expected ERR_INVALID_TRANSITION, got %s", got.Code)
	}
	if got.Params["model_type"] != "solar" {
		t.Fatalf("expected model_type param, got %+v", got.Params)
	}
}

func TestPromoteBootstrapsFirstChampion(t *testing.T) {
	e, reg := newRegistryEcho(t)
	ctx := context.Background()
	v, err := reg.RegisterCandidate(ctx, models.ModelVoltage, nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	_, out := doReq(t, e, http.MethodPost, "/api/models/promote",
		fmt.Sprintf(`{"model_type":"voltage","version_id":%d,"to":"challenger"}`, v.VersionID), adminToken)
	if out.Status != http.StatusOK {
		t.Fatalf("expected 200 promoting to challenger, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodPost, "/api/models/promote",
		fmt.Sprintf(`{"model_type":"voltage","version_id":%d,"to":"champion"}`, v.VersionID), adminToken)
	if out.Status != http.StatusOK {
		t.Fatalf("expected 200 promoting to champion, got %d", out.Status)
	}

	champ, err := reg.GetChampion(models.ModelVoltage)
	if err != nil || champ == nil {
		t.Fatalf("expected champion installed, got %v %v", champ, err)
	}
}

func TestRollbackWithoutPriorChampion(t *testing.T) {
	e, reg := newRegistryEcho(t)
	installChampion(t, reg, models.ModelSolar)

	_, out := doReq(t, e, http.MethodPost, "/api/models/rollback", `{"model_type":"solar"}`, adminToken)
	if out.Status != http.StatusConflict {
		t.Fatalf("expected 409 in body, got %d", out.Status)
	}
	if got := firstAppErr(t, out.Data); got.Code != "ERR_NO_PRIOR_CHAMPION" {
		t.Fatalf("expected ERR_NO_PRIOR_CHAMPION, got %s", got.Code)
	}
}

func TestHistoryEndpointPaginates(t *testing.T) {
	e, reg := newRegistryEcho(t)
	installChampion(t, reg, models.ModelSolar)

	_, out := doReq(t, e, http.MethodGet, "/api/models/history?model_type=solar&page=1&per_page=2", "", "")
	if out.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", out.Status)
	}
	var list struct {
		Rows  []models.TransitionRecord `json:"rows"`
		Total int64                     `json:"total"`
	}
	if err := json.Unmarshal(out.Data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 3 {
		t.Fatalf("expected 3 records total, got %d", list.Total)
	}
	if len(list.Rows) != 2 {
		t.Fatalf("expected 2 rows on page, got %d", len(list.Rows))
	}
	if list.Rows[0].Event != models.EventRegistered {
		t.Fatalf("expected oldest-first ordering, got %s", list.Rows[0].Event)
	}
}

func newConfigEcho(t *testing.T) *echo.Echo {
	t.Helper()
	lgr := testLogger(t)
	configs, err := policy.NewConfigStore(nil)
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	h := NewConfigHandler(lgr, configs, auth.NewStaticTokenAuthorizer(adminToken))
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func TestConfigRoundTrip(t *testing.T) {
	e := newConfigEcho(t)

	_, out := doReq(t, e, http.MethodGet, "/api/config?model_type=solar", "", "")
	if out.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", out.Status)
	}
	var cfg models.RetrainingConfig
	if err := json.Unmarshal(out.Data, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.MetricThreshold != 12.0 {
		t.Fatalf("expected solar default threshold 12.0, got %v", cfg.MetricThreshold)
	}

	update := `{"model_type":"solar","metric_threshold":9.5,"psi_moderate":0.1,"psi_significant":0.25,
		"significance_level":0.05,"max_days_without_retrain":30,"min_days_between_retrains":7,
		"consecutive_violations_required":3,"ab_min_samples":50}`

	_, out = doReq(t, e, http.MethodPut, "/api/config", update, "")
	if out.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodPut, "/api/config", update, adminToken)
	if out.Status != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodGet, "/api/config?model_type=solar", "", "")
	if err := json.Unmarshal(out.Data, &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.MetricThreshold != 9.5 {
		t.Fatalf("expected updated threshold 9.5, got %v", cfg.MetricThreshold)
	}
}

func TestConfigUpdateRejectsCrossFieldViolation(t *testing.T) {
	e := newConfigEcho(t)

	// psi_significant below psi_moderate
	body := `{"model_type":"solar","metric_threshold":12,"psi_moderate":0.3,"psi_significant":0.2}`
	_, out := doReq(t, e, http.MethodPut, "/api/config", body, adminToken)
	if out.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", out.Status)
	}
	var verrs []xhttp.ValidationError
	if err := json.Unmarshal(out.Data, &verrs); err != nil {
		t.Fatalf("decode validation errors: %v", err)
	}
	if len(verrs) == 0 || verrs[0].Code != "ERR_GTFIELD" {
		t.Fatalf("expected ERR_GTFIELD, got %+v", verrs)
	}
}

func newAnalysisEcho(t *testing.T, store *memSampleStore, acc *memAccuracy) *echo.Echo {
	t.Helper()
	lgr := testLogger(t)
	configs, err := policy.NewConfigStore(nil)
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	uc := usecase.NewDriftAnalysisUseCase(store, acc, drift.NewEvaluator(stats.NewComparator()), configs, nopMetrics{}, lgr)
	h := NewDriftHandler(lgr, uc)
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func TestDriftAnalyzeEndpoint(t *testing.T) {
	store := &memSampleStore{
		features: map[models.ModelType][]string{models.ModelSolar: {"pyrano1"}},
		windows: map[string]*models.FeatureSample{
			"solar/pyrano1": {
				Name:     "pyrano1",
				Baseline: normalGrid(500, 800, 50, 0.3),
				Current:  normalGrid(200, 800, 50, 0.7),
			},
		},
	}
	e := newAnalysisEcho(t, store, &memAccuracy{value: 10.0, n: 40})

	rec, out := doReq(t, e, http.MethodGet, "/api/drift/analyze?model_type=solar", "", "")
	if rec.Code != http.StatusOK || out.Status != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", rec.Code, out.Status)
	}
	var analysis models.DriftAnalysis
	if err := json.Unmarshal(out.Data, &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if len(analysis.Verdicts) != 1 {
		t.Fatalf("expected one feature verdict, got %d", len(analysis.Verdicts))
	}
	if analysis.Detected() {
		t.Fatalf("expected no drift on identical distributions")
	}
	if analysis.Performance == nil || analysis.Performance.Detected {
		t.Fatalf("expected healthy performance snapshot, got %+v", analysis.Performance)
	}
}

func TestDriftAnalyzeInsufficientData(t *testing.T) {
	store := &memSampleStore{features: map[models.ModelType][]string{}}
	e := newAnalysisEcho(t, store, &memAccuracy{})

	_, out := doReq(t, e, http.MethodGet, "/api/drift/analyze?model_type=voltage", "", "")
	if out.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 in body, got %d", out.Status)
	}
	if got := firstAppErr(t, out.Data); got.Code != "ERR_INSUFFICIENT_DATA" {
		t.Fatalf("expected ERR_INSUFFICIENT_DATA, got %s", got.Code)
	}
}

func newABEcho(t *testing.T) (*echo.Echo, *registry.Registry) {
	t.Helper()
	lgr := testLogger(t)
	reg := registry.New(nil, lgr, nil)
	windCfg := models.DefaultRetrainingConfig(models.ModelWind)
	windCfg.ABMinSamples = 2
	configs, err := policy.NewConfigStore(map[models.ModelType]models.RetrainingConfig{
		models.ModelWind: windCfg,
	})
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	ctrl := abtest.NewController(reg, configs, lgr)
	h := NewABTestHandler(lgr, ctrl, auth.NewStaticTokenAuthorizer(adminToken))
	e := echo.New()
	h.RegisterRoutes(e)
	return e, reg
}

func TestABTestLifecycleOverHTTP(t *testing.T) {
	e, reg := newABEcho(t)
	installChampion(t, reg, models.ModelWind)
	cand, err := reg.RegisterCandidate(context.Background(), models.ModelWind, nil)
	if err != nil {
		t.Fatalf("register candidate: %v", err)
	}

	_, out := doReq(t, e, http.MethodPost, "/api/abtests",
		fmt.Sprintf(`{"model_type":"wind","challenger_version_id":%d,"sample_target":2}`, cand.VersionID), adminToken)
	if out.Status != http.StatusCreated {
		t.Fatalf("expected 201 on setup, got %d (%s)", out.Status, string(out.Data))
	}
	var s models.ABTestSession
	if err := json.Unmarshal(out.Data, &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if s.Status != models.ABRunning {
		t.Fatalf("expected running session, got %s", s.Status)
	}

	_, out = doReq(t, e, http.MethodGet, "/api/abtests/active?model_type=wind", "", "")
	if out.Status != http.StatusOK {
		t.Fatalf("expected active session visible, got %d", out.Status)
	}

	obsPath := "/api/abtests/" + s.ID + "/observations"
	for i := 0; i < 2; i++ {
		_, out = doReq(t, e, http.MethodPost, obsPath, `{"champion_metric":14.0,"challenger_metric":9.0}`, "")
		if out.Status != http.StatusOK {
			t.Fatalf("expected 200 on observation, got %d", out.Status)
		}
	}

	_, out = doReq(t, e, http.MethodPost, "/api/abtests/"+s.ID+"/conclude", `{"action":"auto"}`, adminToken)
	if out.Status != http.StatusOK {
		t.Fatalf("expected 200 on conclude, got %d (%s)", out.Status, string(out.Data))
	}
	var done models.ABTestSession
	if err := json.Unmarshal(out.Data, &done); err != nil {
		t.Fatalf("decode concluded session: %v", err)
	}
	if done.Status != models.ABPromoted {
		t.Fatalf("expected promoted, got %s", done.Status)
	}

	champ, err := reg.GetChampion(models.ModelWind)
	if err != nil || champ == nil || champ.VersionID != cand.VersionID {
		t.Fatalf("expected challenger promoted to champion, got %+v %v", champ, err)
	}

	_, out = doReq(t, e, http.MethodGet, "/api/abtests/active?model_type=wind", "", "")
	if out.Status != http.StatusNotFound {
		t.Fatalf("expected no active session after conclude, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodPost, "/api/abtests", fmt.Sprintf(`{"model_type":"wind","challenger_version_id":%d}`, cand.VersionID), adminToken)
	if out.Status != http.StatusConflict {
		t.Fatalf("expected conflict reusing champion as challenger, got %d", out.Status)
	}
}

type memStorage struct {
	obs []*models.Observation
}

func (s *memStorage) Init(ctx context.Context) error { return nil }

func (s *memStorage) Store(ctx context.Context, o *models.Observation) error {
	s.obs = append(s.obs, o)
	return nil
}

func (s *memStorage) StoreBatch(ctx context.Context, obs []*models.Observation) error {
	s.obs = append(s.obs, obs...)
	return nil
}

func (s *memStorage) StoreForecasts(ctx context.Context, samples []*models.ForecastSample) error {
	return nil
}

func (s *memStorage) Query(ctx context.Context, mt models.ModelType, feature string, from, to time.Time, limit int) ([]*models.Observation, error) {
	var out []*models.Observation
	for _, o := range s.obs {
		if o.ModelType != mt || o.Feature != feature {
			continue
		}
		if o.Timestamp.Before(from) || o.Timestamp.After(to) {
			continue
		}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memStorage) Health(ctx context.Context) error { return nil }
func (s *memStorage) Close() error                     { return nil }

func TestSamplesEndpoint(t *testing.T) {
	now := time.Now().UTC()
	store := &memStorage{}
	for i := 0; i < 5; i++ {
		store.obs = append(store.obs, &models.Observation{
			ModelType: models.ModelWind,
			SiteID:    "wf-12",
			Feature:   "wind_speed",
			Value:     8.0 + float64(i),
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	lgr := testLogger(t)
	h := NewSamplesHandler(lgr, usecase.NewSamplesUseCase(store))
	e := echo.New()
	h.RegisterRoutes(e)

	rec, out := doReq(t, e, http.MethodGet, "/api/samples?model_type=wind&feature=wind_speed&limit=3", "", "")
	if rec.Code != http.StatusOK || out.Status != http.StatusOK {
		t.Fatalf("expected 200/200, got %d/%d", rec.Code, out.Status)
	}
	var res usecase.GetSamplesResult
	if err := json.Unmarshal(out.Data, &res); err != nil {
		t.Fatalf("decode samples: %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("expected limit to cap at 3 points, got %d", res.Count)
	}

	_, out = doReq(t, e, http.MethodGet, "/api/samples?model_type=wind", "", "")
	if out.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 without feature, got %d", out.Status)
	}

	_, out = doReq(t, e, http.MethodGet,
		"/api/samples?model_type=wind&feature=wind_speed&from=2026-01-02T00:00:00Z&to=2026-01-01T00:00:00Z", "", "")
	if out.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", out.Status)
	}
}

func TestReportEndpoint(t *testing.T) {
	store := &memSampleStore{features: map[models.ModelType][]string{}}
	lgr := testLogger(t)
	configs, err := policy.NewConfigStore(nil)
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	reg := registry.New(nil, lgr, nil)
	installChampion(t, reg, models.ModelSolar)

	uc := usecase.NewDriftAnalysisUseCase(store, &memAccuracy{}, drift.NewEvaluator(stats.NewComparator()), configs, nopMetrics{}, lgr)
	h := NewReportHandler(uc, reg, configs)
	h.SetLogger(lgr)

	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/drift/report?model_type=solar", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var rep map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep["model_type"] != "solar" {
		t.Fatalf("expected solar report, got %v", rep["model_type"])
	}
	if rep["analysis_error"] == nil || rep["analysis_error"] == "" {
		t.Fatalf("expected analysis_error for empty store, got %v", rep["analysis_error"])
	}
	if rep["champion"] == nil {
		t.Fatalf("expected champion in report")
	}
	if rep["config"] == nil {
		t.Fatalf("expected config in report")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/drift/report?model_type=tidal", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad model type, got %d", rec.Code)
	}
}

func TestReportEndpointRateLimits(t *testing.T) {
	store := &memSampleStore{features: map[models.ModelType][]string{}}
	lgr := testLogger(t)
	configs, err := policy.NewConfigStore(nil)
	if err != nil {
		t.Fatalf("config store: %v", err)
	}
	reg := registry.New(nil, lgr, nil)

	uc := usecase.NewDriftAnalysisUseCase(store, &memAccuracy{}, drift.NewEvaluator(stats.NewComparator()), configs, nopMetrics{}, lgr)
	h := NewReportHandler(uc, reg, configs)
	h.SetLogger(lgr)

	e := echo.New()
	h.RegisterRoutes(e)

	limited := false
	for i := 0; i < 8; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/drift/report?model_type=wind", nil)
		req.RemoteAddr = "10.1.2.3:4444"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatalf("expected burst to hit the rate limit")
	}
}
