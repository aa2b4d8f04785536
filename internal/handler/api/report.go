package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	icache "GridPulse/internal/service/cache"
	"GridPulse/internal/service/metrics"
	"GridPulse/internal/service/ratelimit"
	"GridPulse/internal/services/policy"
	"GridPulse/internal/services/registry"
	"GridPulse/internal/usecase"
	applogger "GridPulse/pkg/logger"
)

// driftReport is the dashboard view of one model type: the latest analysis
// next to the registry and policy state it will be judged against.
type driftReport struct {
	ModelType     models.ModelType        `json:"model_type"`
	Analysis      *models.DriftAnalysis   `json:"analysis,omitempty"`
	AnalysisError string                  `json:"analysis_error,omitempty"`
	Champion      *models.ModelVersion    `json:"champion,omitempty"`
	ActiveSession *models.ABTestSession   `json:"active_session,omitempty"`
	Config        models.RetrainingConfig `json:"config"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

// ReportHandler serves the aggregated drift report on plain net/http. The
// analysis fan-out is expensive, so responses are cached and callers are
// rate limited per remote address.
type ReportHandler struct {
	analysis    *usecase.DriftAnalysisUseCase
	registry    *registry.Registry
	configs     *policy.ConfigStore
	cache       icache.BytesCache
	rl          *ratelimit.Limiter
	l           *applogger.Logger
	defBaseline int
	defCurrent  int
	cacheTTL    time.Duration
}

func NewReportHandler(analysis *usecase.DriftAnalysisUseCase, reg *registry.Registry, configs *policy.ConfigStore) *ReportHandler {
	metrics.Register()
	return &ReportHandler{
		analysis:    analysis,
		registry:    reg,
		configs:     configs,
		rl:          ratelimit.New(),
		defBaseline: 1000,
		defCurrent:  500,
		cacheTTL:    30 * time.Second,
	}
}

func (h *ReportHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *ReportHandler) SetLogger(l *applogger.Logger) { h.l = l }

// SetWindows overrides the default sample windows and cache TTL. Zero values
// keep the built-in defaults.
func (h *ReportHandler) SetWindows(baseline, current int, ttl time.Duration) {
	if baseline > 0 {
		h.defBaseline = baseline
	}
	if current > 0 {
		h.defCurrent = current
	}
	if ttl > 0 {
		h.cacheTTL = ttl
	}
}

func (h *ReportHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/drift/report", echo.WrapHandler(h.Report()))
}

func (h *ReportHandler) Report() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "drift_report"
		defer func() { metrics.ReportLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		mt, ok := models.NormalizeModelType(r.URL.Query().Get("model_type"))
		if !ok {
			if h.l != nil {
				h.l.Warn("report bad model_type", applogger.String("model_type", r.URL.Query().Get("model_type")))
			}
			http.Error(w, "model_type must be one of solar, wind, voltage", http.StatusBadRequest)
			return
		}
		baseline := parseQueryInt(r.URL.Query().Get("baseline_size"), h.defBaseline)
		current := parseQueryInt(r.URL.Query().Get("current_size"), h.defCurrent)

		if !h.rl.Allow(r.RemoteAddr+":report", 5, 2) {
			if h.l != nil {
				h.l.Warn("report rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		cacheKey := "report:" + string(mt) + ":" + strconv.Itoa(baseline) + ":" + strconv.Itoa(current)
		if h.cache != nil {
			if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
				if h.l != nil {
					h.l.Warn("report cache_get_error", applogger.Error(err))
				}
			} else if ok {
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("report cache_hit", applogger.String("key", cacheKey))
				}
				if _, err := w.Write(b); err != nil && h.l != nil {
					h.l.Warn("report write_error", applogger.Error(err))
				}
				return
			}
			if h.l != nil {
				h.l.Debug("report cache_miss", applogger.String("key", cacheKey))
			}
		}

		rep, err := h.build(r, mt, baseline, current)
		if err != nil {
			metrics.ReportErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("report error", applogger.Error(err))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		b, err := json.Marshal(rep)
		if err != nil {
			if h.l != nil {
				h.l.Error("report marshal_error", applogger.Error(err))
			}
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.SetBytes(cacheKey, b, h.cacheTTL); err != nil && h.l != nil {
				h.l.Warn("report cache_set_error", applogger.Error(err))
			}
		}
		if _, err := w.Write(b); err != nil && h.l != nil {
			h.l.Warn("report write_error", applogger.Error(err))
		}
	}
}

// build assembles the report. A thin sample window is reported inside the
// payload rather than failing the whole page; registry and config state are
// still worth showing.
func (h *ReportHandler) build(r *http.Request, mt models.ModelType, baseline, current int) (*driftReport, error) {
	rep := &driftReport{
		ModelType:   mt,
		Config:      h.configs.Get(mt),
		GeneratedAt: time.Now().UTC(),
	}

	analysis, err := h.analysis.Analyze(r.Context(), usecase.AnalyzeParams{
		ModelType:    mt,
		BaselineSize: baseline,
		CurrentSize:  current,
	})
	switch {
	case err == nil:
		rep.Analysis = analysis
	default:
		var insufficient *models.InsufficientDataError
		if !errors.As(err, &insufficient) {
			return nil, err
		}
		rep.AnalysisError = insufficient.Error()
	}

	champion, err := h.registry.GetChampion(mt)
	if err != nil {
		return nil, err
	}
	rep.Champion = champion

	session, err := h.registry.ActiveSession(mt)
	if err != nil {
		return nil, err
	}
	rep.ActiveSession = session

	return rep, nil
}

func parseQueryInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
