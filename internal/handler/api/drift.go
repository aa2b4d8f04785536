package api

import (
	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/usecase"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
	"GridPulse/pkg/util"
)

type DriftHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.DriftAnalysisUseCase
}

func NewDriftHandler(logger *xlogger.Logger, analysis *usecase.DriftAnalysisUseCase) *DriftHandler {
	return &DriftHandler{
		logger:   logger,
		analysis: analysis,
	}
}

var _ xhttp.Handler = (*DriftHandler)(nil)

func (h *DriftHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/drift/analyze", h.Analyze)
}

// Analyze runs the full drift analysis for one model type on demand.
func (h *DriftHandler) Analyze(c echo.Context) error {
	req := &models.DriftAnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		ModelType:    models.ModelType(req.ModelType),
		BaselineSize: req.BaselineSize,
		CurrentSize:  req.CurrentSize,
		Features:     util.SplitCSV(req.Features),
	})
	if err != nil {
		return domainErrorResponse(c, h.logger, "drift analysis", err)
	}

	return xhttp.SuccessResponse(c, res)
}
