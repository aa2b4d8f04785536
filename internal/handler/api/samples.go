package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	"GridPulse/internal/usecase"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
	"GridPulse/pkg/util"
)

// SamplesHandler exposes the raw observation points a feature window is
// built from, for inspecting what a drift verdict actually saw.
type SamplesHandler struct {
	logger  *xlogger.Logger
	samples *usecase.SamplesUseCase
}

func NewSamplesHandler(logger *xlogger.Logger, samples *usecase.SamplesUseCase) *SamplesHandler {
	return &SamplesHandler{
		logger:  logger,
		samples: samples,
	}
}

var _ xhttp.Handler = (*SamplesHandler)(nil)

func (h *SamplesHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/samples", h.Get)
}

func (h *SamplesHandler) Get(c echo.Context) error {
	req := &models.GetSamplesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(req.To, now)
	if to.Before(from) {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{
			{Field: "to", Message: "must not be before from"},
		})
	}

	res, err := h.samples.GetSamples(c.Request().Context(), usecase.GetSamplesParams{
		ModelType: models.ModelType(req.ModelType),
		Feature:   req.Feature,
		From:      from,
		To:        to,
		Limit:     req.Limit,
	})
	if err != nil {
		return domainErrorResponse(c, h.logger, "get samples", err)
	}

	return xhttp.SuccessResponse(c, res)
}
