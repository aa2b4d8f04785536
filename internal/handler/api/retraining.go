package api

import (
	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/usecase"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
)

type RetrainingHandler struct {
	logger     *xlogger.Logger
	retraining *usecase.RetrainingUseCase
	auth       domsvc.Authorizer
}

func NewRetrainingHandler(logger *xlogger.Logger, retraining *usecase.RetrainingUseCase, auth domsvc.Authorizer) *RetrainingHandler {
	return &RetrainingHandler{
		logger:     logger,
		retraining: retraining,
		auth:       auth,
	}
}

var _ xhttp.Handler = (*RetrainingHandler)(nil)

func (h *RetrainingHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/retraining/evaluate", h.Evaluate)
	g.POST("/retraining/trigger", h.Trigger, requireAdmin(h.auth))
}

// Evaluate runs the policy without side effects and returns the decision.
func (h *RetrainingHandler) Evaluate(c echo.Context) error {
	req := &models.RetrainingEvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	decision, err := h.retraining.Evaluate(c.Request().Context(), models.ModelType(req.ModelType))
	if err != nil {
		return domainErrorResponse(c, h.logger, "retraining evaluate", err)
	}

	return xhttp.SuccessResponse(c, decision)
}

// Trigger evaluates and, when warranted or forced, dispatches a training run.
func (h *RetrainingHandler) Trigger(c echo.Context) error {
	req := &models.RetrainingTriggerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	decision, err := h.retraining.Trigger(c.Request().Context(), models.ModelType(req.ModelType), req.Force)
	if err != nil {
		return domainErrorResponse(c, h.logger, "retraining trigger", err)
	}

	return xhttp.SuccessResponse(c, decision)
}
