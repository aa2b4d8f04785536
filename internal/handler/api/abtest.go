package api

import (
	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/services/abtest"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
)

type ABTestHandler struct {
	logger  *xlogger.Logger
	abtests *abtest.Controller
	auth    domsvc.Authorizer
}

func NewABTestHandler(logger *xlogger.Logger, abtests *abtest.Controller, auth domsvc.Authorizer) *ABTestHandler {
	return &ABTestHandler{
		logger:  logger,
		abtests: abtests,
		auth:    auth,
	}
}

var _ xhttp.Handler = (*ABTestHandler)(nil)

func (h *ABTestHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/abtests/active", h.Active)
	g.GET("/abtests/:id", h.Get)
	g.POST("/abtests/:id/observations", h.Observe)

	admin := requireAdmin(h.auth)
	g.POST("/abtests", h.Setup, admin)
	g.POST("/abtests/:id/conclude", h.Conclude, admin)
}

// Setup promotes a candidate to challenger and opens a comparison session.
func (h *ABTestHandler) Setup(c echo.Context) error {
	req := &models.ABSetupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.abtests.Setup(c.Request().Context(), models.ModelType(req.ModelType), req.ChallengerVersionID, req.SampleTarget)
	if err != nil {
		return domainErrorResponse(c, h.logger, "ab setup", err)
	}

	return xhttp.CreatedResponse(c, s)
}

// Observe records one paired accuracy sample for a running session.
func (h *ABTestHandler) Observe(c echo.Context) error {
	req := &models.ABObservationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.abtests.Observe(c.Request().Context(), c.Param("id"), req.ChampionMetric, req.ChallengerMetric)
	if err != nil {
		return domainErrorResponse(c, h.logger, "ab observe", err)
	}

	return xhttp.SuccessResponse(c, s)
}

// Conclude settles a session: auto applies the configured win rule, promote
// and rollback override it.
func (h *ABTestHandler) Conclude(c echo.Context) error {
	req := &models.ABConcludeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.abtests.Conclude(c.Request().Context(), c.Param("id"), req.Action)
	if err != nil {
		return domainErrorResponse(c, h.logger, "ab conclude", err)
	}

	return xhttp.SuccessResponse(c, s)
}

func (h *ABTestHandler) Get(c echo.Context) error {
	s, err := h.abtests.Get(c.Param("id"))
	if err != nil {
		return domainErrorResponse(c, h.logger, "ab get", err)
	}

	return xhttp.SuccessResponse(c, s)
}

// Active returns the running session for a model type, if any.
func (h *ABTestHandler) Active(c echo.Context) error {
	req := &models.ABActiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.abtests.Active(models.ModelType(req.ModelType))
	if err != nil {
		return domainErrorResponse(c, h.logger, "ab active", err)
	}
	if s == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no active session for model type %s", req.ModelType))
	}

	return xhttp.SuccessResponse(c, s)
}
