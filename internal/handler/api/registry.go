package api

import (
	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/services/registry"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
)

type RegistryHandler struct {
	logger   *xlogger.Logger
	registry *registry.Registry
	auth     domsvc.Authorizer
}

func NewRegistryHandler(logger *xlogger.Logger, reg *registry.Registry, auth domsvc.Authorizer) *RegistryHandler {
	return &RegistryHandler{
		logger:   logger,
		registry: reg,
		auth:     auth,
	}
}

var _ xhttp.Handler = (*RegistryHandler)(nil)

func (h *RegistryHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/models/champion", h.Champion)
	g.GET("/models/history", h.History)

	admin := requireAdmin(h.auth)
	g.POST("/models/candidates", h.RegisterCandidate, admin)
	g.POST("/models/promote", h.Promote, admin)
	g.POST("/models/rollback", h.Rollback, admin)
}

func (h *RegistryHandler) RegisterCandidate(c echo.Context) error {
	req := &models.RegisterCandidateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	v, err := h.registry.RegisterCandidate(c.Request().Context(), models.ModelType(req.ModelType), req.MetricsSnapshot)
	if err != nil {
		return domainErrorResponse(c, h.logger, "register candidate", err)
	}

	return xhttp.CreatedResponse(c, v)
}

// Promote moves a version to challenger or, outside an A/B run, to champion.
// Promoting straight to champion is how the first champion gets bootstrapped.
func (h *RegistryHandler) Promote(c echo.Context) error {
	req := &models.PromoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		v   *models.ModelVersion
		err error
	)
	mt := models.ModelType(req.ModelType)
	switch req.To {
	case string(models.RoleChallenger):
		v, err = h.registry.PromoteToChallenger(c.Request().Context(), mt, req.VersionID)
	case string(models.RoleChampion):
		v, err = h.registry.PromoteToChampion(c.Request().Context(), mt, req.VersionID)
	}
	if err != nil {
		return domainErrorResponse(c, h.logger, "promote", err)
	}

	return xhttp.SuccessResponse(c, v)
}

func (h *RegistryHandler) Champion(c echo.Context) error {
	req := &models.ChampionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	v, err := h.registry.GetChampion(models.ModelType(req.ModelType))
	if err != nil {
		return domainErrorResponse(c, h.logger, "get champion", err)
	}
	if v == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no champion for model type %s", req.ModelType))
	}

	return xhttp.SuccessResponse(c, v)
}

func (h *RegistryHandler) History(c echo.Context) error {
	req := &models.ModelHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	recs, total, err := h.registry.History(models.ModelType(req.ModelType), req.Page, req.PerPage)
	if err != nil {
		return domainErrorResponse(c, h.logger, "model history", err)
	}

	return xhttp.ListResponse(c, recs, int64(total))
}

// Rollback restores the previous champion and retires the current one.
func (h *RegistryHandler) Rollback(c echo.Context) error {
	req := &models.RollbackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	v, err := h.registry.Rollback(c.Request().Context(), models.ModelType(req.ModelType))
	if err != nil {
		return domainErrorResponse(c, h.logger, "rollback", err)
	}

	return xhttp.SuccessResponse(c, v)
}
