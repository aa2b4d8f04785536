package api

import (
	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	domsvc "GridPulse/internal/domain/service"
	"GridPulse/internal/services/policy"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
)

type ConfigHandler struct {
	logger  *xlogger.Logger
	configs *policy.ConfigStore
	auth    domsvc.Authorizer
}

func NewConfigHandler(logger *xlogger.Logger, configs *policy.ConfigStore, auth domsvc.Authorizer) *ConfigHandler {
	return &ConfigHandler{
		logger:  logger,
		configs: configs,
		auth:    auth,
	}
}

var _ xhttp.Handler = (*ConfigHandler)(nil)

func (h *ConfigHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/config", h.Get)
	g.PUT("/config", h.Update, requireAdmin(h.auth))
}

// Get returns the effective retraining config for one model type.
func (h *ConfigHandler) Get(c echo.Context) error {
	req := &models.ConfigGetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg := h.configs.Get(models.ModelType(req.ModelType))
	return xhttp.SuccessResponse(c, cfg)
}

// Update replaces the config for one model type. Cross-field rules are
// checked by the store before anything is applied.
func (h *ConfigHandler) Update(c echo.Context) error {
	req := &models.ConfigUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	mt := models.ModelType(req.ModelType)
	if err := h.configs.Update(mt, req.ToConfig()); err != nil {
		return domainErrorResponse(c, h.logger, "config update", err)
	}

	h.logger.Audit("retraining config updated", xlogger.String("model_type", req.ModelType))
	return xhttp.SuccessResponse(c, h.configs.Get(mt))
}
