package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"GridPulse/internal/domain/models"
	xhttp "GridPulse/pkg/http"
	xlogger "GridPulse/pkg/logger"
)

// toAppError translates typed domain errors into transport errors.
// Unrecognized errors return nil and fall through to a generic 500.
func toAppError(err error) *xhttp.AppError {
	var (
		insufficient *models.InsufficientDataError
		transition   *models.InvalidTransitionError
		session      *models.SessionConflictError
		noPrior      *models.NoPriorChampionError
		concurrent   *models.ConcurrentModificationError
		config       *models.ConfigValidationError
	)
	switch {
	case errors.As(err, &insufficient):
		return xhttp.UnprocessableError(insufficient.Error()).
			WithCode("ERR_INSUFFICIENT_DATA").
			WithParam("model_type", string(insufficient.ModelType)).
			WithParam("needed", insufficient.Needed).
			WithParam("got", insufficient.Got)
	case errors.As(err, &transition):
		return xhttp.ConflictError(transition.Error()).
			WithCode("ERR_INVALID_TRANSITION").
			WithParam("model_type", string(transition.ModelType)).
			WithParam("version_id", transition.VersionID)
	case errors.As(err, &session):
		return xhttp.ConflictError(session.Error()).
			WithCode("ERR_SESSION_CONFLICT").
			WithParam("model_type", string(session.ModelType)).
			WithParam("session_id", session.SessionID)
	case errors.As(err, &noPrior):
		return xhttp.ConflictError(noPrior.Error()).
			WithCode("ERR_NO_PRIOR_CHAMPION").
			WithParam("model_type", string(noPrior.ModelType))
	case errors.As(err, &concurrent):
		// Lost TryLock race. Safe to retry after backoff.
		return xhttp.ConflictError(concurrent.Error()).
			WithCode("ERR_CONCURRENT_MODIFICATION").
			WithParam("model_type", string(concurrent.ModelType)).
			WithParam("retryable", true)
	case errors.As(err, &config):
		return xhttp.NewAppError("ERR_CONFIG_INVALID", config.Field, config.Error(), http.StatusBadRequest).
			WithParam("model_type", string(config.ModelType))
	}
	return nil
}

// domainErrorResponse logs and renders a usecase error, preferring the typed
// domain mapping over the generic AppError fallback.
func domainErrorResponse(c echo.Context, l *xlogger.Logger, op string, err error) error {
	if app := toAppError(err); app != nil {
		l.Warn(op+" rejected", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, app)
	}
	l.Error(op+" failed", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
