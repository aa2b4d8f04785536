package api

import (
	"github.com/labstack/echo/v4"

	domsvc "GridPulse/internal/domain/service"
	xhttp "GridPulse/pkg/http"
)

// AdminTokenHeader carries the shared operator token on mutating routes.
const AdminTokenHeader = "X-Admin-Token"

// requireAdmin rejects mutating requests whose token the authorizer refuses.
// A nil authorizer leaves the route open, used in tests and local runs.
func requireAdmin(auth domsvc.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth != nil && !auth.Allow(c.Request().Header.Get(AdminTokenHeader)) {
				return xhttp.AppErrorResponse(c, xhttp.UnauthorizedError("admin token missing or invalid"))
			}
			return next(c)
		}
	}
}
