package api

import (
	"github.com/labstack/echo/v4"

	xhttp "GridPulse/pkg/http"
)

// Mux bundles the API handlers into the single Handler the HTTP server
// accepts.
type Mux struct {
	handlers []xhttp.Handler
}

var _ xhttp.Handler = (*Mux)(nil)

func NewMux(handlers ...xhttp.Handler) *Mux {
	return &Mux{handlers: handlers}
}

func (m *Mux) RegisterRoutes(e *echo.Echo) {
	for _, h := range m.handlers {
		h.RegisterRoutes(e)
	}
}
