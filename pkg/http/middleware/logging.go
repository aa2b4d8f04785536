package middleware

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per request. Probe endpoints are skipped to
// keep scrape traffic out of the request log.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if req.URL.Path == "/metrics" || req.URL.Path == "/healthz" {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			// The error handler has not run yet, so take the status from the
			// returned error where there is one.
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			if err != nil {
				log.Printf("[%s] %s %s - %d (%s) err=%v",
					req.Method, req.RequestURI, req.RemoteAddr, status, latency, err)
			} else {
				log.Printf("[%s] %s %s - %d (%s)",
					req.Method, req.RequestURI, req.RemoteAddr, status, latency)
			}

			return err
		}
	}
}
