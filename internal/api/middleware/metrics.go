package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

// NewMetrics records request counts, durations and in-flight requests.
// statusOf maps an error that was not yet rendered to its response status.
func NewMetrics(m *metrics.HTTPMetrics, statusOf func(error) int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = statusOf(err)
			}

			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			m.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start).Seconds())

			return err
		}
	}
}
