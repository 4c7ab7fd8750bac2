package middleware

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// NewRequestID assigns every request a UUID, honouring an incoming
// X-Request-ID header, and stores it in the request context as the log trace id.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithTraceID(req.Context(), id)))
		},
	})
}

// NewRecover turns panics into system errors that the echo error handler
// renders as 500. The stack is logged, never sent to the client.
func NewRecover(log logger.Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.WithContext(c.Request().Context()).Error("panic recovered",
				logger.Error(err),
				logger.String("path", c.Request().URL.Path),
				logger.String("stack", string(stack)))

			return errors.New(fmt.Errorf("panic: %w", err)).
				Component("api").
				Category(errors.CategorySystem).
				Context("path", c.Path()).
				Build()
		},
	})
}
