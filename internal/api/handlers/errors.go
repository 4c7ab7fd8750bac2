package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// StatusClientClosedRequest is reported when the client went away before the
// response was ready.
const StatusClientClosedRequest = 499

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // matches the X-Request-ID response header
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int, correlationID string) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	if correlationID == "" {
		correlationID = uuid.NewString()[:8]
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// StatusCode maps an error to the HTTP status it is reported with.
func StatusCode(err error) int {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryUpstream, errors.CategoryNetwork:
		return http.StatusBadGateway
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryCancellation:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// HandleError logs err and renders it as an ErrorResponse with the status
// derived from its category.
func (h *Handlers) HandleError(c echo.Context, err error, message string) error {
	return writeError(c, h.log, err, message)
}

// HTTPErrorHandler renders errors that escape handlers and middleware, such as
// unknown routes, oversized bodies and recovered panics.
func HTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		message := http.StatusText(StatusCode(err))
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
		}

		if writeErr := writeError(c, log, err, message); writeErr != nil {
			log.Warn("failed to write error response", logger.Error(writeErr))
		}
	}
}

func writeError(c echo.Context, log logger.Logger, err error, message string) error {
	code := StatusCode(err)
	resp := NewErrorResponse(err, message, code, c.Response().Header().Get(echo.HeaderXRequestID))

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Error(err),
		logger.Int("code", code),
		logger.String("path", c.Request().URL.Path),
		logger.String("method", c.Request().Method),
		logger.String("ip", c.RealIP()),
	}
	reqLog := log.WithContext(c.Request().Context())
	if code >= http.StatusInternalServerError {
		reqLog.Error("API error", fields...)
	} else {
		reqLog.Warn("API error", fields...)
	}

	if c.Request().Method == http.MethodHead {
		return c.NoContent(code)
	}
	return c.JSON(code, resp)
}
