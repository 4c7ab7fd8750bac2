package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SecurityConfig holds configuration for security middleware.
type SecurityConfig struct {
	// CORS settings. An empty AllowedOrigins accepts every origin and echoes
	// it back, which browsers require when credentials are allowed.
	AllowedOrigins   []string
	AllowCredentials bool

	// Content Security Policy
	ContentSecurityPolicy string
}

// DefaultSecurityConfig returns the open CORS policy the public API runs with.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		AllowCredentials: true,
	}
}

// NewCORS creates a CORS middleware with the given configuration.
// Preflight requests get the requested headers reflected back.
func NewCORS(config SecurityConfig) echo.MiddlewareFunc {
	cors := middleware.CORSConfig{
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowCredentials: config.AllowCredentials,
		ExposeHeaders:    []string{echo.HeaderXRequestID},
	}

	if len(config.AllowedOrigins) == 0 {
		cors.AllowOriginFunc = func(string) (bool, error) { return true, nil }
	} else {
		cors.AllowOrigins = config.AllowedOrigins
	}

	return middleware.CORSWithConfig(cors)
}

// NewSecureHeaders creates a middleware that sets security-related HTTP headers.
func NewSecureHeaders(config SecurityConfig) echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: config.ContentSecurityPolicy,
	})
}

// NewBodyLimit creates a middleware that limits the request body size.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
