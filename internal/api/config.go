// Package api provides the HTTP server for AcousticVault.
// This package wires the echo instance, middleware and lifecycle while the
// route handlers live in the handlers subpackage.
package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/logger"
)

// GetLogger returns the api package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api")
}

// Default constants for the HTTP server.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "32M"
	DefaultHistoryWindow   = 10
)

// Config holds the HTTP server configuration.
type Config struct {
	// Server binding
	Host string // Host to bind to, 0.0.0.0 for all interfaces
	Port int    // Port to listen on, 0 picks a free port

	// Timeouts
	ReadTimeout     time.Duration // Maximum duration for reading request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum time to wait for next request
	ShutdownTimeout time.Duration // Maximum time to wait for graceful shutdown

	// Limits
	BodyLimit     string // Maximum request body size (e.g., "1M", "32M")
	HistoryWindow int    // Entries returned by GET /history

	Debug bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		BodyLimit:       DefaultBodyLimit,
		HistoryWindow:   DefaultHistoryWindow,
	}
}

// ConfigFromSettings creates a Config from the application settings.
// Zero values in settings keep the defaults.
func ConfigFromSettings(settings *conf.Settings) *Config {
	config := DefaultConfig()
	if settings == nil {
		return config
	}

	ws := settings.WebServer
	if ws.Host != "" {
		config.Host = ws.Host
	}
	config.Port = ws.Port
	if ws.ReadTimeout > 0 {
		config.ReadTimeout = ws.ReadTimeout
	}
	if ws.WriteTimeout > 0 {
		config.WriteTimeout = ws.WriteTimeout
	}
	if ws.ShutdownTimeout > 0 {
		config.ShutdownTimeout = ws.ShutdownTimeout
	}
	if ws.BodyLimit != "" {
		config.BodyLimit = ws.BodyLimit
	}
	if settings.History.Window > 0 {
		config.HistoryWindow = settings.History.Window
	}
	config.Debug = settings.Debug

	return config
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Newf("invalid port %d", c.Port).
			Component("api").
			Category(errors.CategoryConfiguration).
			Context("port", c.Port).
			Build()
	}
	if c.HistoryWindow <= 0 {
		return errors.Newf("history window must be positive, got %d", c.HistoryWindow).
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if c.ShutdownTimeout <= 0 {
		return errors.Newf("shutdown timeout must be positive").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Address returns the host:port the server binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Address: %s, BodyLimit: %s, HistoryWindow: %d, Debug: %v}",
		c.Address(), c.BodyLimit, c.HistoryWindow, c.Debug)
}
