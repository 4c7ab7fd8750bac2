package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/acousticvault/internal/api/handlers"
	mw "github.com/tphakala/acousticvault/internal/api/middleware"
	"github.com/tphakala/acousticvault/internal/buildinfo"
	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/history"
	"github.com/tphakala/acousticvault/internal/logger"
	"github.com/tphakala/acousticvault/internal/observability"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// Server is the public HTTP server of AcousticVault.
// It manages the echo instance, middleware and routes.
type Server struct {
	// Core components
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	log      logger.Logger

	// Dependencies
	classifier classifier.Classifier
	store      history.Store
	publisher  handlers.Publisher
	metrics    *observability.Metrics
	buildInfo  buildinfo.BuildInfo

	handlers *handlers.Handlers

	// Lifecycle management
	mu       sync.Mutex
	listener net.Listener
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithClassifier sets the classifier used by POST /predict.
func WithClassifier(c classifier.Classifier) ServerOption {
	return func(s *Server) {
		s.classifier = c
	}
}

// WithStore sets the prediction history store.
func WithStore(store history.Store) ServerOption {
	return func(s *Server) {
		s.store = store
	}
}

// WithPublisher sets the publisher notified of every recorded prediction.
func WithPublisher(p handlers.Publisher) ServerOption {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithBuildInfo sets the build metadata reported by GET /health.
func WithBuildInfo(info buildinfo.BuildInfo) ServerOption {
	return func(s *Server) {
		s.buildInfo = info
	}
}

// WithLogger overrides the api module logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// New creates a new HTTP server with the given settings and options.
// A classifier and a history store are required.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		settings: settings,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = GetLogger()
	}
	if s.classifier == nil || s.store == nil {
		return nil, errors.Newf("api server requires a classifier and a history store").
			Component("api").
			Category(errors.CategoryConfiguration).
			Build()
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Debug = config.Debug
	s.echo.HTTPErrorHandler = handlers.HTTPErrorHandler(s.log)

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.log.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.String("classifier", s.classifier.Name()),
		logger.String("history_backend", s.store.Backend()),
		logger.Bool("debug", config.Debug))

	return s, nil
}

func (s *Server) httpMetrics() *metrics.HTTPMetrics {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.HTTP
}

// setupMiddleware configures the echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(mw.NewRecover(s.log))

	s.echo.Use(mw.NewRequestID())
	s.echo.Use(mw.NewMetrics(s.httpMetrics(), handlers.StatusCode))
	s.echo.Use(mw.NewRequestLogger(s.log))

	securityConfig := mw.DefaultSecurityConfig()
	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.handlers = handlers.New(handlers.Dependencies{
		Classifier: s.classifier,
		Store:      s.store,
		Publisher:  s.publisher,
		Metrics:    s.httpMetrics(),
		BuildInfo:  s.buildInfo,
		Logger:     s.log,
		Window:     s.config.HistoryWindow,
	})
	s.handlers.Register(s.echo)
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Address()

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return errors.New(err).
			Component("api").
			Category(errors.CategoryNetwork).
			Context("address", addr).
			Build()
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.echo.Listener = ln

	s.log.Info("Starting HTTP server", logger.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.startBlocking()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// startBlocking serves on the prepared listener until the server is shut down.
func (s *Server) startBlocking() error {
	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.New(err).
			Component("api").
			Category(errors.CategoryNetwork).
			Build()
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		return errors.New(err).
			Component("api").
			Category(errors.CategorySystem).
			Context("operation", "shutdown").
			Build()
	}

	s.log.Info("Server shutdown complete")
	return nil
}

// Addr returns the address the server listens on, or "" before Run.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Echo returns the underlying echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config returns the effective server configuration.
func (s *Server) Config() *Config {
	return s.config
}
