// Package handlers implements the AcousticVault HTTP endpoints.
package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/tphakala/acousticvault/internal/buildinfo"
	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/history"
	"github.com/tphakala/acousticvault/internal/logger"
	"github.com/tphakala/acousticvault/internal/observability/metrics"
)

// SystemName is reported by GET /.
const SystemName = "AcousticVault"

// Publisher receives every successful prediction after it has been recorded.
// Implementations must not block the request.
type Publisher interface {
	PublishPrediction(e history.Entry, p classifier.Prediction)
}

// Dependencies are the collaborators of the handlers. Classifier and Store are
// required; the rest may be nil.
type Dependencies struct {
	Classifier classifier.Classifier
	Store      history.Store
	Publisher  Publisher
	Metrics    *metrics.HTTPMetrics
	BuildInfo  buildinfo.BuildInfo
	Logger     logger.Logger
	Window     int
}

// Handlers serves the public API routes.
type Handlers struct {
	classifier classifier.Classifier
	store      history.Store
	publisher  Publisher
	metrics    *metrics.HTTPMetrics
	buildInfo  buildinfo.BuildInfo
	log        logger.Logger
	window     int

	// memoryUsedPercent is swapped in tests
	memoryUsedPercent memoryProbe
}

// New creates the handlers. A non-positive window falls back to 10.
func New(deps Dependencies) *Handlers {
	h := &Handlers{
		classifier:        deps.Classifier,
		store:             deps.Store,
		publisher:         deps.Publisher,
		metrics:           deps.Metrics,
		buildInfo:         deps.BuildInfo,
		log:               deps.Logger,
		window:            deps.Window,
		memoryUsedPercent: virtualMemoryUsedPercent,
	}
	if h.log == nil {
		h.log = logger.Global().Module("api")
	}
	if h.window <= 0 {
		h.window = 10
	}
	return h
}

// Register mounts the routes on e.
func (h *Handlers) Register(e *echo.Echo) {
	e.GET("/", h.Status)
	e.POST("/predict", h.Predict)
	e.GET("/history", h.History)
	e.GET("/health", h.Health)
}
