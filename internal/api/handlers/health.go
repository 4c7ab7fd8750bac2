package handlers

import (
	"context"
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/tphakala/acousticvault/internal/buildinfo"
	"github.com/tphakala/acousticvault/internal/logger"
)

// Health status values.
const (
	HealthStatusHealthy  = "healthy"
	HealthStatusDegraded = "degraded"
)

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status         string       `json:"status"`
	Version        string       `json:"version"`
	BuildDate      string       `json:"build_date"`
	Uptime         string       `json:"uptime"`
	UptimeSeconds  float64      `json:"uptime_seconds"`
	Timestamp      string       `json:"timestamp"`
	Classifier     string       `json:"classifier"`
	HistoryBackend string       `json:"history_backend"`
	HistorySize    int          `json:"history_size"`
	System         SystemHealth `json:"system"`
}

// SystemHealth describes the host and the process.
type SystemHealth struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	Goroutines        int     `json:"goroutines"`
}

type memoryProbe func(ctx context.Context) (float64, error)

func virtualMemoryUsedPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Health reports build metadata, uptime, backend state and resource usage.
// A failing history backend turns the status to degraded with HTTP 503.
func (h *Handlers) Health(c echo.Context) error {
	ctx := c.Request().Context()

	resp := HealthResponse{
		Status:         HealthStatusHealthy,
		Version:        buildinfo.UnknownValue,
		BuildDate:      buildinfo.UnknownValue,
		Timestamp:      time.Now().Format(time.RFC3339),
		Classifier:     h.classifier.Name(),
		HistoryBackend: h.store.Backend(),
		System:         SystemHealth{Goroutines: runtime.NumGoroutine()},
	}

	if h.buildInfo != nil {
		uptime := time.Since(h.buildInfo.StartedAt())
		resp.Version = h.buildInfo.Version()
		resp.BuildDate = h.buildInfo.BuildDate()
		resp.Uptime = uptime.Round(time.Second).String()
		resp.UptimeSeconds = math.Round(uptime.Seconds()*100) / 100
	}

	code := http.StatusOK
	size, err := h.store.Len(ctx)
	if err != nil {
		h.log.WithContext(ctx).Warn("history backend unhealthy", logger.Error(err))
		resp.Status = HealthStatusDegraded
		code = http.StatusServiceUnavailable
	}
	resp.HistorySize = size

	if used, err := h.memoryUsedPercent(ctx); err != nil {
		h.log.Debug("memory stats unavailable", logger.Error(err))
	} else {
		resp.System.MemoryUsedPercent = math.Round(used*100) / 100
	}

	return c.JSON(code, resp)
}
