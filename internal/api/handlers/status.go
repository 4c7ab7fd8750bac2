package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// StatusResponse is the fixed payload of GET /.
type StatusResponse struct {
	Status string `json:"status"`
	System string `json:"system"`
}

// Status reports that the service is up. It has no side effects.
func (h *Handlers) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "online", System: SystemName})
}
