package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// History returns the most recent entries, oldest first. An empty history
// renders as [].
func (h *Handlers) History(c echo.Context) error {
	entries, err := h.store.Last(c.Request().Context(), h.window)
	if err != nil {
		return h.HandleError(c, err, "failed to read history")
	}
	return c.JSON(http.StatusOK, entries)
}
