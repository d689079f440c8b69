package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetSession returns the transcript for a session.
// GET /api/feedback/session/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	view, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ClearSession deletes all state for a session.
// DELETE /api/feedback/session/:session_id
func (h *Handler) ClearSession(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if err := h.service.ClearSession(ctx, sessionID); err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"cleared": true})
}
