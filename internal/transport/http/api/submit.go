package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glintlab/feedbackd/internal/service"
)

// Submit files an issue from caller-provided feedback data.
// POST /api/feedback/submit
func (h *Handler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	meta := callerMeta(c)

	var req service.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.User = meta.User

	result, err := h.service.Submit(ctx, meta, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// AnalyzeRequest names the session to analyze.
type AnalyzeRequest struct {
	SessionID string `json:"session_id"`
}

// Analyze distills a session transcript into structured feedback data
// without creating an issue.
// POST /api/feedback/analyze
func (h *Handler) Analyze(c echo.Context) error {
	ctx := c.Request().Context()

	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	fd, err := h.service.Analyze(ctx, req.SessionID)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"feedback": fd,
	})
}
