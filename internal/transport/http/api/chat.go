package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glintlab/feedbackd/internal/service"
)

// Chat handles one conversation turn from the widget.
// POST /api/feedback/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	meta := callerMeta(c)

	var req service.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.User = meta.User

	result, err := h.service.HandleChat(ctx, meta, req)
	if err != nil {
		return h.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
