// Package api provides the HTTP handlers for the feedback service.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glintlab/feedbackd/internal/adapter/github"
	"github.com/glintlab/feedbackd/internal/auth"
	"github.com/glintlab/feedbackd/internal/config"
	"github.com/glintlab/feedbackd/internal/domain"
	"github.com/glintlab/feedbackd/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	table   *auth.Table
	cfg     *config.Config
	log     *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, table *auth.Table, cfg *config.Config, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{service: svc, table: table, cfg: cfg, log: log}
}

// RegisterRoutes registers routes with the echo server. Everything under
// /api/feedback requires a valid (API key, origin domain) pair.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/feedback", h.requireAPIKey)
	g.POST("/chat", h.Chat)
	g.POST("/submit", h.Submit)
	g.POST("/analyze", h.Analyze)
	g.GET("/session/:session_id", h.GetSession)
	g.DELETE("/session/:session_id", h.ClearSession)
	g.GET("/config", h.ConfigInfo)

	e.GET("/health", h.Health)
}

const callerMetaKey = "caller_meta"

// requireAPIKey validates the X-API-Key header against the caller's origin
// domain and stashes the resulting caller metadata on the request context.
func (h *Handler) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		apiKey := c.Request().Header.Get("X-API-Key")
		domainName := c.Request().Header.Get("X-Origin-Domain")
		if domainName == "" {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				origin = c.Request().Referer()
			}
			domainName = auth.DomainFromOrigin(origin)
		}

		entry, authErr := h.table.Validate(apiKey, domainName)
		if authErr != nil {
			status := http.StatusUnauthorized
			if authErr.ServerFault() {
				status = http.StatusInternalServerError
			}
			h.log.Warn("request rejected",
				slog.String("code", string(authErr.Code)),
				slog.String("domain", domainName),
				slog.String("path", c.Path()))
			return c.JSON(status, map[string]string{
				"error": authErr.Message,
				"code":  string(authErr.Code),
			})
		}

		c.Set(callerMetaKey, service.CallerMeta{
			Domain: entry.Domain,
			Repo:   c.Request().Header.Get("X-GitHub-Repo"),
			User: domain.UserIdentity{
				Name:  c.Request().Header.Get("X-User-Name"),
				Email: c.Request().Header.Get("X-User-Email"),
			},
		})
		return next(c)
	}
}

func callerMeta(c echo.Context) service.CallerMeta {
	if meta, ok := c.Get(callerMetaKey).(service.CallerMeta); ok {
		return meta
	}
	return service.CallerMeta{}
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// ConfigInfo reports which optional capabilities are configured, so the
// widget can adjust its UI. No secrets are exposed.
// GET /api/feedback/config
func (h *Handler) ConfigInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ai_enabled":      h.cfg.AIConfigured() || h.cfg.Mode == "MOCK",
		"tracker_enabled": h.cfg.TrackerConfigured(),
		"welcome_message": domain.WelcomeMessage,
	})
}

// errorResponse maps service errors to HTTP responses. Tracker failures keep
// the upstream status and message: swallowing them would hide lost feedback.
func (h *Handler) errorResponse(c echo.Context, err error) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case domain.ErrCodeSessionIDInvalid, domain.ErrCodeMessageInvalid, domain.ErrCodeFeedbackInvalid:
		status = http.StatusBadRequest
	case domain.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case domain.ErrCodeNoAIService, domain.ErrCodeTrackerNotConfigured:
		status = http.StatusServiceUnavailable
	case domain.ErrCodeAIQuotaExceeded, domain.ErrCodeAINetwork:
		status = http.StatusServiceUnavailable
	case domain.ErrCodeAIInvalidCredential, domain.ErrCodeAIPermissionDenied, domain.ErrCodeAIUnknown:
		status = http.StatusInternalServerError
	case domain.ErrCodeSubmissionBlocked:
		status = http.StatusUnprocessableEntity
	case domain.ErrCodeTracker:
		var apiErr *github.APIError
		if errors.As(appErr.Cause, &apiErr) && apiErr.StatusCode >= 400 {
			status = apiErr.StatusCode
			return c.JSON(status, map[string]string{
				"error": apiErr.Message,
				"code":  appErr.Code,
			})
		}
	}

	return c.JSON(status, map[string]string{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
