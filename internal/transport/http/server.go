// Package http provides the HTTP server for the feedback service.
package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/glintlab/feedbackd/internal/auth"
	"github.com/glintlab/feedbackd/internal/config"
	"github.com/glintlab/feedbackd/internal/service"
	"github.com/glintlab/feedbackd/internal/transport/http/api"
)

// NewServer creates and configures the widget-facing HTTP server.
func NewServer(svc *service.Service, table *auth.Table, cfg *config.Config, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	// CORS stays permissive so preflights always succeed; access control is
	// the API key middleware, not the browser.
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			"X-API-Key",
			"X-Origin-Domain",
			"X-GitHub-Repo",
			"X-User-Name",
			"X-User-Email",
		},
		MaxAge: 86400,
	}))

	// Handlers
	handler := api.NewHandler(svc, table, cfg, log)
	handler.RegisterRoutes(e)

	return e
}
