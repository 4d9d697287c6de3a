package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nagriksetu/report-service/internal/api/http/handlers"
	"github.com/nagriksetu/report-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Reports         *handlers.ReportsHandler
	Admin           *handlers.AdminHandler
	AdminMiddleware *auth.AdminMiddleware
	UploadDir       string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Static("/uploads", cfg.UploadDir)

	api := app.Group("/api")
	api.Post("/report", cfg.Reports.SubmitReport)
	api.Get("/reports", cfg.Reports.ListReports)
	api.Post("/report/:id/vote", cfg.Reports.Vote)
	api.Post("/report/:id/status", cfg.AdminMiddleware.Handle, cfg.Reports.SetStatus)

	api.Post("/admin/login", cfg.Admin.Login)
}
