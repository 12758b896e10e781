package jobs

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	jobService := NewService(db)

	h := &handler{
		jobService: jobService,
	}

	jobs := e.Group("/jobs")
	jobs.Use(authMiddleware.Authenticate)

	jobs.GET("", h.list, authMiddleware.RequirePermission(models.ResourceConfig, models.OperationRead))
	jobs.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceConfig, models.OperationRead))
	jobs.POST("", h.create, authMiddleware.RequirePermission(models.ResourceConfig, models.OperationWrite))

	return jobService
}
