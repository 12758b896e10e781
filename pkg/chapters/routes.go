package chapters

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	chapterService := NewService(db)

	h := &handler{
		chapterService: chapterService,
	}

	chapters := e.Group("/courses/:courseId/chapters")
	chapters.Use(authMiddleware.Authenticate)

	chapters.GET("", h.list, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationRead))
	chapters.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationRead))
	chapters.POST("", h.create, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	chapters.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	chapters.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	chapters.PUT("/reorder", h.reorder, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	chapters.POST("/:id/move", h.move, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))

	return chapterService
}
