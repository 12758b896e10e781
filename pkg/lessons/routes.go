package lessons

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	lessonService := NewService(db)

	h := &handler{
		lessonService: lessonService,
	}

	lessons := e.Group("/courses/:courseId/chapters/:chapterId/lessons")
	lessons.Use(authMiddleware.Authenticate)

	lessons.GET("", h.list, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationRead))
	lessons.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationRead))
	lessons.POST("", h.create, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	lessons.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	lessons.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	lessons.PUT("/reorder", h.reorder, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	lessons.POST("/:id/move", h.move, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))

	return lessonService
}
