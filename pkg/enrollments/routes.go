package enrollments

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	enrollmentService := NewService(db)

	h := &handler{
		enrollmentService: enrollmentService,
	}

	enrollments := e.Group("/enrollments")
	enrollments.Use(authMiddleware.Authenticate)

	enrollments.GET("", h.list, authMiddleware.RequirePermission(models.ResourceEnrollments, models.OperationRead))
	enrollments.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceEnrollments, models.OperationRead))
	enrollments.POST("", h.enroll, authMiddleware.RequirePermission(models.ResourceEnrollments, models.OperationWrite))
	enrollments.POST("/:id/cancel", h.cancel, authMiddleware.RequirePermission(models.ResourceEnrollments, models.OperationWrite))
	enrollments.POST("/lessons/:lessonId/complete", h.completeLesson, authMiddleware.RequirePermission(models.ResourceEnrollments, models.OperationWrite))
	enrollments.GET("/progress/:courseId", h.courseProgress, authMiddleware.RequirePermission(models.ResourceEnrollments, models.OperationRead))

	return enrollmentService
}
