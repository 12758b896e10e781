package courses

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	courseService := NewService(db)

	h := &handler{
		courseService: courseService,
	}

	// Public catalog. AuthenticateOptional so enrolled users still resolve.
	catalog := e.Group("/catalog")
	catalog.Use(authMiddleware.AuthenticateOptional)
	catalog.GET("/courses", h.catalogList)
	catalog.GET("/courses/:slug", h.catalogRetrieve)

	// Course management.
	courses := e.Group("/courses")
	courses.Use(authMiddleware.Authenticate)
	courses.GET("", h.list, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationRead))
	courses.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationRead))
	courses.POST("", h.create, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	courses.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	courses.POST("/:id/publish", h.publish, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))
	courses.POST("/:id/archive", h.archive, authMiddleware.RequirePermission(models.ResourceCourses, models.OperationWrite))

	return courseService
}
