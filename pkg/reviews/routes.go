package reviews

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	reviewService := NewService(db)

	h := &handler{
		reviewService: reviewService,
	}

	// Course reviews are part of the public catalog.
	e.GET("/catalog/courses/:id/reviews", h.publicList, authMiddleware.AuthenticateOptional)

	reviews := e.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate)

	reviews.GET("", h.list, authMiddleware.RequirePermission(models.ResourceReviews, models.OperationRead))
	reviews.POST("", h.create, authMiddleware.RequirePermission(models.ResourceReviews, models.OperationWrite))
	reviews.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceReviews, models.OperationWrite))
	reviews.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceReviews, models.OperationWrite))

	return reviewService
}
