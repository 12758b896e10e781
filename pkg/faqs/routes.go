package faqs

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	faqService := NewService(db)

	h := &handler{
		faqService: faqService,
	}

	// Published FAQs are public.
	e.GET("/catalog/faqs", h.publicList, authMiddleware.AuthenticateOptional)

	faqs := e.Group("/faqs")
	faqs.Use(authMiddleware.Authenticate)

	faqs.GET("", h.list, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationRead))
	faqs.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationRead))
	faqs.POST("", h.create, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationWrite))
	faqs.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationWrite))
	faqs.DELETE("/:id", h.delete, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationWrite))
	faqs.PUT("/reorder", h.reorder, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationWrite))
	faqs.POST("/:id/move", h.move, authMiddleware.RequirePermission(models.ResourceFAQs, models.OperationWrite))

	return faqService
}
