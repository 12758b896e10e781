package payments

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, provider Provider, authMiddleware *auth.Middleware) *Service {
	paymentService := NewService(db, provider)

	h := &handler{
		config:         cfg,
		paymentService: paymentService,
	}

	payments := e.Group("/payments")

	// The provider calls this one; it carries no user session.
	payments.POST("/webhook", h.webhook)

	payments.GET("", h.list, authMiddleware.Authenticate, authMiddleware.RequirePermission(models.ResourcePayments, models.OperationRead))
	payments.GET("/:id", h.retrieve, authMiddleware.Authenticate, authMiddleware.RequirePermission(models.ResourcePayments, models.OperationRead))
	payments.POST("/checkout", h.createCheckout, authMiddleware.Authenticate, authMiddleware.RequirePermission(models.ResourcePayments, models.OperationWrite))

	return paymentService
}
