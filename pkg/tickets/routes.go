package tickets

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) *Service {
	ticketService := NewService(db, cfg.UploadDir)

	h := &handler{
		ticketService: ticketService,
	}

	tickets := e.Group("/tickets")
	tickets.Use(authMiddleware.Authenticate)

	tickets.GET("", h.list, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationRead))
	tickets.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationRead))
	tickets.POST("", h.create, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationWrite))
	tickets.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationWrite))
	tickets.POST("/:id/messages", h.reply, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationWrite))
	tickets.POST("/:id/close", h.close, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationWrite))
	tickets.GET("/attachments/:attachmentId", h.downloadAttachment, authMiddleware.RequirePermission(models.ResourceTickets, models.OperationRead))

	return ticketService
}
