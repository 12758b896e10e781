package orgs

import (
	"github.com/labstack/echo/v4"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) *Service {
	orgService := NewService(db)

	h := &handler{
		orgService: orgService,
	}

	orgs := e.Group("/orgs")
	orgs.Use(authMiddleware.Authenticate)

	orgs.GET("", h.list, authMiddleware.RequirePermission(models.ResourceOrgs, models.OperationRead))
	orgs.GET("/:id", h.retrieve, authMiddleware.RequirePermission(models.ResourceOrgs, models.OperationRead), authMiddleware.RequireOrgAccess("id"))
	orgs.POST("", h.create, authMiddleware.RequirePermission(models.ResourceOrgs, models.OperationWrite))
	orgs.POST("/:id", h.update, authMiddleware.RequirePermission(models.ResourceOrgs, models.OperationWrite), authMiddleware.RequireOrgAccess("id"))

	return orgService
}
