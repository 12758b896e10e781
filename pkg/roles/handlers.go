package roles

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	roleService *Service
}

// roleID parses the :id path param. A non-numeric id reads the same as a
// missing role to the caller.
func roleID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Role")
	}
	return id, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	role, err := h.roleService.Create(ctx, params.Name, params.Permissions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, role)
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := roleID(c)
	if err != nil {
		return err
	}

	role, err := h.roleService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, role)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListRolesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	roles, total, err := h.roleService.List(ctx, ListOptions(params))
	if err != nil {
		return err
	}

	resp := struct {
		Roles []*models.Role `json:"roles"`
		Total int            `json:"total"`
	}{roles, total}

	return c.JSON(http.StatusOK, resp)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := roleID(c)
	if err != nil {
		return err
	}

	params := UpdateRolePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Only a non-empty list replaces the permission set.
	var permissions *[]PermissionInput
	if len(params.Permissions) > 0 {
		permissions = &params.Permissions
	}

	role, err := h.roleService.Update(ctx, id, params.Name, permissions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, role)
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := roleID(c)
	if err != nil {
		return err
	}

	if err := h.roleService.Delete(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Role deleted successfully"})
}
