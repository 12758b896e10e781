package orgs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	orgService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := CreateOrganizationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	org := &models.Organization{
		Name: params.Name,
		Slug: params.Slug,
	}

	err := h.orgService.CreateOrganization(ctx, org)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, org))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Organization")
	}

	org, err := h.orgService.RetrieveOrganization(ctx, RetrieveOrganizationOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, org))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListOrganizationsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListOrganizationsOptions{
		Limit:          &params.Limit,
		Offset:         &params.Offset,
		IncludeDeleted: params.Deleted,
	}

	// Filter by the user's organization access if user is in context
	if user, ok := c.Get("user").(*models.User); ok {
		if orgIDs := user.AccessibleOrgIDs(); orgIDs != nil {
			opts.OrgIDs = orgIDs
		}
	}

	orgs, total, err := h.orgService.ListOrganizationsWithTotal(ctx, opts)
	if err != nil {
		return err
	}

	resp := struct {
		Organizations []*models.Organization `json:"organizations"`
		Total         int                    `json:"total"`
	}{orgs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Organization")
	}

	// Bind params.
	params := UpdateOrganizationPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Fetch the organization.
	org, err := h.orgService.RetrieveOrganization(ctx, RetrieveOrganizationOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	// Keep track of what's been changed.
	opts := UpdateOrganizationOptions{Columns: []string{}}

	if params.Name != nil && *params.Name != org.Name {
		org.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Slug != nil && *params.Slug != org.Slug {
		org.Slug = *params.Slug
		opts.Columns = append(opts.Columns, "slug")
	}
	if params.Deleted != nil && (*params.Deleted && org.DeletedAt == nil || !*params.Deleted && org.DeletedAt != nil) {
		if *params.Deleted {
			org.DeletedAt = pointerutil.Time(time.Now())
		} else {
			org.DeletedAt = nil
		}
		opts.Columns = append(opts.Columns, "deleted_at")
	}

	// Update the model.
	err = h.orgService.UpdateOrganization(ctx, org, opts)
	if err != nil {
		return err
	}

	// Reload the model.
	org, err = h.orgService.RetrieveOrganization(ctx, RetrieveOrganizationOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, org))
}
