package courses

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/htmlutil"
	"github.com/tutorahq/tutora/pkg/models"
)

// summaryLength caps the derived plain-text summary shown on catalog cards.
const summaryLength = 280

type handler struct {
	courseService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := CreateCoursePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Instructors can only create courses in organizations they manage.
	if user, ok := c.Get("user").(*models.User); ok && !user.HasOrgAccess(params.OrganizationID) {
		return errcodes.Forbidden("You don't have access to this organization")
	}

	description := htmlutil.Sanitize(params.Description)
	course := &models.Course{
		OrganizationID: params.OrganizationID,
		Slug:           params.Slug,
		Title:          params.Title,
		Description:    description,
		Summary:        htmlutil.Summarize(description, summaryLength),
		Status:         models.CourseStatusDraft,
		PriceCents:     params.PriceCents,
	}
	if params.Currency != nil {
		course.Currency = *params.Currency
	}

	err := h.courseService.CreateCourse(ctx, course)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, course))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Course")
	}

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{
		ID:                &id,
		IncludeCurriculum: true,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// Bind params.
	params := ListCoursesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListCoursesOptions{
		Limit:          &params.Limit,
		Offset:         &params.Offset,
		OrganizationID: params.OrganizationID,
		Status:         params.Status,
		Search:         params.Search,
		IncludeDeleted: params.Deleted,
	}

	// Scope management listings to the user's organizations.
	if user, ok := c.Get("user").(*models.User); ok {
		if orgIDs := user.AccessibleOrgIDs(); orgIDs != nil {
			opts.OrgIDs = orgIDs
		}
	}

	courses, total, err := h.courseService.ListCoursesWithTotal(ctx, opts)
	if err != nil {
		return err
	}

	resp := struct {
		Courses []*models.Course `json:"courses"`
		Total   int              `json:"total"`
	}{courses, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// catalogList is the public course catalog: published courses only.
func (h *handler) catalogList(c echo.Context) error {
	ctx := c.Request().Context()

	params := CatalogQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	status := models.CourseStatusPublished
	opts := ListCoursesOptions{
		Limit:          &params.Limit,
		Offset:         &params.Offset,
		OrganizationID: params.OrganizationID,
		Status:         &status,
		Search:         params.Search,
	}

	courses, total, err := h.courseService.ListCoursesWithTotal(ctx, opts)
	if err != nil {
		return err
	}

	resp := struct {
		Courses []*models.Course `json:"courses"`
		Total   int              `json:"total"`
	}{courses, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// catalogRetrieve returns a published course with its full curriculum,
// looked up by slug.
func (h *handler) catalogRetrieve(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{
		Slug:              &slug,
		PublishedOnly:     true,
		IncludeCurriculum: true,
	})
	if err != nil {
		return err
	}

	// Lesson bodies are gated behind enrollment. The catalog view exposes
	// titles and durations only, except for free-preview lessons.
	for _, chapter := range course.Chapters {
		for _, lesson := range chapter.Lessons {
			if !lesson.FreePreview {
				lesson.Content = ""
				lesson.VideoURL = nil
			}
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Course")
	}

	// Bind params.
	params := UpdateCoursePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// Fetch the course.
	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	if user, ok := c.Get("user").(*models.User); ok && !user.HasOrgAccess(course.OrganizationID) {
		return errcodes.Forbidden("You don't have access to this organization")
	}

	// Keep track of what's been changed.
	opts := UpdateCourseOptions{Columns: []string{}}

	if params.Title != nil && *params.Title != course.Title {
		course.Title = *params.Title
		opts.Columns = append(opts.Columns, "title")
	}
	if params.Slug != nil && *params.Slug != course.Slug {
		course.Slug = *params.Slug
		opts.Columns = append(opts.Columns, "slug")
	}
	if params.Description != nil {
		description := htmlutil.Sanitize(*params.Description)
		if description != course.Description {
			course.Description = description
			course.Summary = htmlutil.Summarize(description, summaryLength)
			opts.Columns = append(opts.Columns, "description", "summary")
		}
	}
	if params.PriceCents != nil && *params.PriceCents != course.PriceCents {
		course.PriceCents = *params.PriceCents
		opts.Columns = append(opts.Columns, "price_cents")
	}
	if params.Currency != nil && *params.Currency != course.Currency {
		course.Currency = *params.Currency
		opts.Columns = append(opts.Columns, "currency")
	}
	if params.Deleted != nil && (*params.Deleted && course.DeletedAt == nil || !*params.Deleted && course.DeletedAt != nil) {
		if *params.Deleted {
			course.DeletedAt = pointerutil.Time(time.Now())
		} else {
			course.DeletedAt = nil
		}
		opts.Columns = append(opts.Columns, "deleted_at")
	}

	// Update the model.
	err = h.courseService.UpdateCourse(ctx, course, opts)
	if err != nil {
		return err
	}

	// Reload the model.
	course, err = h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) publish(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Course")
	}

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	if user, ok := c.Get("user").(*models.User); ok && !user.HasOrgAccess(course.OrganizationID) {
		return errcodes.Forbidden("You don't have access to this organization")
	}

	err = h.courseService.PublishCourse(ctx, course)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}

func (h *handler) archive(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Course")
	}

	course, err := h.courseService.RetrieveCourse(ctx, RetrieveCourseOptions{
		ID: &id,
	})
	if err != nil {
		return err
	}

	if user, ok := c.Get("user").(*models.User); ok && !user.HasOrgAccess(course.OrganizationID) {
		return errcodes.Forbidden("You don't have access to this organization")
	}

	err = h.courseService.ArchiveCourse(ctx, course)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, course))
}
