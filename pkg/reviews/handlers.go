package reviews

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/htmlutil"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	reviewService *Service
}

func (h *handler) publicList(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Course")
	}

	params := ListReviewsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	reviews, total, err := h.reviewService.ListReviewsWithTotal(ctx, ListReviewsOptions{
		CourseID: &courseID,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return err
	}

	resp := struct {
		Reviews []*models.Review `json:"reviews"`
		Total   int              `json:"total"`
	}{reviews, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateReviewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	review, err := h.reviewService.CreateReview(ctx, CreateReviewOptions{
		UserID:   userID,
		CourseID: params.CourseID,
		Rating:   params.Rating,
		Title:    params.Title,
		Body:     htmlutil.Sanitize(params.Body),
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, review))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListReviewsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	opts := ListReviewsOptions{
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.CourseID != nil {
		opts.CourseID = params.CourseID
	} else {
		// Without a course filter, users browse their own reviews.
		opts.UserID = &userID
	}

	reviews, total, err := h.reviewService.ListReviewsWithTotal(ctx, opts)
	if err != nil {
		return err
	}

	resp := struct {
		Reviews []*models.Review `json:"reviews"`
		Total   int              `json:"total"`
	}{reviews, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Review")
	}

	params := UpdateReviewPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	review := &models.Review{}
	columns := []string{}
	if params.Rating != nil {
		review.Rating = *params.Rating
		columns = append(columns, "rating")
	}
	if params.Title != nil {
		review.Title = params.Title
		columns = append(columns, "title")
	}
	if params.Body != nil {
		review.Body = htmlutil.Sanitize(*params.Body)
		columns = append(columns, "body")
	}
	if len(columns) == 0 {
		return errcodes.ValidationError("No fields to update.")
	}

	err = h.reviewService.UpdateReview(ctx, review, UpdateReviewOptions{
		ID:      id,
		UserID:  userID,
		Columns: columns,
	})
	if err != nil {
		return err
	}

	updated, err := h.reviewService.RetrieveReview(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, updated))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Review")
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	opts := DeleteReviewOptions{ID: id}
	if !user.IsModerator() {
		opts.UserID = &user.ID
	}

	if err := h.reviewService.DeleteReview(ctx, opts); err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Review deleted"}))
}
