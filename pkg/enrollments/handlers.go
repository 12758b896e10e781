package enrollments

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	enrollmentService *Service
}

func (h *handler) enroll(c echo.Context) error {
	ctx := c.Request().Context()

	params := EnrollPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	enrollment, err := h.enrollmentService.Enroll(ctx, EnrollOptions{
		UserID:    userID,
		CourseID:  params.CourseID,
		PaymentID: params.PaymentID,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, enrollment))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListEnrollmentsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	enrollments, total, err := h.enrollmentService.ListEnrollmentsWithTotal(ctx, ListEnrollmentsOptions{
		UserID: userID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}

	resp := struct {
		Enrollments []*models.Enrollment `json:"enrollments"`
		Total       int                  `json:"total"`
	}{enrollments, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Enrollment")
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	enrollment, err := h.enrollmentService.RetrieveEnrollment(ctx, userID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, enrollment))
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Enrollment")
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	enrollment, err := h.enrollmentService.CancelEnrollment(ctx, userID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, enrollment))
}

func (h *handler) completeLesson(c echo.Context) error {
	ctx := c.Request().Context()

	lessonID, err := strconv.Atoi(c.Param("lessonId"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	err = h.enrollmentService.CompleteLesson(ctx, userID, lessonID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Lesson marked complete"}))
}

func (h *handler) courseProgress(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := strconv.Atoi(c.Param("courseId"))
	if err != nil {
		return errcodes.NotFound("Course")
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	progress, err := h.enrollmentService.GetCourseProgress(ctx, userID, courseID)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, progress))
}
