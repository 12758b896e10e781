package lessons

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
	lessonService *Service
}

func (h *handler) pathIDs(c echo.Context) (courseID, chapterID int, err error) {
	courseID, err = strconv.Atoi(c.Param("courseId"))
	if err != nil {
		return 0, 0, errcodes.NotFound("Course")
	}
	chapterID, err = strconv.Atoi(c.Param("chapterId"))
	if err != nil {
		return 0, 0, errcodes.NotFound("Chapter")
	}
	return courseID, chapterID, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	_, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}

	lessons, err := h.lessonService.ListLessons(ctx, chapterID)
	if err != nil {
		return err
	}

	resp := struct {
		Lessons []*models.Lesson `json:"lessons"`
	}{lessons}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// retrieve serves a lesson. Users who cannot edit courses only get the full
// content when the lesson is a free preview or they hold an active enrollment.
func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	lesson, err := h.lessonService.RetrieveLesson(ctx, chapterID, id)
	if err != nil {
		return err
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	if !user.HasPermission(models.ResourceCourses, models.OperationWrite) && !lesson.FreePreview {
		enrolled, err := h.lessonService.HasActiveEnrollment(ctx, user.ID, courseID)
		if err != nil {
			return err
		}
		if !enrolled {
			return errcodes.PaymentRequired("Enroll in this course to access the lesson.")
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, lesson))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}

	params := CreateLessonPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	lesson := &models.Lesson{
		ChapterID:       chapterID,
		Title:           params.Title,
		Content:         htmlutil.Sanitize(params.Content),
		VideoURL:        params.VideoURL,
		DurationSeconds: params.DurationSeconds,
		FreePreview:     params.FreePreview,
	}
	err = h.lessonService.CreateLesson(ctx, courseID, lesson)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, lesson))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	_, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	params := UpdateLessonPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	lesson, err := h.lessonService.RetrieveLesson(ctx, chapterID, id)
	if err != nil {
		return err
	}

	columns := []string{}
	if params.Title != nil && *params.Title != lesson.Title {
		lesson.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Content != nil {
		sanitized := htmlutil.Sanitize(*params.Content)
		if sanitized != lesson.Content {
			lesson.Content = sanitized
			columns = append(columns, "content")
		}
	}
	if params.VideoURL != nil {
		lesson.VideoURL = params.VideoURL
		columns = append(columns, "video_url")
	}
	if params.DurationSeconds != nil {
		lesson.DurationSeconds = params.DurationSeconds
		columns = append(columns, "duration_seconds")
	}
	if params.FreePreview != nil && *params.FreePreview != lesson.FreePreview {
		lesson.FreePreview = *params.FreePreview
		columns = append(columns, "free_preview")
	}

	err = h.lessonService.UpdateLesson(ctx, lesson, columns)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, lesson))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	_, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	err = h.lessonService.DeleteLesson(ctx, chapterID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Lesson deleted successfully"}))
}

// reorder applies a full permutation of the chapter's lessons.
func (h *handler) reorder(c echo.Context) error {
	ctx := c.Request().Context()

	_, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}

	params := ReorderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.lessonService.ReorderLessons(ctx, ReorderLessonsOptions{
		ChapterID: chapterID,
		Positions: params.Items,
	})
	if err != nil {
		return err
	}

	lessons, err := h.lessonService.ListLessons(ctx, chapterID)
	if err != nil {
		return err
	}

	resp := struct {
		Lessons []*models.Lesson `json:"lessons"`
	}{lessons}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// move places one lesson at a specific 1-based position.
func (h *handler) move(c echo.Context) error {
	ctx := c.Request().Context()

	_, chapterID, err := h.pathIDs(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Lesson")
	}

	params := MovePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.lessonService.MoveLessonToPosition(ctx, chapterID, id, params.Position)
	if err != nil {
		return err
	}

	lessons, err := h.lessonService.ListLessons(ctx, chapterID)
	if err != nil {
		return err
	}

	resp := struct {
		Lessons []*models.Lesson `json:"lessons"`
	}{lessons}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
