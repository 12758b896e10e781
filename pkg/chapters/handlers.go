package chapters

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	chapterService *Service
}

func (h *handler) courseID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("courseId"))
	if err != nil {
		return 0, errcodes.NotFound("Course")
	}
	return id, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}

	chapters, err := h.chapterService.ListChapters(ctx, courseID)
	if err != nil {
		return err
	}

	resp := struct {
		Chapters []*models.Chapter `json:"chapters"`
	}{chapters}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	chapter, err := h.chapterService.RetrieveChapter(ctx, courseID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}

	params := CreateChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter := &models.Chapter{
		CourseID: courseID,
		Title:    params.Title,
	}
	err = h.chapterService.CreateChapter(ctx, chapter)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, chapter))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	params := UpdateChapterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	chapter, err := h.chapterService.RetrieveChapter(ctx, courseID, id)
	if err != nil {
		return err
	}

	columns := []string{}
	if params.Title != nil && *params.Title != chapter.Title {
		chapter.Title = *params.Title
		columns = append(columns, "title")
	}

	err = h.chapterService.UpdateChapter(ctx, chapter, columns)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, chapter))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	err = h.chapterService.DeleteChapter(ctx, courseID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "Chapter deleted successfully"}))
}

// reorder applies a full permutation of the course's chapters.
func (h *handler) reorder(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}

	params := ReorderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.chapterService.ReorderChapters(ctx, ReorderChaptersOptions{
		CourseID:  courseID,
		Positions: params.Items,
	})
	if err != nil {
		return err
	}

	chapters, err := h.chapterService.ListChapters(ctx, courseID)
	if err != nil {
		return err
	}

	resp := struct {
		Chapters []*models.Chapter `json:"chapters"`
	}{chapters}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// move places one chapter at a specific 1-based position.
func (h *handler) move(c echo.Context) error {
	ctx := c.Request().Context()

	courseID, err := h.courseID(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Chapter")
	}

	params := MovePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.chapterService.MoveChapterToPosition(ctx, courseID, id, params.Position)
	if err != nil {
		return err
	}

	chapters, err := h.chapterService.ListChapters(ctx, courseID)
	if err != nil {
		return err
	}

	resp := struct {
		Chapters []*models.Chapter `json:"chapters"`
	}{chapters}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
