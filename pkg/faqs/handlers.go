package faqs

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/htmlutil"
	"github.com/tutorahq/tutora/pkg/models"
)

type handler struct {
	faqService *Service
}

func faqListResponse(faqs []*models.FAQ) interface{} {
	return struct {
		FAQs []*models.FAQ `json:"faqs"`
	}{faqs}
}

// publicList serves published entries to everyone.
func (h *handler) publicList(c echo.Context) error {
	ctx := c.Request().Context()

	faqs, err := h.faqService.ListFAQs(ctx, ListFAQsOptions{PublishedOnly: true})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, faqListResponse(faqs)))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	faqs, err := h.faqService.ListFAQs(ctx, ListFAQsOptions{})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, faqListResponse(faqs)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("FAQ")
	}

	faq, err := h.faqService.RetrieveFAQ(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, faq))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateFAQPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	faq := &models.FAQ{
		Question:  params.Question,
		Answer:    htmlutil.Sanitize(params.Answer),
		Published: params.Published,
	}
	err := h.faqService.CreateFAQ(ctx, faq)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, faq))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("FAQ")
	}

	params := UpdateFAQPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	faq, err := h.faqService.RetrieveFAQ(ctx, id)
	if err != nil {
		return err
	}

	columns := []string{}
	if params.Question != nil && *params.Question != faq.Question {
		faq.Question = *params.Question
		columns = append(columns, "question")
	}
	if params.Answer != nil {
		sanitized := htmlutil.Sanitize(*params.Answer)
		if sanitized != faq.Answer {
			faq.Answer = sanitized
			columns = append(columns, "answer")
		}
	}
	if params.Published != nil && *params.Published != faq.Published {
		faq.Published = *params.Published
		columns = append(columns, "published")
	}

	err = h.faqService.UpdateFAQ(ctx, faq, columns)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, faq))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("FAQ")
	}

	err = h.faqService.DeleteFAQ(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"message": "FAQ deleted successfully"}))
}

// reorder applies a full permutation of the FAQ list.
func (h *handler) reorder(c echo.Context) error {
	ctx := c.Request().Context()

	params := ReorderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err := h.faqService.ReorderFAQs(ctx, params.Items)
	if err != nil {
		return err
	}

	faqs, err := h.faqService.ListFAQs(ctx, ListFAQsOptions{})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, faqListResponse(faqs)))
}

// move places one entry at a specific 1-based position.
func (h *handler) move(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("FAQ")
	}

	params := MovePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err = h.faqService.MoveFAQToPosition(ctx, id, params.Position)
	if err != nil {
		return err
	}

	faqs, err := h.faqService.ListFAQs(ctx, ListFAQsOptions{})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, faqListResponse(faqs)))
}
