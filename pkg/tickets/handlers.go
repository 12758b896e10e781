package tickets

import (
	"mime/multipart"
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
	ticketService *Service
}

func attachmentInputs(files map[string]*multipart.FileHeader) ([]AttachmentInput, func(), error) {
	inputs := []AttachmentInput{}
	opened := []multipart.File{}
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, errors.WithStack(err)
		}
		opened = append(opened, f)
		inputs = append(inputs, AttachmentInput{Filename: header.Filename, Reader: f})
	}

	return inputs, closeAll, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateTicketPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	attachments, closeFiles, err := attachmentInputs(params.FormFiles)
	if err != nil {
		return err
	}
	defer closeFiles()

	ticket, err := h.ticketService.CreateTicket(ctx, CreateTicketOptions{
		UserID:      userID,
		Subject:     params.Subject,
		Body:        htmlutil.Sanitize(params.Body),
		Priority:    params.Priority,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, ticket))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListTicketsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListTicketsOptions{
		Statuses: params.Statuses,
		Priority: params.Priority,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}

	// Students only see their own tickets.
	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}
	if !user.IsSupportStaff() {
		opts.UserID = &user.ID
	}

	tickets, total, err := h.ticketService.ListTicketsWithTotal(ctx, opts)
	if err != nil {
		return err
	}

	resp := struct {
		Tickets []*models.Ticket `json:"tickets"`
		Total   int              `json:"total"`
	}{tickets, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Ticket")
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	opts := RetrieveTicketOptions{ID: id}
	if !user.IsSupportStaff() {
		opts.UserID = &user.ID
	}

	ticket, err := h.ticketService.RetrieveTicket(ctx, opts)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, ticket))
}

func (h *handler) reply(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Ticket")
	}

	params := ReplyPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	attachments, closeFiles, err := attachmentInputs(params.FormFiles)
	if err != nil {
		return err
	}
	defer closeFiles()

	message, err := h.ticketService.AddMessage(ctx, AddMessageOptions{
		TicketID:    id,
		AuthorID:    user.ID,
		IsStaff:     user.IsSupportStaff(),
		Body:        htmlutil.Sanitize(params.Body),
		Attachments: attachments,
	})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, message))
}

func (h *handler) close(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Ticket")
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	opts := CloseTicketOptions{ID: id}
	if !user.IsSupportStaff() {
		opts.UserID = &user.ID
	}

	ticket, err := h.ticketService.CloseTicket(ctx, opts)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, ticket))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Ticket")
	}

	params := UpdateTicketPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}
	if !user.IsSupportStaff() {
		return errcodes.Forbidden("Updating tickets")
	}

	ticket := &models.Ticket{}
	columns := []string{}
	if params.Priority != nil {
		ticket.Priority = *params.Priority
		columns = append(columns, "priority")
	}
	if len(columns) == 0 {
		return errcodes.ValidationError("No fields to update.")
	}

	if err := h.ticketService.UpdateTicket(ctx, ticket, UpdateTicketOptions{ID: id, Columns: columns}); err != nil {
		return err
	}

	updated, err := h.ticketService.RetrieveTicket(ctx, RetrieveTicketOptions{ID: id})
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, updated))
}

func (h *handler) downloadAttachment(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("attachmentId"))
	if err != nil {
		return errcodes.NotFound("Attachment")
	}

	user, err := auth.GetUserFromContext(c)
	if err != nil {
		return err
	}

	var userID *int
	if !user.IsSupportStaff() {
		userID = &user.ID
	}

	attachment, err := h.ticketService.OpenAttachment(ctx, userID, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.Attachment(attachment.StoragePath, attachment.Filename))
}
