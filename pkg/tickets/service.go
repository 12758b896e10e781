package tickets

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/fileutils"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

const maxAttachmentSizeBytes = 10 << 20

type Service struct {
	db        *bun.DB
	uploadDir string
}

func NewService(db *bun.DB, uploadDir string) *Service {
	return &Service{db: db, uploadDir: uploadDir}
}

// AttachmentInput is an uploaded file before it is written to storage. The
// content type is sniffed from the bytes, not taken from the client.
type AttachmentInput struct {
	Filename string
	Reader   io.Reader
}

type CreateTicketOptions struct {
	UserID      int
	Subject     string
	Body        string
	Priority    string
	Attachments []AttachmentInput
}

// CreateTicket opens a ticket with its first message. Attachments on the
// payload are attached to that message.
func (svc *Service) CreateTicket(ctx context.Context, opts CreateTicketOptions) (*models.Ticket, error) {
	if opts.Priority == "" {
		opts.Priority = models.TicketPriorityNormal
	}

	now := time.Now()
	ticket := &models.Ticket{
		CreatedAt: now,
		UpdatedAt: now,
		UserID:    opts.UserID,
		Subject:   opts.Subject,
		Status:    models.TicketStatusOpen,
		Priority:  opts.Priority,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(ticket).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		message := &models.TicketMessage{
			CreatedAt: now,
			TicketID:  ticket.ID,
			AuthorID:  opts.UserID,
			Body:      opts.Body,
		}
		if _, err := tx.NewInsert().Model(message).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		return svc.saveAttachments(ctx, tx, ticket.ID, message.ID, opts.Attachments)
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveTicket(ctx, RetrieveTicketOptions{ID: ticket.ID})
}

type ListTicketsOptions struct {
	UserID   *int
	Statuses []string
	Priority *string
	Limit    int
	Offset   int

	includeTotal bool
}

func (svc *Service) ListTickets(ctx context.Context, opts ListTicketsOptions) ([]*models.Ticket, error) {
	tickets, _, err := svc.listTickets(ctx, opts)
	return tickets, err
}

func (svc *Service) ListTicketsWithTotal(ctx context.Context, opts ListTicketsOptions) ([]*models.Ticket, int, error) {
	opts.includeTotal = true
	return svc.listTickets(ctx, opts)
}

func (svc *Service) listTickets(ctx context.Context, opts ListTicketsOptions) ([]*models.Ticket, int, error) {
	tickets := []*models.Ticket{}

	q := svc.db.NewSelect().
		Model(&tickets).
		Order("t.updated_at DESC")

	if opts.UserID != nil {
		q = q.Where("t.user_id = ?", *opts.UserID)
	}
	if len(opts.Statuses) > 0 {
		q = q.Where("t.status IN (?)", bun.In(opts.Statuses))
	}
	if opts.Priority != nil {
		q = q.Where("t.priority = ?", *opts.Priority)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var total int
	var err error
	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return tickets, total, nil
}

type RetrieveTicketOptions struct {
	ID int
	// UserID scopes the lookup to the ticket owner. Staff pass nil.
	UserID *int
}

func (svc *Service) RetrieveTicket(ctx context.Context, opts RetrieveTicketOptions) (*models.Ticket, error) {
	ticket := &models.Ticket{}

	q := svc.db.NewSelect().
		Model(ticket).
		Relation("Messages", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("tm.created_at ASC", "tm.id ASC")
		}).
		Relation("Messages.Attachments").
		Where("t.id = ?", opts.ID)

	if opts.UserID != nil {
		q = q.Where("t.user_id = ?", *opts.UserID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Ticket")
		}
		return nil, errors.WithStack(err)
	}

	return ticket, nil
}

type AddMessageOptions struct {
	TicketID    int
	AuthorID    int
	IsStaff     bool
	Body        string
	Attachments []AttachmentInput
}

// AddMessage appends a reply to the thread. A staff reply moves the ticket to
// pending (waiting on the user); a user reply moves it back to open, which
// also reopens a closed ticket.
func (svc *Service) AddMessage(ctx context.Context, opts AddMessageOptions) (*models.TicketMessage, error) {
	message := &models.TicketMessage{
		CreatedAt: time.Now(),
		TicketID:  opts.TicketID,
		AuthorID:  opts.AuthorID,
		IsStaff:   opts.IsStaff,
		Body:      opts.Body,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		ticket := &models.Ticket{}
		q := tx.NewSelect().
			Model(ticket).
			Where("t.id = ?", opts.TicketID)
		if !opts.IsStaff {
			q = q.Where("t.user_id = ?", opts.AuthorID)
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Ticket")
			}
			return errors.WithStack(err)
		}

		if _, err := tx.NewInsert().Model(message).Exec(ctx); err != nil {
			return errors.WithStack(err)
		}

		if err := svc.saveAttachments(ctx, tx, ticket.ID, message.ID, opts.Attachments); err != nil {
			return err
		}

		status := models.TicketStatusOpen
		if opts.IsStaff {
			status = models.TicketStatusPending
		}

		_, err := tx.NewUpdate().
			Model((*models.Ticket)(nil)).
			Set("status = ?", status).
			Set("updated_at = ?", message.CreatedAt).
			Where("id = ?", ticket.ID).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	err = svc.db.NewSelect().
		Model(message).
		Relation("Attachments").
		Where("tm.id = ?", message.ID).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return message, nil
}

type CloseTicketOptions struct {
	ID int
	// UserID scopes the close to the ticket owner. Staff pass nil.
	UserID *int
}

func (svc *Service) CloseTicket(ctx context.Context, opts CloseTicketOptions) (*models.Ticket, error) {
	var ticket *models.Ticket

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		ticket = &models.Ticket{}
		q := tx.NewSelect().
			Model(ticket).
			Where("t.id = ?", opts.ID)
		if opts.UserID != nil {
			q = q.Where("t.user_id = ?", *opts.UserID)
		}
		if err := q.Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Ticket")
			}
			return errors.WithStack(err)
		}

		if ticket.Status == models.TicketStatusClosed {
			return errcodes.Conflict("This ticket is already closed.")
		}

		ticket.Status = models.TicketStatusClosed
		ticket.UpdatedAt = time.Now()

		_, err := tx.NewUpdate().
			Model(ticket).
			Column("status", "updated_at").
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return ticket, nil
}

type UpdateTicketOptions struct {
	ID      int
	Columns []string
}

// UpdateTicket lets staff adjust ticket fields, currently just the priority.
func (svc *Service) UpdateTicket(ctx context.Context, ticket *models.Ticket, opts UpdateTicketOptions) error {
	ticket.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")

	res, err := svc.db.NewUpdate().
		Model(ticket).
		Column(opts.Columns...).
		Where("id = ?", opts.ID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if rows == 0 {
		return errcodes.NotFound("Ticket")
	}

	return nil
}

func (svc *Service) saveAttachments(ctx context.Context, tx bun.Tx, ticketID, messageID int, attachments []AttachmentInput) error {
	for _, attachment := range attachments {
		if err := svc.saveAttachment(ctx, tx, ticketID, messageID, attachment); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) saveAttachment(ctx context.Context, tx bun.Tx, ticketID, messageID int, attachment AttachmentInput) error {
	data, err := io.ReadAll(io.LimitReader(attachment.Reader, maxAttachmentSizeBytes+1))
	if err != nil {
		return errors.WithStack(err)
	}
	if len(data) > maxAttachmentSizeBytes {
		return errcodes.ValidationError("Attachments are limited to 10 MB.")
	}

	dir := filepath.Join(svc.uploadDir, "tickets", strconv.Itoa(ticketID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithStack(err)
	}

	filename := fileutils.SanitizeFilename(attachment.Filename)
	path := fileutils.UniqueFilepath(filepath.Join(dir, filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WithStack(err)
	}

	row := &models.TicketAttachment{
		CreatedAt:       time.Now(),
		TicketMessageID: messageID,
		Filename:        filepath.Base(path),
		ContentType:     mimetype.Detect(data).String(),
		SizeBytes:       int64(len(data)),
		StoragePath:     path,
	}
	_, err = tx.NewInsert().Model(row).Exec(ctx)
	return errors.WithStack(err)
}

// OpenAttachment resolves an attachment for download, scoped to the ticket
// owner unless staff.
func (svc *Service) OpenAttachment(ctx context.Context, userID *int, attachmentID int) (*models.TicketAttachment, error) {
	attachment := &models.TicketAttachment{}

	q := svc.db.NewSelect().
		Model(attachment).
		Join("JOIN ticket_messages AS tm ON tm.id = ta.ticket_message_id").
		Join("JOIN tickets AS t ON t.id = tm.ticket_id").
		Where("ta.id = ?", attachmentID)

	if userID != nil {
		q = q.Where("t.user_id = ?", *userID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Attachment")
		}
		return nil, errors.WithStack(err)
	}

	return attachment, nil
}
