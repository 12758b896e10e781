package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket statuses.
const (
	TicketStatusOpen    = "open"
	TicketStatusPending = "pending" // waiting on the user
	TicketStatusClosed  = "closed"
)

// Ticket priorities.
const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `bun:",notnull" json:"user_id"`
	Subject   string    `bun:",notnull" json:"subject"`
	Status    string    `bun:",notnull" json:"status"`
	Priority  string    `bun:",notnull" json:"priority"`

	// Relations
	User     *User            `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Messages []*TicketMessage `bun:"rel:has-many,join:id=ticket_id" json:"messages,omitempty"`
}

type TicketMessage struct {
	bun.BaseModel `bun:"table:ticket_messages,alias:tm"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TicketID  int       `bun:",notnull" json:"ticket_id"`
	AuthorID  int       `bun:",notnull" json:"author_id"`
	IsStaff   bool      `json:"is_staff"`
	Body      string    `bun:",notnull" json:"body"`

	// Relations
	Author      *User               `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Attachments []*TicketAttachment `bun:"rel:has-many,join:id=ticket_message_id" json:"attachments,omitempty"`
}

type TicketAttachment struct {
	bun.BaseModel `bun:"table:ticket_attachments,alias:ta"`

	ID              int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	TicketMessageID int       `bun:",notnull" json:"ticket_message_id"`
	Filename        string    `bun:",notnull" json:"filename"`
	ContentType     string    `bun:",notnull" json:"content_type"`
	SizeBytes       int64     `json:"size_bytes"`
	StoragePath     string    `bun:",notnull" json:"-"`
}
