package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment statuses.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
)

// Payment tracks a checkout session created on the external payment provider.
// The provider is the source of truth for the final status; webhooks and the
// reconcile job keep this row in sync.
type Payment struct {
	bun.BaseModel `bun:"table:payments,alias:pay"`

	ID                string    `bun:",pk" json:"id"` // uuid
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	UserID            int       `bun:",notnull" json:"user_id"`
	CourseID          int       `bun:",notnull" json:"course_id"`
	AmountCents       int       `bun:",notnull" json:"amount_cents"`
	Currency          string    `bun:",notnull" json:"currency"`
	Status            string    `bun:",notnull" json:"status"`
	IdempotencyKey    string    `bun:",notnull" json:"-"`
	ProviderSessionID *string   `json:"-"`
	CheckoutURL       *string   `json:"checkout_url,omitempty"`
	FailureReason     *string   `json:"failure_reason,omitempty"`

	// Relations
	User   *User   `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Course *Course `bun:"rel:belongs-to,join:course_id=id" json:"course,omitempty"`
}
