package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Course publication states.
const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c"`

	ID             int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	OrganizationID int        `bun:",notnull" json:"organization_id"`
	Slug           string     `bun:",notnull" json:"slug"`
	Title          string     `bun:",notnull" json:"title"`
	Description    string     `json:"description"` // sanitized HTML
	Summary        string     `json:"summary"`     // plain-text, derived from Description
	Status         string     `bun:",notnull" json:"status"`
	PriceCents     int        `json:"price_cents"` // 0 means free
	Currency       string     `bun:",nullzero" json:"currency"`
	PublishedAt    *time.Time `json:"published_at"`

	// Aggregates populated by queries, not stored.
	RatingAverage *float64 `bun:",scanonly" json:"rating_average,omitempty"`
	RatingCount   int      `bun:",scanonly" json:"rating_count,omitempty"`

	// Relations
	Organization *Organization `bun:"rel:belongs-to,join:organization_id=id" json:"organization,omitempty"`
	Chapters     []*Chapter    `bun:"rel:has-many,join:id=course_id" json:"chapters,omitempty"`
	Reviews      []*Review     `bun:"rel:has-many,join:id=course_id" json:"reviews,omitempty"`
}

// IsFree reports whether the course can be enrolled in without a payment.
func (c *Course) IsFree() bool {
	return c.PriceCents == 0
}
