package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FAQ is an ordered item in the platform-wide FAQ list (contiguous 1-based
// SortOrder).
type FAQ struct {
	bun.BaseModel `bun:"table:faqs,alias:f"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SortOrder int       `bun:",notnull" json:"order"`
	Question  string    `bun:",notnull" json:"question"`
	Answer    string    `bun:",notnull" json:"answer"`
	Published bool      `json:"published"`
}
