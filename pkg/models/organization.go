package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID        int        `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	Name      string     `bun:",notnull" json:"name"`
	Slug      string     `bun:",notnull" json:"slug"`

	// Relations
	Courses []*Course `bun:"rel:has-many,join:id=organization_id" json:"courses,omitempty"`
}

type UserOrgAccess struct {
	bun.BaseModel `bun:"table:user_org_access,alias:uoa"`

	ID             int  `bun:",pk,autoincrement" json:"id"`
	UserID         int  `json:"user_id"`
	OrganizationID *int `json:"organization_id"` // null means access to all organizations
}
