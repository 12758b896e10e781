package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Chapter is an ordered item within a course. SortOrder values are unique per
// course and form a contiguous 1-based sequence; display order is always
// SortOrder ascending.
type Chapter struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  int       `bun:",notnull" json:"course_id"`
	SortOrder int       `bun:",notnull" json:"order"`
	Title     string    `bun:",notnull" json:"title"`

	// Relations
	Course  *Course   `bun:"rel:belongs-to,join:course_id=id" json:"-"`
	Lessons []*Lesson `bun:"rel:has-many,join:id=chapter_id" json:"lessons,omitempty"`
}
