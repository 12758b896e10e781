package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Review is one user's rating of a course. One review per user per course.
type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:rv"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CourseID  int       `bun:",notnull" json:"course_id"`
	UserID    int       `bun:",notnull" json:"user_id"`
	Rating    int       `bun:",notnull" json:"rating"` // 1..5
	Title     *string   `json:"title"`
	Body      string    `json:"body"`

	// Relations
	Course *Course `bun:"rel:belongs-to,join:course_id=id" json:"-"`
	User   *User   `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}
