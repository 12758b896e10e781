package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Lesson is an ordered item within a chapter, with the same contiguous
// 1-based SortOrder invariant as Chapter.
type Lesson struct {
	bun.BaseModel `bun:"table:lessons,alias:le"`

	ID              int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ChapterID       int       `bun:",notnull" json:"chapter_id"`
	CourseID        int       `bun:",notnull" json:"course_id"`
	SortOrder       int       `bun:",notnull" json:"order"`
	Title           string    `bun:",notnull" json:"title"`
	Content         string    `json:"content"` // sanitized HTML
	VideoURL        *string   `json:"video_url"`
	DurationSeconds *int      `json:"duration_seconds"`
	FreePreview     bool      `json:"free_preview"`

	// Relations
	Chapter *Chapter `bun:"rel:belongs-to,join:chapter_id=id" json:"-"`
	Quiz    *Quiz    `bun:"rel:has-one,join:id=lesson_id" json:"quiz,omitempty"`
}
