package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Enrollment statuses.
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCancelled = "cancelled"
)

type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments,alias:e"`

	ID        int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    int       `bun:",notnull" json:"user_id"`
	CourseID  int       `bun:",notnull" json:"course_id"`
	Status    string    `bun:",notnull" json:"status"`
	PaymentID *string   `json:"payment_id,omitempty"` // set for paid courses

	// Relations
	User    *User    `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Course  *Course  `bun:"rel:belongs-to,join:course_id=id" json:"course,omitempty"`
	Payment *Payment `bun:"rel:belongs-to,join:payment_id=id" json:"payment,omitempty"`
}

type LessonProgress struct {
	bun.BaseModel `bun:"table:lesson_progress,alias:lp"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	UserID      int       `bun:",notnull" json:"user_id"`
	LessonID    int       `bun:",notnull" json:"lesson_id"`
	CourseID    int       `bun:",notnull" json:"course_id"`
	CompletedAt time.Time `json:"completed_at"`

	// Relations
	Lesson *Lesson `bun:"rel:belongs-to,join:lesson_id=id" json:"-"`
}
