package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Quiz struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID          int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LessonID    int       `bun:",notnull" json:"lesson_id"`
	Title       string    `bun:",notnull" json:"title"`
	PassPercent int       `bun:",notnull" json:"pass_percent"`

	// Relations
	Lesson    *Lesson     `bun:"rel:belongs-to,join:lesson_id=id" json:"-"`
	Questions []*Question `bun:"rel:has-many,join:id=quiz_id" json:"questions,omitempty"`
}

// Question is an ordered item within a quiz (contiguous 1-based SortOrder).
// Options are stored as a JSON array; the correct answer index is never
// serialized to API clients.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:qq"`

	ID            int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	QuizID        int       `bun:",notnull" json:"quiz_id"`
	SortOrder     int       `bun:",notnull" json:"order"`
	Prompt        string    `bun:",notnull" json:"prompt"`
	Options       string    `bun:",notnull" json:"-"`
	OptionsParsed []string  `bun:"-" json:"options"`
	CorrectIndex  int       `bun:",notnull" json:"-"` // 0-based

	// Relations
	Quiz *Quiz `bun:"rel:belongs-to,join:quiz_id=id" json:"-"`
}

// UnmarshalOptions populates OptionsParsed from the stored JSON.
func (q *Question) UnmarshalOptions() error {
	if q.Options == "" {
		q.OptionsParsed = []string{}
		return nil
	}
	return errors.WithStack(json.Unmarshal([]byte(q.Options), &q.OptionsParsed))
}

// MarshalOptions stores OptionsParsed back into the JSON column.
func (q *Question) MarshalOptions() error {
	data, err := json.Marshal(q.OptionsParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	q.Options = string(data)
	return nil
}

type QuizAttempt struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID            int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	QuizID        int       `bun:",notnull" json:"quiz_id"`
	UserID        int       `bun:",notnull" json:"user_id"`
	Answers       string    `bun:",notnull" json:"-"` // JSON: question id -> selected index
	Score         int       `json:"score"`
	MaxScore      int       `json:"max_score"`
	Passed        bool      `json:"passed"`
	AttemptNumber int       `json:"attempt_number"`

	// Relations
	Quiz *Quiz `bun:"rel:belongs-to,join:quiz_id=id" json:"-"`
	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}
