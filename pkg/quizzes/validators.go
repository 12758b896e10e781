package quizzes

import "github.com/tutorahq/tutora/pkg/ordering"

type CreateQuizPayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	PassPercent *int   `json:"pass_percent,omitempty" validate:"omitempty,min=1,max=100"`
}

type UpdateQuizPayload struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	PassPercent *int    `json:"pass_percent,omitempty" validate:"omitempty,min=1,max=100"`
}

type CreateQuestionPayload struct {
	Prompt       string   `json:"prompt" validate:"required,max=2000"`
	Options      []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" validate:"min=0"`
}

type UpdateQuestionPayload struct {
	Prompt       *string  `json:"prompt,omitempty" validate:"omitempty,max=2000"`
	Options      []string `json:"options,omitempty" validate:"omitempty,min=2,max=10,dive,required,max=500"`
	CorrectIndex *int     `json:"correct_index,omitempty" validate:"omitempty,min=0"`
}

type ReorderPayload struct {
	Items []ordering.Position `json:"items" validate:"required,min=1,dive"`
}

type MovePayload struct {
	Position int `json:"position" validate:"required,min=1"`
}

type SubmitAttemptPayload struct {
	Answers map[int]int `json:"answers" validate:"required,min=1"`
}
