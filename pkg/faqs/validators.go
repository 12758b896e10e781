package faqs

import "github.com/tutorahq/tutora/pkg/ordering"

type CreateFAQPayload struct {
	Question  string `json:"question" validate:"required,max=500"`
	Answer    string `json:"answer" validate:"required,max=10000"`
	Published bool   `json:"published"`
}

type UpdateFAQPayload struct {
	Question  *string `json:"question,omitempty" validate:"omitempty,max=500"`
	Answer    *string `json:"answer,omitempty" validate:"omitempty,max=10000"`
	Published *bool   `json:"published,omitempty"`
}

type ReorderPayload struct {
	Items []ordering.Position `json:"items" validate:"required,min=1,dive"`
}

type MovePayload struct {
	Position int `json:"position" validate:"required,min=1"`
}
