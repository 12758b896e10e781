package chapters

import "github.com/tutorahq/tutora/pkg/ordering"

type CreateChapterPayload struct {
	Title string `json:"title" validate:"required,max=200"`
}

type UpdateChapterPayload struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
}

// ReorderPayload is the full permutation submitted after a drag ends.
type ReorderPayload struct {
	Items []ordering.Position `json:"items" validate:"required,min=1,dive"`
}

// MovePayload places a single item at a 1-based position.
type MovePayload struct {
	Position int `json:"position" validate:"required,min=1"`
}
