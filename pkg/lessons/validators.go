package lessons

import "github.com/tutorahq/tutora/pkg/ordering"

type CreateLessonPayload struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Content         string  `json:"content" validate:"omitempty,max=200000"`
	VideoURL        *string `json:"video_url,omitempty" validate:"omitempty,url,max=500"`
	DurationSeconds *int    `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
	FreePreview     bool    `json:"free_preview"`
}

type UpdateLessonPayload struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content         *string `json:"content,omitempty" validate:"omitempty,max=200000"`
	VideoURL        *string `json:"video_url,omitempty" validate:"omitempty,url,max=500"`
	DurationSeconds *int    `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
	FreePreview     *bool   `json:"free_preview,omitempty"`
}

type ReorderPayload struct {
	Items []ordering.Position `json:"items" validate:"required,min=1,dive"`
}

type MovePayload struct {
	Position int `json:"position" validate:"required,min=1"`
}
