package reviews

type CreateReviewPayload struct {
	CourseID int     `json:"course_id" validate:"required"`
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body     string  `json:"body" validate:"omitempty,max=10000"`
}

type UpdateReviewPayload struct {
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title  *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Body   *string `json:"body,omitempty" validate:"omitempty,max=10000"`
}

type ListReviewsQuery struct {
	CourseID *int `query:"course_id"`
	Limit    int  `query:"limit" default:"50" validate:"min=1,max=100"`
	Offset   int  `query:"offset" validate:"min=0"`
}
