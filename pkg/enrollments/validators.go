package enrollments

type EnrollPayload struct {
	CourseID  int     `json:"course_id" validate:"required"`
	PaymentID *string `json:"payment_id,omitempty" validate:"omitempty,uuid"`
}

type ListEnrollmentsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}
