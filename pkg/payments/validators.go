package payments

type CreateCheckoutPayload struct {
	CourseID   int     `json:"course_id" validate:"required"`
	SuccessURL *string `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL  *string `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

type ListPaymentsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

type WebhookPayload struct {
	SessionID     string  `json:"session_id" validate:"required"`
	Status        string  `json:"status" validate:"required,oneof=pending succeeded failed expired"`
	FailureReason *string `json:"failure_reason,omitempty"`
}
