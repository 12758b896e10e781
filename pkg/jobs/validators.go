package jobs

type CreateJobPayload struct {
	Type string      `json:"type" validate:"required,oneof=payment_reconcile email_send"`
	Data interface{} `json:"data" validate:"required"`
}

type ListJobsQuery struct {
	Limit  int      `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
	Offset int      `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status []string `query:"status" json:"status,omitempty" validate:"dive,oneof=pending in_progress completed errored"`
	Type   *string  `query:"type" json:"type,omitempty" validate:"omitempty,oneof=payment_reconcile email_send"`
}
