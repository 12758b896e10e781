package tickets

import "mime/multipart"

type CreateTicketPayload struct {
	Subject  string `json:"subject" form:"subject" validate:"required,max=300"`
	Body     string `json:"body" form:"body" validate:"required,max=20000"`
	Priority string `json:"priority" form:"priority" validate:"omitempty,oneof=low normal high"`

	FormFiles map[string]*multipart.FileHeader `json:"-" form:"-"`
}

type ListTicketsQuery struct {
	Statuses []string `query:"statuses" validate:"omitempty,dive,oneof=open pending closed"`
	Priority *string  `query:"priority" validate:"omitempty,oneof=low normal high"`
	Limit    int      `query:"limit" default:"50" validate:"min=1,max=100"`
	Offset   int      `query:"offset" validate:"min=0"`
}

type ReplyPayload struct {
	Body string `json:"body" form:"body" validate:"required,max=20000"`

	FormFiles map[string]*multipart.FileHeader `json:"-" form:"-"`
}

type UpdateTicketPayload struct {
	Priority *string `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
}
