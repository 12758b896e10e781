package orgs

type CreateOrganizationPayload struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" mod:"trim,lcase" validate:"required,max=100,slug"`
}

type ListOrganizationsQuery struct {
	Limit   int  `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
	Offset  int  `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Deleted bool `query:"deleted" json:"deleted,omitempty"`
}

type UpdateOrganizationPayload struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Slug    *string `json:"slug,omitempty" mod:"trim,lcase" validate:"omitempty,max=100,slug"`
	Deleted *bool   `json:"deleted,omitempty" validate:"omitempty"`
}
