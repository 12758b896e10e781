package courses

type CreateCoursePayload struct {
	OrganizationID int     `json:"organization_id" validate:"required"`
	Slug           string  `json:"slug" mod:"trim,lcase" validate:"required,max=100,slug"`
	Title          string  `json:"title" validate:"required,max=200"`
	Description    string  `json:"description" validate:"omitempty,max=50000"`
	PriceCents     int     `json:"price_cents" validate:"min=0"`
	Currency       *string `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
}

type UpdateCoursePayload struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Slug        *string `json:"slug,omitempty" mod:"trim,lcase" validate:"omitempty,max=100,slug"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=50000"`
	PriceCents  *int    `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	Deleted     *bool   `json:"deleted,omitempty" validate:"omitempty"`
}

type ListCoursesQuery struct {
	Limit          int     `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
	Offset         int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	OrganizationID *int    `query:"organization_id" json:"organization_id,omitempty"`
	Status         *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Search         *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	Deleted        bool    `query:"deleted" json:"deleted,omitempty"`
}

type CatalogQuery struct {
	Limit          int     `query:"limit" json:"limit,omitempty" default:"20" validate:"min=1,max=100"`
	Offset         int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	OrganizationID *int    `query:"organization_id" json:"organization_id,omitempty"`
	Search         *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}
