package users

// CreateUserPayload represents the request body for creating a user.
type CreateUserPayload struct {
	Username             string  `json:"username" validate:"required,min=3,max=50"`
	Email                *string `json:"email" validate:"omitempty,email"`
	Password             string  `json:"password" validate:"required,min=8"`
	RoleID               int     `json:"role_id" validate:"required"`
	OrgIDs               []int   `json:"org_ids"`        // Empty means no access
	AllOrgAccess         bool    `json:"all_org_access"` // If true, user can manage all organizations
	RequirePasswordReset bool    `json:"require_password_reset"`
}

// UpdateUserPayload represents the request body for updating a user.
type UpdateUserPayload struct {
	Username     *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email        *string `json:"email" validate:"omitempty,email"`
	RoleID       *int    `json:"role_id"`
	IsActive     *bool   `json:"is_active"`
	OrgIDs       *[]int  `json:"org_ids"`        // If provided, replaces organization access
	AllOrgAccess *bool   `json:"all_org_access"` // If true, grants access to all organizations
}

// ResetPasswordPayload represents the request body for resetting a password.
type ResetPasswordPayload struct {
	CurrentPassword      *string `json:"current_password"` // Required for normal self-reset (not forced-reset flow)
	NewPassword          string  `json:"new_password" validate:"required,min=8"`
	RequirePasswordReset bool    `json:"require_password_reset"`
}

// ListUsersQuery represents the query parameters for listing users.
type ListUsersQuery struct {
	Limit  int `query:"limit" default:"50"`
	Offset int `query:"offset" default:"0"`
}
