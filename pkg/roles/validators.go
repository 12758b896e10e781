package roles

// PermissionInput pairs a resource with an operation. Both are checked
// against the known resource/operation lists before any row is written.
type PermissionInput struct {
	Resource  string `json:"resource" validate:"required"`
	Operation string `json:"operation" validate:"required"`
}

type CreateRolePayload struct {
	Name        string            `json:"name" validate:"required,min=1,max=50"`
	Permissions []PermissionInput `json:"permissions"`
}

// UpdateRolePayload updates a role. A non-empty Permissions list replaces the
// role's whole permission set; omitting it leaves the set alone.
type UpdateRolePayload struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=50"`
	Permissions []PermissionInput `json:"permissions"`
}

type ListRolesQuery struct {
	Limit  int `query:"limit" default:"50"`
	Offset int `query:"offset" default:"0"`
}
