package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                 int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	Username           string    `bun:",nullzero" json:"username"`
	Email              *string   `json:"email,omitempty"`
	PasswordHash       string    `json:"-"` // Never expose password hash
	RoleID             int       `json:"role_id"`
	IsActive           bool      `json:"is_active"`
	MustChangePassword bool      `json:"must_change_password"`

	// Relations
	Role      *Role            `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	OrgAccess []*UserOrgAccess `bun:"rel:has-many,join:id=user_id" json:"org_access,omitempty"`
}

// HasPermission checks if the user has a specific permission.
func (u *User) HasPermission(resource, operation string) bool {
	if u.Role == nil {
		return false
	}
	return u.Role.HasPermission(resource, operation)
}

// IsSupportStaff reports whether the user handles tickets on behalf of other
// users. Staff roles can read user accounts; students cannot.
func (u *User) IsSupportStaff() bool {
	return u.HasPermission(ResourceTickets, OperationWrite) && u.HasPermission(ResourceUsers, OperationRead)
}

// IsModerator reports whether the user can remove other users' reviews.
func (u *User) IsModerator() bool {
	return u.HasPermission(ResourceReviews, OperationWrite) && u.HasPermission(ResourceUsers, OperationRead)
}

// HasOrgAccess checks if the user can manage content in a specific
// organization. Returns true if the user has access to all organizations
// (null organization_id entry) or explicit access to the given one.
func (u *User) HasOrgAccess(orgID int) bool {
	for _, access := range u.OrgAccess {
		if access.OrganizationID == nil {
			return true
		}
		if *access.OrganizationID == orgID {
			return true
		}
	}
	return false
}

// HasAllOrgAccess checks if the user has access to all organizations.
func (u *User) HasAllOrgAccess() bool {
	for _, access := range u.OrgAccess {
		if access.OrganizationID == nil {
			return true
		}
	}
	return false
}

// AccessibleOrgIDs returns the organization IDs the user can manage. Returns
// nil if the user has access to all organizations.
func (u *User) AccessibleOrgIDs() []int {
	if u.HasAllOrgAccess() {
		return nil
	}
	ids := make([]int, 0, len(u.OrgAccess))
	for _, access := range u.OrgAccess {
		if access.OrganizationID != nil {
			ids = append(ids, *access.OrganizationID)
		}
	}
	return ids
}
