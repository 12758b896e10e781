package users

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles user operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new users service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateUserOptions contains options for creating a user.
type CreateUserOptions struct {
	Username             string
	Email                *string
	Password             string
	RoleID               int
	OrgIDs               []int
	AllOrgAccess         bool
	RequirePasswordReset bool
}

// Create creates a new user.
func (s *Service) Create(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	exists, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ? COLLATE NOCASE", opts.Username).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Username already exists")
	}

	if opts.Email != nil && *opts.Email != "" {
		exists, err = s.db.NewSelect().
			Model((*models.User)(nil)).
			Where("email = ? COLLATE NOCASE", *opts.Email).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			return nil, errcodes.ValidationError("Email already exists")
		}
	}

	roleExists, err := s.db.NewSelect().
		Model((*models.Role)(nil)).
		Where("id = ?", opts.RoleID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !roleExists {
		return nil, errcodes.ValidationError("Invalid role ID")
	}

	hashedPassword, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:           opts.Username,
		Email:              opts.Email,
		PasswordHash:       hashedPassword,
		RoleID:             opts.RoleID,
		IsActive:           true,
		MustChangePassword: opts.RequirePasswordReset,
	}

	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if opts.AllOrgAccess {
		access := &models.UserOrgAccess{
			UserID:         user.ID,
			OrganizationID: nil, // null = all organizations
		}
		_, err = s.db.NewInsert().Model(access).Exec(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
	} else {
		for _, orgID := range opts.OrgIDs {
			id := orgID
			access := &models.UserOrgAccess{
				UserID:         user.ID,
				OrganizationID: &id,
			}
			_, err = s.db.NewInsert().Model(access).Exec(ctx)
			if err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}

	return s.Retrieve(ctx, user.ID)
}

// Retrieve gets a user by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Relation("OrgAccess").
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.NotFound("User")
	}
	return user, nil
}

// ListOptions contains options for listing users.
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a paginated list of users.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	query := s.db.NewSelect().
		Model(&users).
		Relation("Role").
		Relation("OrgAccess").
		Order("u.id ASC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// UpdateOptions contains options for updating a user.
type UpdateOptions struct {
	Columns         []string
	UpdateOrgAccess bool
	AllOrgAccess    bool
	OrgIDs          []int
}

// Update updates a user.
func (s *Service) Update(ctx context.Context, user *models.User, opts UpdateOptions) error {
	if len(opts.Columns) > 0 {
		opts.Columns = append(opts.Columns, "updated_at")
		_, err := s.db.NewUpdate().
			Model(user).
			Column(opts.Columns...).
			WherePK().
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	if opts.UpdateOrgAccess {
		_, err := s.db.NewDelete().
			Model((*models.UserOrgAccess)(nil)).
			Where("user_id = ?", user.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if opts.AllOrgAccess {
			access := &models.UserOrgAccess{
				UserID:         user.ID,
				OrganizationID: nil,
			}
			_, err = s.db.NewInsert().Model(access).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		} else {
			for _, orgID := range opts.OrgIDs {
				id := orgID
				access := &models.UserOrgAccess{
					UserID:         user.ID,
					OrganizationID: &id,
				}
				_, err = s.db.NewInsert().Model(access).Exec(ctx)
				if err != nil {
					return errors.WithStack(err)
				}
			}
		}
	}

	return nil
}

// ResetPassword changes a user's password.
func (s *Service) ResetPassword(ctx context.Context, userID int, newPassword string, requirePasswordReset bool) error {
	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", hashedPassword).
		Set("must_change_password = ?", requirePasswordReset).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// VerifyPassword checks if the password is correct for a user.
func (s *Service) VerifyPassword(ctx context.Context, userID int, password string) (bool, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Column("password_hash").
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}

	return auth.CheckPassword(password, user.PasswordHash), nil
}

// Deactivate deactivates a user (soft delete).
func (s *Service) Deactivate(ctx context.Context, userID int) error {
	_, err := s.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// CountUsers returns the total number of users.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}
