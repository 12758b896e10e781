package orgs

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveOrganizationOptions struct {
	ID   *int
	Slug *string
}

type ListOrganizationsOptions struct {
	Limit          *int
	Offset         *int
	IncludeDeleted bool
	OrgIDs         []int

	includeTotal bool
}

type UpdateOrganizationOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateOrganization(ctx context.Context, org *models.Organization) error {
	now := time.Now()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = org.CreatedAt

	exists, err := svc.db.
		NewSelect().
		Model((*models.Organization)(nil)).
		Where("slug = ? COLLATE NOCASE", org.Slug).
		Where("deleted_at IS NULL").
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict("An organization with this slug already exists.")
	}

	_, err = svc.db.
		NewInsert().
		Model(org).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveOrganization(ctx context.Context, opts RetrieveOrganizationOptions) (*models.Organization, error) {
	org := &models.Organization{}

	q := svc.db.
		NewSelect().
		Model(org).
		Column("o.*")

	if opts.ID != nil {
		q = q.Where("o.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("o.slug = ? COLLATE NOCASE", *opts.Slug)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Organization")
		}
		return nil, errors.WithStack(err)
	}

	return org, nil
}

func (svc *Service) ListOrganizations(ctx context.Context, opts ListOrganizationsOptions) ([]*models.Organization, error) {
	orgs, _, err := svc.listOrganizationsWithTotal(ctx, opts)
	return orgs, errors.WithStack(err)
}

func (svc *Service) ListOrganizationsWithTotal(ctx context.Context, opts ListOrganizationsOptions) ([]*models.Organization, int, error) {
	opts.includeTotal = true
	return svc.listOrganizationsWithTotal(ctx, opts)
}

func (svc *Service) listOrganizationsWithTotal(ctx context.Context, opts ListOrganizationsOptions) ([]*models.Organization, int, error) {
	orgs := []*models.Organization{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&orgs).
		Column("o.*").
		Order("o.name ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if !opts.IncludeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if opts.OrgIDs != nil {
		q = q.Where("o.id IN (?)", bun.In(opts.OrgIDs))
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return orgs, total, nil
}

func (svc *Service) UpdateOrganization(ctx context.Context, org *models.Organization, opts UpdateOrganizationOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	org.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(org).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Organization")
		}
		return errors.WithStack(err)
	}

	return nil
}
