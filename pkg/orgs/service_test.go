package orgs

import (
	"context"
	"database/sql"
	"testing"

	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/migrations"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createOrg(ctx context.Context, t *testing.T, svc *Service, name, slug string) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: name, Slug: slug}
	require.NoError(t, svc.CreateOrganization(ctx, org))
	return org
}

func TestCreateOrganization(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createOrg(ctx, t, svc, "Acme Academy", "acme-academy")
	assert.NotZero(t, org.ID)
	assert.False(t, org.CreatedAt.IsZero())
	assert.Equal(t, org.CreatedAt, org.UpdatedAt)
}

func TestCreateOrganization_DuplicateSlugConflicts(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createOrg(ctx, t, svc, "Acme Academy", "acme-academy")

	err := svc.CreateOrganization(ctx, &models.Organization{Name: "Acme Again", Slug: "ACME-ACADEMY"})
	require.Error(t, err)

	var appErr *errcodes.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "conflict", appErr.Code)
}

func TestRetrieveOrganization(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createOrg(ctx, t, svc, "Acme Academy", "acme-academy")

	byID, err := svc.RetrieveOrganization(ctx, RetrieveOrganizationOptions{ID: &org.ID})
	require.NoError(t, err)
	assert.Equal(t, org.ID, byID.ID)

	bySlug, err := svc.RetrieveOrganization(ctx, RetrieveOrganizationOptions{Slug: pointerutil.String("ACME-academy")})
	require.NoError(t, err)
	assert.Equal(t, org.ID, bySlug.ID)

	_, err = svc.RetrieveOrganization(ctx, RetrieveOrganizationOptions{Slug: pointerutil.String("nope")})
	require.Error(t, err)

	var appErr *errcodes.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "not_found", appErr.Code)
}

func TestListOrganizations(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	zen := createOrg(ctx, t, svc, "Zen School", "zen-school")
	acme := createOrg(ctx, t, svc, "Acme Academy", "acme-academy")
	createOrg(ctx, t, svc, "Borealis Institute", "borealis")

	t.Run("ordered by name", func(tt *testing.T) {
		orgs, err := svc.ListOrganizations(ctx, ListOrganizationsOptions{})
		require.NoError(tt, err)
		require.Len(tt, orgs, 3)
		assert.Equal(tt, "Acme Academy", orgs[0].Name)
		assert.Equal(tt, "Zen School", orgs[2].Name)
	})

	t.Run("filters to accessible org ids", func(tt *testing.T) {
		orgs, err := svc.ListOrganizations(ctx, ListOrganizationsOptions{OrgIDs: []int{acme.ID, zen.ID}})
		require.NoError(tt, err)
		require.Len(tt, orgs, 2)
	})

	t.Run("with total and pagination", func(tt *testing.T) {
		orgs, total, err := svc.ListOrganizationsWithTotal(ctx, ListOrganizationsOptions{
			Limit: pointerutil.Int(2),
		})
		require.NoError(tt, err)
		assert.Len(tt, orgs, 2)
		assert.Equal(tt, 3, total)
	})
}

func TestListOrganizations_ExcludesDeleted(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createOrg(ctx, t, svc, "Acme Academy", "acme-academy")
	gone := createOrg(ctx, t, svc, "Gone School", "gone-school")

	_, err := db.NewUpdate().
		Model(gone).
		Set("deleted_at = CURRENT_TIMESTAMP").
		WherePK().
		Exec(ctx)
	require.NoError(t, err)

	orgs, err := svc.ListOrganizations(ctx, ListOrganizationsOptions{})
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Acme Academy", orgs[0].Name)

	all, err := svc.ListOrganizations(ctx, ListOrganizationsOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// A deleted org's slug is free for reuse.
	require.NoError(t, svc.CreateOrganization(ctx, &models.Organization{Name: "Gone School", Slug: "gone-school"}))
}

func TestUpdateOrganization(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createOrg(ctx, t, svc, "Acme Academy", "acme-academy")

	org.Name = "Acme University"
	org.Slug = "should-not-change"
	require.NoError(t, svc.UpdateOrganization(ctx, org, UpdateOrganizationOptions{Columns: []string{"name"}}))

	reloaded, err := svc.RetrieveOrganization(ctx, RetrieveOrganizationOptions{ID: &org.ID})
	require.NoError(t, err)
	assert.Equal(t, "Acme University", reloaded.Name)
	assert.Equal(t, "acme-academy", reloaded.Slug)
	assert.False(t, reloaded.UpdatedAt.Before(reloaded.CreatedAt))
}
