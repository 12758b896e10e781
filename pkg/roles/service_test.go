package roles

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

func roleByName(ctx context.Context, t *testing.T, db *bun.DB, name string) *models.Role {
	t.Helper()

	role := &models.Role{}
	err := db.NewSelect().Model(role).Where("name = ?", name).Scan(ctx)
	require.NoError(t, err)
	return role
}

func assertErrCode(t *testing.T, err error, code string) {
	t.Helper()

	require.Error(t, err)
	var appErr *errcodes.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestCreateRole(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	role, err := svc.Create(ctx, "content-editor", []PermissionInput{
		{Resource: models.ResourceCourses, Operation: models.OperationWrite},
		{Resource: models.ResourceFAQs, Operation: models.OperationWrite},
	})
	require.NoError(t, err)
	assert.False(t, role.IsSystem)
	assert.Len(t, role.Permissions, 2)

	t.Run("rejects duplicate names case-insensitively", func(tt *testing.T) {
		_, err := svc.Create(ctx, "Content-Editor", nil)
		assertErrCode(tt, err, "validation_error")
	})

	t.Run("rejects unknown resources", func(tt *testing.T) {
		_, err := svc.Create(ctx, "librarian", []PermissionInput{
			{Resource: "books", Operation: models.OperationRead},
		})
		assertErrCode(tt, err, "validation_error")
	})

	t.Run("rejects unknown operations", func(tt *testing.T) {
		_, err := svc.Create(ctx, "auditor", []PermissionInput{
			{Resource: models.ResourceCourses, Operation: "execute"},
		})
		assertErrCode(tt, err, "validation_error")
	})
}

func TestUpdateRole_ReplacesPermissionSet(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	role, err := svc.Create(ctx, "content-editor", []PermissionInput{
		{Resource: models.ResourceCourses, Operation: models.OperationWrite},
		{Resource: models.ResourceFAQs, Operation: models.OperationWrite},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, role.ID, pointerutil.String("curriculum-editor"), &[]PermissionInput{
		{Resource: models.ResourceCourses, Operation: models.OperationRead},
	})
	require.NoError(t, err)
	assert.Equal(t, "curriculum-editor", updated.Name)
	require.Len(t, updated.Permissions, 1)
	assert.Equal(t, models.ResourceCourses, updated.Permissions[0].Resource)
	assert.Equal(t, models.OperationRead, updated.Permissions[0].Operation)
}

func TestUpdateRole_SystemRolesKeepTheirName(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	admin := roleByName(ctx, t, db, "admin")
	_, err := svc.Update(ctx, admin.ID, pointerutil.String("superuser"), nil)
	assertErrCode(t, err, "forbidden")
}

func TestDeleteRole(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t.Run("system roles are protected", func(tt *testing.T) {
		student := roleByName(ctx, tt, db, "student")
		assertErrCode(tt, svc.Delete(ctx, student.ID), "forbidden")
	})

	t.Run("assigned roles are protected", func(tt *testing.T) {
		role, err := svc.Create(ctx, "content-editor", nil)
		require.NoError(tt, err)

		user := &models.User{Username: "casey", PasswordHash: "x", RoleID: role.ID}
		_, err = db.NewInsert().Model(user).Exec(ctx)
		require.NoError(tt, err)

		assertErrCode(tt, svc.Delete(ctx, role.ID), "validation_error")
	})

	t.Run("unassigned custom roles delete", func(tt *testing.T) {
		role, err := svc.Create(ctx, "temp-role", nil)
		require.NoError(tt, err)
		require.NoError(tt, svc.Delete(ctx, role.ID))

		_, err = svc.Retrieve(ctx, role.ID)
		assertErrCode(tt, err, "not_found")
	})
}
