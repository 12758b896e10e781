package courses

import (
	"context"
	"database/sql"
	"testing"

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

func createTestOrg(ctx context.Context, t *testing.T, db *bun.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{Name: "Acme Academy", Slug: "acme-academy"}
	_, err := db.NewInsert().Model(org).Exec(ctx)
	require.NoError(t, err)
	return org
}

func createTestCourse(ctx context.Context, t *testing.T, svc *Service, orgID int, slug string) *models.Course {
	t.Helper()

	course := &models.Course{
		OrganizationID: orgID,
		Slug:           slug,
		Title:          "Intro to Gardening",
		Description:    "<p>Learn to garden.</p>",
		Summary:        "Learn to garden.",
		PriceCents:     4900,
		Currency:       "USD",
	}
	require.NoError(t, svc.CreateCourse(ctx, course))
	return course
}

func addLesson(ctx context.Context, t *testing.T, db *bun.DB, course *models.Course) *models.Lesson {
	t.Helper()

	chapter := &models.Chapter{CourseID: course.ID, SortOrder: 1, Title: "Chapter One"}
	_, err := db.NewInsert().Model(chapter).Exec(ctx)
	require.NoError(t, err)

	lesson := &models.Lesson{
		ChapterID: chapter.ID,
		CourseID:  course.ID,
		SortOrder: 1,
		Title:     "Lesson One",
		Content:   "<p>Content.</p>",
	}
	_, err = db.NewInsert().Model(lesson).Exec(ctx)
	require.NoError(t, err)
	return lesson
}

func TestCreateCourse_DefaultsToDraft(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")

	assert.NotZero(t, course.ID)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Nil(t, course.PublishedAt)
}

func TestCreateCourse_RejectsDuplicateSlugInOrg(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	createTestCourse(ctx, t, svc, org.ID, "intro-gardening")

	dupe := &models.Course{
		OrganizationID: org.ID,
		Slug:           "Intro-Gardening",
		Title:          "Different Title",
	}
	err := svc.CreateCourse(ctx, dupe)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "conflict", codeErr.Code)
}

func TestCreateCourse_AllowsSameSlugAcrossOrgs(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	other := &models.Organization{Name: "Beta School", Slug: "beta-school"}
	_, err := db.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)

	createTestCourse(ctx, t, svc, org.ID, "intro-gardening")
	course := &models.Course{OrganizationID: other.ID, Slug: "intro-gardening", Title: "Same Slug"}
	require.NoError(t, svc.CreateCourse(ctx, course))
}

func TestPublishCourse_RequiresALesson(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")

	err := svc.PublishCourse(ctx, course)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Contains(t, codeErr.Message, "at least one lesson")
	assert.Equal(t, models.CourseStatusDraft, course.Status)
}

func TestPublishCourse_SetsPublishedAt(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")
	addLesson(ctx, t, db, course)

	require.NoError(t, svc.PublishCourse(ctx, course))
	assert.Equal(t, models.CourseStatusPublished, course.Status)
	require.NotNil(t, course.PublishedAt)

	reloaded, err := svc.RetrieveCourse(ctx, RetrieveCourseOptions{ID: &course.ID})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPublished, reloaded.Status)
}

func TestPublishCourse_RejectsArchived(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")
	addLesson(ctx, t, db, course)
	require.NoError(t, svc.ArchiveCourse(ctx, course))

	err := svc.PublishCourse(ctx, course)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Contains(t, codeErr.Message, "Archived")
}

func TestRetrieveCourse_PublishedOnlyHidesDrafts(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")

	_, err := svc.RetrieveCourse(ctx, RetrieveCourseOptions{
		Slug:          &course.Slug,
		PublishedOnly: true,
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestRetrieveCourse_CurriculumIsOrdered(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")

	// Insert chapters out of order to make sure the query sorts them.
	for _, ch := range []struct {
		order int
		title string
	}{{2, "Second"}, {1, "First"}, {3, "Third"}} {
		chapter := &models.Chapter{CourseID: course.ID, SortOrder: ch.order, Title: ch.title}
		_, err := db.NewInsert().Model(chapter).Exec(ctx)
		require.NoError(t, err)
	}

	got, err := svc.RetrieveCourse(ctx, RetrieveCourseOptions{
		ID:                &course.ID,
		IncludeCurriculum: true,
	})
	require.NoError(t, err)
	require.Len(t, got.Chapters, 3)
	assert.Equal(t, "First", got.Chapters[0].Title)
	assert.Equal(t, "Second", got.Chapters[1].Title)
	assert.Equal(t, "Third", got.Chapters[2].Title)
}

func TestListCourses_RatingAggregates(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	course := createTestCourse(ctx, t, svc, org.ID, "intro-gardening")

	role := new(models.Role)
	require.NoError(t, db.NewSelect().Model(role).Where("name = ?", models.RoleStudent).Scan(ctx))

	for i, rating := range []int{5, 3} {
		user := &models.User{Username: "reviewer" + string(rune('a'+i)), PasswordHash: "hash", RoleID: role.ID, IsActive: true}
		_, err := db.NewInsert().Model(user).Exec(ctx)
		require.NoError(t, err)

		review := &models.Review{CourseID: course.ID, UserID: user.ID, Rating: rating, Body: "ok"}
		_, err = db.NewInsert().Model(review).Exec(ctx)
		require.NoError(t, err)
	}

	listed, err := svc.ListCourses(ctx, ListCoursesOptions{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].RatingAverage)
	assert.InDelta(t, 4.0, *listed[0].RatingAverage, 0.001)
	assert.Equal(t, 2, listed[0].RatingCount)
}

func TestListCourses_SearchMatchesTitle(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	org := createTestOrg(ctx, t, db)
	createTestCourse(ctx, t, svc, org.ID, "intro-gardening")
	other := &models.Course{OrganizationID: org.ID, Slug: "advanced-baking", Title: "Advanced Baking"}
	require.NoError(t, svc.CreateCourse(ctx, other))

	search := "baking"
	listed, total, err := svc.ListCoursesWithTotal(ctx, ListCoursesOptions{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, listed, 1)
	assert.Equal(t, "advanced-baking", listed[0].Slug)
}
