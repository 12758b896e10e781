package lessons

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/migrations"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/tutorahq/tutora/pkg/ordering"
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

func createChapterWithLessons(ctx context.Context, t *testing.T, db *bun.DB, svc *Service, titles []string) (*models.Course, *models.Chapter, []*models.Lesson) {
	t.Helper()

	org := &models.Organization{Name: "Acme Academy", Slug: "acme-academy"}
	_, err := db.NewInsert().Model(org).Exec(ctx)
	require.NoError(t, err)

	course := &models.Course{
		OrganizationID: org.ID,
		Slug:           "test-course",
		Title:          "Test Course",
		Status:         models.CourseStatusDraft,
	}
	_, err = db.NewInsert().Model(course).Exec(ctx)
	require.NoError(t, err)

	chapter := &models.Chapter{CourseID: course.ID, Title: "Chapter One", SortOrder: 1}
	_, err = db.NewInsert().Model(chapter).Exec(ctx)
	require.NoError(t, err)

	lessons := make([]*models.Lesson, 0, len(titles))
	for _, title := range titles {
		lesson := &models.Lesson{ChapterID: chapter.ID, Title: title}
		require.NoError(t, svc.CreateLesson(ctx, course.ID, lesson))
		lessons = append(lessons, lesson)
	}

	return course, chapter, lessons
}

func lessonTitles(lessons []*models.Lesson) []string {
	titles := make([]string, len(lessons))
	for i, le := range lessons {
		titles[i] = le.Title
	}
	return titles
}

func TestCreateLesson_AppendsAndStampsCourseID(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, _, lessons := createChapterWithLessons(ctx, t, db, svc, []string{"a", "b"})

	assert.Equal(t, 1, lessons[0].SortOrder)
	assert.Equal(t, 2, lessons[1].SortOrder)
	assert.Equal(t, course.ID, lessons[0].CourseID)
}

func TestCreateLesson_RejectsChapterFromAnotherCourse(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapter, _ := createChapterWithLessons(ctx, t, db, svc, nil)

	other := &models.Course{OrganizationID: course.OrganizationID, Slug: "other-course", Title: "Other", Status: models.CourseStatusDraft}
	_, err := db.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)

	lesson := &models.Lesson{ChapterID: chapter.ID, Title: "stray"}
	err = svc.CreateLesson(ctx, other.ID, lesson)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestReorderLessons_AppliesPermutation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, chapter, lessons := createChapterWithLessons(ctx, t, db, svc, []string{"a", "b", "c"})

	err := svc.ReorderLessons(ctx, ReorderLessonsOptions{
		ChapterID: chapter.ID,
		Positions: []ordering.Position{
			{ID: lessons[0].ID, Order: 2},
			{ID: lessons[1].ID, Order: 3},
			{ID: lessons[2].ID, Order: 1},
		},
	})
	require.NoError(t, err)

	listed, err := svc.ListLessons(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, lessonTitles(listed))
}

func TestReorderLessons_RejectsGapInOrders(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, chapter, lessons := createChapterWithLessons(ctx, t, db, svc, []string{"a", "b", "c"})

	err := svc.ReorderLessons(ctx, ReorderLessonsOptions{
		ChapterID: chapter.ID,
		Positions: []ordering.Position{
			{ID: lessons[0].ID, Order: 1},
			{ID: lessons[1].ID, Order: 2},
			{ID: lessons[2].ID, Order: 4},
		},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)

	listed, err := svc.ListLessons(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lessonTitles(listed))
}

func TestMoveLessonToPosition_MiddleToFirst(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, chapter, lessons := createChapterWithLessons(ctx, t, db, svc, []string{"a", "b", "c"})

	require.NoError(t, svc.MoveLessonToPosition(ctx, chapter.ID, lessons[1].ID, 1))

	listed, err := svc.ListLessons(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, lessonTitles(listed))

	orders := make([]int, len(listed))
	for i, le := range listed {
		orders[i] = le.SortOrder
	}
	assert.True(t, ordering.IsNormalized(orders))
}

func TestDeleteLesson_RenumbersRemaining(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, chapter, lessons := createChapterWithLessons(ctx, t, db, svc, []string{"a", "b", "c"})

	require.NoError(t, svc.DeleteLesson(ctx, chapter.ID, lessons[0].ID))

	listed, err := svc.ListLessons(ctx, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lessonTitles(listed))
	assert.Equal(t, 1, listed[0].SortOrder)
	assert.Equal(t, 2, listed[1].SortOrder)
}

func TestHasActiveEnrollment(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, _, _ := createChapterWithLessons(ctx, t, db, svc, []string{"a"})

	role := &models.Role{}
	err := db.NewSelect().Model(role).Where("name = ?", "student").Scan(ctx)
	require.NoError(t, err)

	user := &models.User{Username: "student1", PasswordHash: "x", RoleID: role.ID, IsActive: true}
	_, err = db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	enrolled, err := svc.HasActiveEnrollment(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	enrollment := &models.Enrollment{UserID: user.ID, CourseID: course.ID, Status: models.EnrollmentStatusActive}
	_, err = db.NewInsert().Model(enrollment).Exec(ctx)
	require.NoError(t, err)

	enrolled, err = svc.HasActiveEnrollment(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	_, err = db.NewUpdate().Model(enrollment).Set("status = ?", models.EnrollmentStatusCancelled).WherePK().Exec(ctx)
	require.NoError(t, err)

	enrolled, err = svc.HasActiveEnrollment(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)
}
