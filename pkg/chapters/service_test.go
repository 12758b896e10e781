package chapters

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

func createCourseWithChapters(ctx context.Context, t *testing.T, db *bun.DB, svc *Service, titles []string) (*models.Course, []*models.Chapter) {
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

	chapters := make([]*models.Chapter, 0, len(titles))
	for _, title := range titles {
		chapter := &models.Chapter{CourseID: course.ID, Title: title}
		require.NoError(t, svc.CreateChapter(ctx, chapter))
		chapters = append(chapters, chapter)
	}

	return course, chapters
}

func chapterTitles(chapters []*models.Chapter) []string {
	titles := make([]string, len(chapters))
	for i, ch := range chapters {
		titles[i] = ch.Title
	}
	return titles
}

func assertContiguousOrders(t *testing.T, chapters []*models.Chapter) {
	t.Helper()

	orders := make([]int, len(chapters))
	for i, ch := range chapters {
		orders[i] = ch.SortOrder
	}
	assert.True(t, ordering.IsNormalized(orders), "sort orders should be 1..N, got %v", orders)
}

func TestCreateChapter_AppendsAtEnd(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	assert.Equal(t, 1, chapters[0].SortOrder)
	assert.Equal(t, 2, chapters[1].SortOrder)
	assert.Equal(t, 3, chapters[2].SortOrder)
}

func TestReorderChapters_AppliesPermutation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	// Drag "a" from the first to the last position.
	err := svc.ReorderChapters(ctx, ReorderChaptersOptions{
		CourseID: course.ID,
		Positions: []ordering.Position{
			{ID: chapters[0].ID, Order: 3},
			{ID: chapters[1].ID, Order: 1},
			{ID: chapters[2].ID, Order: 2},
		},
	})
	require.NoError(t, err)

	listed, err := svc.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, chapterTitles(listed))
	assertContiguousOrders(t, listed)
}

func TestReorderChapters_RejectsPartialPermutation(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	err := svc.ReorderChapters(ctx, ReorderChaptersOptions{
		CourseID: course.ID,
		Positions: []ordering.Position{
			{ID: chapters[0].ID, Order: 1},
			{ID: chapters[1].ID, Order: 2},
		},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)

	// Nothing changed.
	listed, err := svc.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, chapterTitles(listed))
}

func TestReorderChapters_RejectsUnknownID(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b"})

	err := svc.ReorderChapters(ctx, ReorderChaptersOptions{
		CourseID: course.ID,
		Positions: []ordering.Position{
			{ID: chapters[0].ID, Order: 1},
			{ID: 9999, Order: 2},
		},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestReorderChapters_RejectsDuplicateOrders(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b"})

	err := svc.ReorderChapters(ctx, ReorderChaptersOptions{
		CourseID: course.ID,
		Positions: []ordering.Position{
			{ID: chapters[0].ID, Order: 1},
			{ID: chapters[1].ID, Order: 1},
		},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestReorderChapters_IsScopedToCourse(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b"})

	// Second course with its own chapters.
	other := &models.Course{OrganizationID: course.OrganizationID, Slug: "other-course", Title: "Other", Status: models.CourseStatusDraft}
	_, err := db.NewInsert().Model(other).Exec(ctx)
	require.NoError(t, err)
	otherChapter := &models.Chapter{CourseID: other.ID, Title: "x"}
	require.NoError(t, svc.CreateChapter(ctx, otherChapter))

	// Submitting the other course's chapter against this course fails.
	err = svc.ReorderChapters(ctx, ReorderChaptersOptions{
		CourseID: course.ID,
		Positions: []ordering.Position{
			{ID: chapters[0].ID, Order: 1},
			{ID: otherChapter.ID, Order: 2},
		},
	})
	require.Error(t, err)
}

func TestMoveChapterToPosition_FirstToLast(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	require.NoError(t, svc.MoveChapterToPosition(ctx, course.ID, chapters[0].ID, 3))

	listed, err := svc.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, chapterTitles(listed))
	assertContiguousOrders(t, listed)
}

func TestMoveChapterToPosition_LastToFirst(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	require.NoError(t, svc.MoveChapterToPosition(ctx, course.ID, chapters[2].ID, 1))

	listed, err := svc.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, chapterTitles(listed))
	assertContiguousOrders(t, listed)
}

func TestMoveChapterToPosition_SamePositionIsNoop(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	require.NoError(t, svc.MoveChapterToPosition(ctx, course.ID, chapters[1].ID, 2))

	listed, err := svc.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, chapterTitles(listed))
	assertContiguousOrders(t, listed)
}

func TestMoveChapterToPosition_InvalidPosition(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	for _, position := range []int{0, 4, -1} {
		err := svc.MoveChapterToPosition(ctx, course.ID, chapters[0].ID, position)
		require.Error(t, err, "position %d should be rejected", position)

		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, "validation_error", codeErr.Code)
	}
}

func TestMoveChapterToPosition_UnknownChapter(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, _ := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b"})

	err := svc.MoveChapterToPosition(ctx, course.ID, 9999, 1)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestDeleteChapter_RenumbersRemaining(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	course, chapters := createCourseWithChapters(ctx, t, db, svc, []string{"a", "b", "c"})

	require.NoError(t, svc.DeleteChapter(ctx, course.ID, chapters[1].ID))

	listed, err := svc.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, chapterTitles(listed))
	assertContiguousOrders(t, listed)
}
