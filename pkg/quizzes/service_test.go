package quizzes

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
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

type fixture struct {
	user   *models.User
	course *models.Course
	lesson *models.Lesson
}

func setupFixture(ctx context.Context, t *testing.T, db *bun.DB) fixture {
	t.Helper()

	org := &models.Organization{Name: "Acme Academy", Slug: "acme-academy"}
	_, err := db.NewInsert().Model(org).Exec(ctx)
	require.NoError(t, err)

	now := time.Now()
	course := &models.Course{
		OrganizationID: org.ID,
		Slug:           "test-course",
		Title:          "Test Course",
		Status:         models.CourseStatusPublished,
		PublishedAt:    &now,
	}
	_, err = db.NewInsert().Model(course).Exec(ctx)
	require.NoError(t, err)

	chapter := &models.Chapter{CourseID: course.ID, Title: "Chapter", SortOrder: 1}
	_, err = db.NewInsert().Model(chapter).Exec(ctx)
	require.NoError(t, err)

	lesson := &models.Lesson{ChapterID: chapter.ID, CourseID: course.ID, SortOrder: 1, Title: "Lesson"}
	_, err = db.NewInsert().Model(lesson).Exec(ctx)
	require.NoError(t, err)

	role := &models.Role{}
	err = db.NewSelect().Model(role).Where("name = ?", "student").Scan(ctx)
	require.NoError(t, err)

	user := &models.User{Username: "student1", PasswordHash: "x", RoleID: role.ID, IsActive: true}
	_, err = db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return fixture{user: user, course: course, lesson: lesson}
}

func enroll(ctx context.Context, t *testing.T, db *bun.DB, f fixture) {
	t.Helper()
	enrollment := &models.Enrollment{UserID: f.user.ID, CourseID: f.course.ID, Status: models.EnrollmentStatusActive}
	_, err := db.NewInsert().Model(enrollment).Exec(ctx)
	require.NoError(t, err)
}

func createQuizWithQuestions(ctx context.Context, t *testing.T, svc *Service, lessonID, correctIndex int, prompts []string) *models.Quiz {
	t.Helper()

	quiz := &models.Quiz{LessonID: lessonID, Title: "Checkpoint", PassPercent: 60}
	require.NoError(t, svc.CreateQuiz(ctx, quiz))

	for _, prompt := range prompts {
		question := &models.Question{
			QuizID:        quiz.ID,
			Prompt:        prompt,
			OptionsParsed: []string{"red", "green", "blue"},
			CorrectIndex:  correctIndex,
		}
		require.NoError(t, svc.CreateQuestion(ctx, question))
	}

	return quiz
}

func TestCreateQuiz_OnePerLesson(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)

	quiz := &models.Quiz{LessonID: f.lesson.ID, Title: "First"}
	require.NoError(t, svc.CreateQuiz(ctx, quiz))
	assert.Equal(t, 70, quiz.PassPercent)

	err := svc.CreateQuiz(ctx, &models.Quiz{LessonID: f.lesson.ID, Title: "Second"})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "conflict", codeErr.Code)
}

func TestCreateQuestion_AppendsAndValidatesCorrectIndex(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 1, []string{"q1", "q2"})

	loaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Questions, 2)
	assert.Equal(t, 1, loaded.Questions[0].SortOrder)
	assert.Equal(t, 2, loaded.Questions[1].SortOrder)
	assert.Equal(t, []string{"red", "green", "blue"}, loaded.Questions[0].OptionsParsed)

	err = svc.CreateQuestion(ctx, &models.Question{
		QuizID:        quiz.ID,
		Prompt:        "bad",
		OptionsParsed: []string{"a", "b"},
		CorrectIndex:  5,
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestQuestionJSON_NeverExposesCorrectIndex(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 2, []string{"q1"})

	loaded, err := svc.RetrieveQuizByLesson(ctx, f.lesson.ID)
	require.NoError(t, err)
	require.Equal(t, quiz.ID, loaded.ID)

	data, err := json.Marshal(loaded)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "correct_index")
	assert.NotContains(t, string(data), "CorrectIndex")
	assert.Contains(t, string(data), `"options"`)
}

func TestReorderQuestions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 0, []string{"q1", "q2", "q3"})

	loaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)

	err = svc.ReorderQuestions(ctx, ReorderQuestionsOptions{
		QuizID: quiz.ID,
		Positions: []ordering.Position{
			{ID: loaded.Questions[0].ID, Order: 3},
			{ID: loaded.Questions[1].ID, Order: 1},
			{ID: loaded.Questions[2].ID, Order: 2},
		},
	})
	require.NoError(t, err)

	reloaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "q2", reloaded.Questions[0].Prompt)
	assert.Equal(t, "q3", reloaded.Questions[1].Prompt)
	assert.Equal(t, "q1", reloaded.Questions[2].Prompt)

	// A partial submission changes nothing.
	err = svc.ReorderQuestions(ctx, ReorderQuestionsOptions{
		QuizID: quiz.ID,
		Positions: []ordering.Position{
			{ID: loaded.Questions[0].ID, Order: 1},
		},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestMoveQuestionToPosition(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 0, []string{"q1", "q2", "q3"})

	loaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)

	require.NoError(t, svc.MoveQuestionToPosition(ctx, quiz.ID, loaded.Questions[2].ID, 1))

	reloaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "q3", reloaded.Questions[0].Prompt)
	assert.Equal(t, "q1", reloaded.Questions[1].Prompt)
	assert.Equal(t, "q2", reloaded.Questions[2].Prompt)
	for i, q := range reloaded.Questions {
		assert.Equal(t, i+1, q.SortOrder)
	}
}

func TestDeleteQuestion_Renumbers(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 0, []string{"q1", "q2", "q3"})

	loaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteQuestion(ctx, quiz.ID, loaded.Questions[1].ID))

	reloaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Questions, 2)
	assert.Equal(t, "q1", reloaded.Questions[0].Prompt)
	assert.Equal(t, "q3", reloaded.Questions[1].Prompt)
	assert.Equal(t, 1, reloaded.Questions[0].SortOrder)
	assert.Equal(t, 2, reloaded.Questions[1].SortOrder)
}

func TestSubmitAttempt_ScoresServerSide(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	enroll(ctx, t, db, f)

	// Pass percent 60; three questions with correct option index 1.
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 1, []string{"q1", "q2", "q3"})
	loaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)

	// Two right, one wrong: 66% passes.
	attempt, err := svc.SubmitAttempt(ctx, SubmitAttemptOptions{
		QuizID: quiz.ID,
		UserID: f.user.ID,
		Answers: map[int]int{
			loaded.Questions[0].ID: 1,
			loaded.Questions[1].ID: 1,
			loaded.Questions[2].ID: 0,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempt.Score)
	assert.Equal(t, 3, attempt.MaxScore)
	assert.True(t, attempt.Passed)
	assert.Equal(t, 1, attempt.AttemptNumber)

	// One right: 33% fails, attempt number increments.
	attempt, err = svc.SubmitAttempt(ctx, SubmitAttemptOptions{
		QuizID: quiz.ID,
		UserID: f.user.ID,
		Answers: map[int]int{
			loaded.Questions[0].ID: 1,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempt.Score)
	assert.False(t, attempt.Passed)
	assert.Equal(t, 2, attempt.AttemptNumber)

	attempts, err := svc.ListAttempts(ctx, quiz.ID, f.user.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 1, attempts[0].AttemptNumber)
	assert.Equal(t, 2, attempts[1].AttemptNumber)
}

func TestSubmitAttempt_RequiresEnrollment(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 0, []string{"q1"})
	loaded, err := svc.RetrieveQuiz(ctx, quiz.ID)
	require.NoError(t, err)

	_, err = svc.SubmitAttempt(ctx, SubmitAttemptOptions{
		QuizID:  quiz.ID,
		UserID:  f.user.ID,
		Answers: map[int]int{loaded.Questions[0].ID: 0},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "forbidden", codeErr.Code)
}

func TestSubmitAttempt_RejectsUnknownQuestion(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	f := setupFixture(ctx, t, db)
	enroll(ctx, t, db, f)
	quiz := createQuizWithQuestions(ctx, t, svc, f.lesson.ID, 0, []string{"q1"})

	_, err := svc.SubmitAttempt(ctx, SubmitAttemptOptions{
		QuizID:  quiz.ID,
		UserID:  f.user.ID,
		Answers: map[int]int{9999: 0},
	})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}
