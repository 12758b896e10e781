package quizzes

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/tutorahq/tutora/pkg/ordering"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// RetrieveQuizByLesson gets a lesson's quiz with its questions in display
// order. Option JSON is parsed for serialization; correct indexes stay
// server-side.
func (svc *Service) RetrieveQuizByLesson(ctx context.Context, lessonID int) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := svc.db.NewSelect().
		Model(quiz).
		Relation("Questions", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("sort_order ASC")
		}).
		Where("q.lesson_id = ?", lessonID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Quiz")
		}
		return nil, errors.WithStack(err)
	}
	if err := unmarshalQuestionOptions(quiz.Questions); err != nil {
		return nil, err
	}
	return quiz, nil
}

// RetrieveQuiz gets a quiz by ID with ordered questions.
func (svc *Service) RetrieveQuiz(ctx context.Context, id int) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := svc.db.NewSelect().
		Model(quiz).
		Relation("Questions", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("sort_order ASC")
		}).
		Where("q.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Quiz")
		}
		return nil, errors.WithStack(err)
	}
	if err := unmarshalQuestionOptions(quiz.Questions); err != nil {
		return nil, err
	}
	return quiz, nil
}

// CreateQuiz attaches a quiz to a lesson. A lesson holds at most one quiz.
func (svc *Service) CreateQuiz(ctx context.Context, quiz *models.Quiz) error {
	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	quiz.UpdatedAt = quiz.CreatedAt
	if quiz.PassPercent == 0 {
		quiz.PassPercent = 70
	}

	lessonExists, err := svc.db.NewSelect().
		Model((*models.Lesson)(nil)).
		Where("id = ?", quiz.LessonID).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if !lessonExists {
		return errcodes.NotFound("Lesson")
	}

	_, err = svc.db.NewInsert().
		Model(quiz).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return errcodes.Conflict("This lesson already has a quiz.")
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) UpdateQuiz(ctx context.Context, quiz *models.Quiz, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	quiz.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err := svc.db.NewUpdate().
		Model(quiz).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteQuiz removes a quiz with its questions and attempts via CASCADE.
func (svc *Service) DeleteQuiz(ctx context.Context, id int) error {
	res, err := svc.db.NewDelete().
		Model((*models.Quiz)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Quiz")
	}
	return nil
}

// CreateQuestion appends a question at the end of the quiz's sequence.
func (svc *Service) CreateQuestion(ctx context.Context, question *models.Question) error {
	if len(question.OptionsParsed) > 0 {
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.OptionsParsed) {
			return errcodes.ValidationError("Correct index is out of range")
		}
		if err := question.MarshalOptions(); err != nil {
			return err
		}
	}

	now := time.Now()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = question.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Quiz)(nil)).
			Where("id = ?", question.QuizID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Quiz")
		}

		count, err := tx.NewSelect().
			Model((*models.Question)(nil)).
			Where("quiz_id = ?", question.QuizID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		question.SortOrder = count + 1

		_, err = tx.NewInsert().
			Model(question).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// RetrieveQuestion gets a question by ID, scoped to a quiz.
func (svc *Service) RetrieveQuestion(ctx context.Context, quizID, id int) (*models.Question, error) {
	question := &models.Question{}
	err := svc.db.NewSelect().
		Model(question).
		Where("qq.id = ?", id).
		Where("qq.quiz_id = ?", quizID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Question")
		}
		return nil, errors.WithStack(err)
	}
	if err := question.UnmarshalOptions(); err != nil {
		return nil, err
	}
	return question, nil
}

func (svc *Service) UpdateQuestion(ctx context.Context, question *models.Question, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	for _, col := range columns {
		if col == "options" {
			if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.OptionsParsed) {
				return errcodes.ValidationError("Correct index is out of range")
			}
			if err := question.MarshalOptions(); err != nil {
				return err
			}
			break
		}
	}

	question.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err := svc.db.NewUpdate().
		Model(question).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteQuestion removes a question and renumbers the remaining ones.
func (svc *Service) DeleteQuestion(ctx context.Context, quizID, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Question)(nil)).
			Where("id = ?", id).
			Where("quiz_id = ?", quizID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Question")
		}

		return renumberQuestions(ctx, tx, quizID)
	})
}

// ReorderQuestionsOptions carries a full permutation of a quiz's questions.
type ReorderQuestionsOptions struct {
	QuizID    int
	Positions []ordering.Position
}

// ReorderQuestions applies a complete permutation of the quiz's questions in
// one transaction; anything short of a full permutation is rejected.
func (svc *Service) ReorderQuestions(ctx context.Context, opts ReorderQuestionsOptions) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		questions := []*models.Question{}
		err := tx.NewSelect().
			Model(&questions).
			Column("qq.id").
			Where("quiz_id = ?", opts.QuizID).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		existingIDs := make([]int, len(questions))
		for i, q := range questions {
			existingIDs[i] = q.ID
		}

		if err := ordering.ValidatePermutation(existingIDs, opts.Positions); err != nil {
			return errcodes.ValidationError(err.Error())
		}

		for _, p := range ordering.Sorted(opts.Positions) {
			_, err := tx.NewUpdate().
				Model((*models.Question)(nil)).
				Set("sort_order = ?", p.Order).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", p.ID).
				Where("quiz_id = ?", opts.QuizID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return touchQuiz(ctx, tx, opts.QuizID)
	})
}

// MoveQuestionToPosition moves one question to a 1-based position and
// renumbers the whole sequence.
func (svc *Service) MoveQuestionToPosition(ctx context.Context, quizID, questionID, position int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		questions := []*models.Question{}
		err := tx.NewSelect().
			Model(&questions).
			Where("quiz_id = ?", quizID).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		currentIndex := -1
		for i, q := range questions {
			if q.ID == questionID {
				currentIndex = i
				break
			}
		}
		if currentIndex == -1 {
			return errcodes.NotFound("Question")
		}

		if position < 1 || position > len(questions) {
			return errcodes.ValidationError("Invalid position")
		}

		moved, err := ordering.Move(questions, currentIndex, position-1)
		if err != nil {
			return errcodes.ValidationError(err.Error())
		}

		var updateErr error
		ordering.Renumber(moved, func(q *models.Question, pos int) {
			if updateErr != nil {
				return
			}
			_, err := tx.NewUpdate().
				Model((*models.Question)(nil)).
				Set("sort_order = ?", pos).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", q.ID).
				Exec(ctx)
			updateErr = errors.WithStack(err)
		})
		if updateErr != nil {
			return updateErr
		}

		return touchQuiz(ctx, tx, quizID)
	})
}

// SubmitAttemptOptions carries a student's answers keyed by question ID
// (selected option index, 0-based).
type SubmitAttemptOptions struct {
	QuizID  int
	UserID  int
	Answers map[int]int
}

// SubmitAttempt scores a quiz submission server-side and records it. The
// student must hold an active enrollment in the quiz's course. Unanswered
// questions score zero; answers for unknown questions are rejected.
func (svc *Service) SubmitAttempt(ctx context.Context, opts SubmitAttemptOptions) (*models.QuizAttempt, error) {
	attempt := &models.QuizAttempt{}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		quiz := &models.Quiz{}
		err := tx.NewSelect().
			Model(quiz).
			Relation("Lesson").
			Relation("Questions", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.Order("sort_order ASC")
			}).
			Where("q.id = ?", opts.QuizID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Quiz")
			}
			return errors.WithStack(err)
		}
		if len(quiz.Questions) == 0 {
			return errcodes.ValidationError("Quiz has no questions")
		}

		enrolled, err := tx.NewSelect().
			Model((*models.Enrollment)(nil)).
			Where("user_id = ?", opts.UserID).
			Where("course_id = ?", quiz.Lesson.CourseID).
			Where("status = ?", models.EnrollmentStatusActive).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !enrolled {
			return errcodes.Forbidden("Taking quizzes without an active enrollment")
		}

		byID := make(map[int]*models.Question, len(quiz.Questions))
		for _, q := range quiz.Questions {
			byID[q.ID] = q
		}

		score := 0
		for questionID, selected := range opts.Answers {
			question, ok := byID[questionID]
			if !ok {
				return errcodes.ValidationError("Unknown question id " + strconv.Itoa(questionID))
			}
			if selected == question.CorrectIndex {
				score++
			}
		}

		maxScore := len(quiz.Questions)
		percent := score * 100 / maxScore

		attemptNumber, err := tx.NewSelect().
			Model((*models.QuizAttempt)(nil)).
			Where("quiz_id = ?", opts.QuizID).
			Where("user_id = ?", opts.UserID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		answers, err := json.Marshal(opts.Answers)
		if err != nil {
			return errors.WithStack(err)
		}

		attempt.QuizID = opts.QuizID
		attempt.UserID = opts.UserID
		attempt.Answers = string(answers)
		attempt.Score = score
		attempt.MaxScore = maxScore
		attempt.Passed = percent >= quiz.PassPercent
		attempt.AttemptNumber = attemptNumber + 1
		attempt.CreatedAt = time.Now()

		_, err = tx.NewInsert().
			Model(attempt).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// ListAttempts returns a user's attempts for a quiz, oldest first.
func (svc *Service) ListAttempts(ctx context.Context, quizID, userID int) ([]*models.QuizAttempt, error) {
	attempts := []*models.QuizAttempt{}
	err := svc.db.NewSelect().
		Model(&attempts).
		Where("quiz_id = ?", quizID).
		Where("user_id = ?", userID).
		Order("attempt_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return attempts, nil
}

func renumberQuestions(ctx context.Context, tx bun.Tx, quizID int) error {
	questions := []*models.Question{}
	err := tx.NewSelect().
		Model(&questions).
		Column("qq.id").
		Where("quiz_id = ?", quizID).
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	var updateErr error
	ordering.Renumber(questions, func(q *models.Question, pos int) {
		if updateErr != nil {
			return
		}
		_, err := tx.NewUpdate().
			Model((*models.Question)(nil)).
			Set("sort_order = ?", pos).
			Where("id = ?", q.ID).
			Exec(ctx)
		updateErr = errors.WithStack(err)
	})
	return updateErr
}

func touchQuiz(ctx context.Context, tx bun.Tx, quizID int) error {
	_, err := tx.NewUpdate().
		Model((*models.Quiz)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", quizID).
		Exec(ctx)
	return errors.WithStack(err)
}

func unmarshalQuestionOptions(questions []*models.Question) error {
	for _, q := range questions {
		if err := q.UnmarshalOptions(); err != nil {
			return err
		}
	}
	return nil
}
