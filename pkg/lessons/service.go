package lessons

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
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

// ListLessons retrieves all lessons for a chapter in display order.
func (svc *Service) ListLessons(ctx context.Context, chapterID int) ([]*models.Lesson, error) {
	lessons := []*models.Lesson{}
	err := svc.db.NewSelect().
		Model(&lessons).
		Where("chapter_id = ?", chapterID).
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return lessons, nil
}

// RetrieveLesson gets a lesson by ID, scoped to a chapter.
func (svc *Service) RetrieveLesson(ctx context.Context, chapterID, id int) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	err := svc.db.NewSelect().
		Model(lesson).
		Relation("Quiz").
		Where("le.id = ?", id).
		Where("le.chapter_id = ?", chapterID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Lesson")
		}
		return nil, errors.WithStack(err)
	}
	return lesson, nil
}

// CreateLesson appends a lesson at the end of the chapter's sequence. The
// parent chapter must belong to the given course; the lesson carries the
// course ID so progress queries avoid a join.
func (svc *Service) CreateLesson(ctx context.Context, courseID int, lesson *models.Lesson) error {
	now := time.Now()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = lesson.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Chapter)(nil)).
			Where("id = ?", lesson.ChapterID).
			Where("course_id = ?", courseID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Chapter")
		}
		lesson.CourseID = courseID

		count, err := tx.NewSelect().
			Model((*models.Lesson)(nil)).
			Where("chapter_id = ?", lesson.ChapterID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		lesson.SortOrder = count + 1

		_, err = tx.NewInsert().
			Model(lesson).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// HasActiveEnrollment reports whether the user holds an active enrollment in
// the course. Lesson content and videos are only served to enrolled students
// unless the lesson is a free preview.
func (svc *Service) HasActiveEnrollment(ctx context.Context, userID, courseID int) (bool, error) {
	exists, err := svc.db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Where("status = ?", models.EnrollmentStatusActive).
		Exists(ctx)
	return exists, errors.WithStack(err)
}

// UpdateLesson updates a lesson's fields. Ordering changes go through
// ReorderLessons or MoveLessonToPosition instead.
func (svc *Service) UpdateLesson(ctx context.Context, lesson *models.Lesson, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	lesson.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err := svc.db.NewUpdate().
		Model(lesson).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteLesson removes a lesson and renumbers the remaining ones so the
// sequence stays contiguous. Progress rows and the lesson's quiz are removed
// via CASCADE.
func (svc *Service) DeleteLesson(ctx context.Context, chapterID, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Lesson)(nil)).
			Where("id = ?", id).
			Where("chapter_id = ?", chapterID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Lesson")
		}

		return renumberLessons(ctx, tx, chapterID)
	})
}

// ReorderLessonsOptions carries a full permutation of a chapter's lessons.
type ReorderLessonsOptions struct {
	ChapterID int
	Positions []ordering.Position
}

// ReorderLessons applies a complete permutation of the chapter's lessons in
// one transaction. The submitted positions must cover every lesson exactly
// once with orders 1..N; anything else is rejected and nothing changes.
func (svc *Service) ReorderLessons(ctx context.Context, opts ReorderLessonsOptions) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		lessons := []*models.Lesson{}
		err := tx.NewSelect().
			Model(&lessons).
			Column("le.id").
			Where("chapter_id = ?", opts.ChapterID).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		existingIDs := make([]int, len(lessons))
		for i, le := range lessons {
			existingIDs[i] = le.ID
		}

		if err := ordering.ValidatePermutation(existingIDs, opts.Positions); err != nil {
			return errcodes.ValidationError(err.Error())
		}

		for _, p := range ordering.Sorted(opts.Positions) {
			_, err := tx.NewUpdate().
				Model((*models.Lesson)(nil)).
				Set("sort_order = ?", p.Order).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", p.ID).
				Where("chapter_id = ?", opts.ChapterID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return touchChapter(ctx, tx, opts.ChapterID)
	})
}

// MoveLessonToPosition moves one lesson to a 1-based position within its
// chapter and renumbers the whole sequence.
func (svc *Service) MoveLessonToPosition(ctx context.Context, chapterID, lessonID, position int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		lessons := []*models.Lesson{}
		err := tx.NewSelect().
			Model(&lessons).
			Where("chapter_id = ?", chapterID).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		currentIndex := -1
		for i, le := range lessons {
			if le.ID == lessonID {
				currentIndex = i
				break
			}
		}
		if currentIndex == -1 {
			return errcodes.NotFound("Lesson")
		}

		if position < 1 || position > len(lessons) {
			return errcodes.ValidationError("Invalid position")
		}

		moved, err := ordering.Move(lessons, currentIndex, position-1)
		if err != nil {
			return errcodes.ValidationError(err.Error())
		}

		var updateErr error
		ordering.Renumber(moved, func(le *models.Lesson, pos int) {
			if updateErr != nil {
				return
			}
			_, err := tx.NewUpdate().
				Model((*models.Lesson)(nil)).
				Set("sort_order = ?", pos).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", le.ID).
				Exec(ctx)
			updateErr = errors.WithStack(err)
		})
		if updateErr != nil {
			return updateErr
		}

		return touchChapter(ctx, tx, chapterID)
	})
}

func renumberLessons(ctx context.Context, tx bun.Tx, chapterID int) error {
	lessons := []*models.Lesson{}
	err := tx.NewSelect().
		Model(&lessons).
		Column("le.id").
		Where("chapter_id = ?", chapterID).
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	var updateErr error
	ordering.Renumber(lessons, func(le *models.Lesson, pos int) {
		if updateErr != nil {
			return
		}
		_, err := tx.NewUpdate().
			Model((*models.Lesson)(nil)).
			Set("sort_order = ?", pos).
			Where("id = ?", le.ID).
			Exec(ctx)
		updateErr = errors.WithStack(err)
	})
	return updateErr
}

func touchChapter(ctx context.Context, tx bun.Tx, chapterID int) error {
	_, err := tx.NewUpdate().
		Model((*models.Chapter)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", chapterID).
		Exec(ctx)
	return errors.WithStack(err)
}
