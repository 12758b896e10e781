package chapters

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

// ListChapters retrieves all chapters for a course in display order.
func (svc *Service) ListChapters(ctx context.Context, courseID int) ([]*models.Chapter, error) {
	chapters := []*models.Chapter{}
	err := svc.db.NewSelect().
		Model(&chapters).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return chapters, nil
}

// RetrieveChapter gets a chapter by ID, scoped to a course.
func (svc *Service) RetrieveChapter(ctx context.Context, courseID, id int) (*models.Chapter, error) {
	chapter := &models.Chapter{}
	err := svc.db.NewSelect().
		Model(chapter).
		Relation("Lessons", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("sort_order ASC")
		}).
		Where("ch.id = ?", id).
		Where("ch.course_id = ?", courseID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Chapter")
		}
		return nil, errors.WithStack(err)
	}
	return chapter, nil
}

// CreateChapter appends a chapter at the end of the course's sequence.
func (svc *Service) CreateChapter(ctx context.Context, chapter *models.Chapter) error {
	now := time.Now()
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = now
	}
	chapter.UpdatedAt = chapter.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().
			Model((*models.Chapter)(nil)).
			Where("course_id = ?", chapter.CourseID).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		chapter.SortOrder = count + 1

		_, err = tx.NewInsert().
			Model(chapter).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// UpdateChapter updates a chapter's fields. Ordering changes go through
// ReorderChapters or MoveChapterToPosition instead.
func (svc *Service) UpdateChapter(ctx context.Context, chapter *models.Chapter, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	chapter.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err := svc.db.NewUpdate().
		Model(chapter).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteChapter removes a chapter and renumbers the remaining ones so the
// sequence stays contiguous. Lessons in the chapter are removed via CASCADE.
func (svc *Service) DeleteChapter(ctx context.Context, courseID, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.Chapter)(nil)).
			Where("id = ?", id).
			Where("course_id = ?", courseID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Chapter")
		}

		return renumberChapters(ctx, tx, courseID)
	})
}

// ReorderChaptersOptions carries a full permutation of a course's chapters.
type ReorderChaptersOptions struct {
	CourseID  int
	Positions []ordering.Position
}

// ReorderChapters applies a complete permutation of the course's chapters in
// one transaction. The submitted positions must cover every chapter exactly
// once with orders 1..N; anything else is rejected and nothing changes.
func (svc *Service) ReorderChapters(ctx context.Context, opts ReorderChaptersOptions) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		chapters := []*models.Chapter{}
		err := tx.NewSelect().
			Model(&chapters).
			Column("ch.id").
			Where("course_id = ?", opts.CourseID).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		existingIDs := make([]int, len(chapters))
		for i, ch := range chapters {
			existingIDs[i] = ch.ID
		}

		if err := ordering.ValidatePermutation(existingIDs, opts.Positions); err != nil {
			return errcodes.ValidationError(err.Error())
		}

		for _, p := range ordering.Sorted(opts.Positions) {
			_, err := tx.NewUpdate().
				Model((*models.Chapter)(nil)).
				Set("sort_order = ?", p.Order).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", p.ID).
				Where("course_id = ?", opts.CourseID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return touchCourse(ctx, tx, opts.CourseID)
	})
}

// MoveChapterToPosition moves one chapter to a 1-based position and renumbers
// the whole sequence.
func (svc *Service) MoveChapterToPosition(ctx context.Context, courseID, chapterID, position int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		chapters := []*models.Chapter{}
		err := tx.NewSelect().
			Model(&chapters).
			Where("course_id = ?", courseID).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		currentIndex := -1
		for i, ch := range chapters {
			if ch.ID == chapterID {
				currentIndex = i
				break
			}
		}
		if currentIndex == -1 {
			return errcodes.NotFound("Chapter")
		}

		if position < 1 || position > len(chapters) {
			return errcodes.ValidationError("Invalid position")
		}

		moved, err := ordering.Move(chapters, currentIndex, position-1)
		if err != nil {
			return errcodes.ValidationError(err.Error())
		}

		var updateErr error
		ordering.Renumber(moved, func(ch *models.Chapter, pos int) {
			if updateErr != nil {
				return
			}
			_, err := tx.NewUpdate().
				Model((*models.Chapter)(nil)).
				Set("sort_order = ?", pos).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", ch.ID).
				Exec(ctx)
			updateErr = errors.WithStack(err)
		})
		if updateErr != nil {
			return updateErr
		}

		return touchCourse(ctx, tx, courseID)
	})
}

func renumberChapters(ctx context.Context, tx bun.Tx, courseID int) error {
	chapters := []*models.Chapter{}
	err := tx.NewSelect().
		Model(&chapters).
		Column("ch.id").
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	var updateErr error
	ordering.Renumber(chapters, func(ch *models.Chapter, pos int) {
		if updateErr != nil {
			return
		}
		_, err := tx.NewUpdate().
			Model((*models.Chapter)(nil)).
			Set("sort_order = ?", pos).
			Where("id = ?", ch.ID).
			Exec(ctx)
		updateErr = errors.WithStack(err)
	})
	return updateErr
}

func touchCourse(ctx context.Context, tx bun.Tx, courseID int) error {
	_, err := tx.NewUpdate().
		Model((*models.Course)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", courseID).
		Exec(ctx)
	return errors.WithStack(err)
}
