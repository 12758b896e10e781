package reviews

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type CreateReviewOptions struct {
	UserID   int
	CourseID int
	Rating   int
	Title    *string
	Body     string
}

// CreateReview records a rating for a course the user is actively enrolled
// in. A user gets one review per course.
func (svc *Service) CreateReview(ctx context.Context, opts CreateReviewOptions) (*models.Review, error) {
	now := time.Now()
	review := &models.Review{
		CreatedAt: now,
		UpdatedAt: now,
		CourseID:  opts.CourseID,
		UserID:    opts.UserID,
		Rating:    opts.Rating,
		Title:     opts.Title,
		Body:      opts.Body,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Course)(nil)).
			Where("c.id = ?", opts.CourseID).
			Where("c.deleted_at IS NULL").
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Course")
		}

		enrolled, err := tx.NewSelect().
			Model((*models.Enrollment)(nil)).
			Where("e.user_id = ?", opts.UserID).
			Where("e.course_id = ?", opts.CourseID).
			Where("e.status = ?", models.EnrollmentStatusActive).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !enrolled {
			return errcodes.Forbidden("Reviewing a course without an active enrollment")
		}

		reviewed, err := tx.NewSelect().
			Model((*models.Review)(nil)).
			Where("rv.user_id = ?", opts.UserID).
			Where("rv.course_id = ?", opts.CourseID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if reviewed {
			return errcodes.Conflict("You have already reviewed this course.")
		}

		_, err = tx.NewInsert().Model(review).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

type ListReviewsOptions struct {
	CourseID *int
	UserID   *int
	Limit    int
	Offset   int

	includeTotal bool
}

func (svc *Service) ListReviews(ctx context.Context, opts ListReviewsOptions) ([]*models.Review, error) {
	reviews, _, err := svc.listReviews(ctx, opts)
	return reviews, err
}

func (svc *Service) ListReviewsWithTotal(ctx context.Context, opts ListReviewsOptions) ([]*models.Review, int, error) {
	opts.includeTotal = true
	return svc.listReviews(ctx, opts)
}

func (svc *Service) listReviews(ctx context.Context, opts ListReviewsOptions) ([]*models.Review, int, error) {
	reviews := []*models.Review{}

	q := svc.db.NewSelect().
		Model(&reviews).
		Relation("User").
		Order("rv.created_at DESC")

	if opts.CourseID != nil {
		q = q.Where("rv.course_id = ?", *opts.CourseID)
	}
	if opts.UserID != nil {
		q = q.Where("rv.user_id = ?", *opts.UserID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var total int
	var err error
	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return reviews, total, nil
}

func (svc *Service) RetrieveReview(ctx context.Context, id int) (*models.Review, error) {
	review := &models.Review{}
	err := svc.db.NewSelect().
		Model(review).
		Relation("User").
		Where("rv.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Review")
		}
		return nil, errors.WithStack(err)
	}
	return review, nil
}

type UpdateReviewOptions struct {
	ID      int
	UserID  int
	Columns []string
}

// UpdateReview edits the caller's own review.
func (svc *Service) UpdateReview(ctx context.Context, review *models.Review, opts UpdateReviewOptions) error {
	review.UpdatedAt = time.Now()
	opts.Columns = append(opts.Columns, "updated_at")

	res, err := svc.db.NewUpdate().
		Model(review).
		Column(opts.Columns...).
		Where("id = ?", opts.ID).
		Where("user_id = ?", opts.UserID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if rows == 0 {
		return errcodes.NotFound("Review")
	}

	return nil
}

type DeleteReviewOptions struct {
	ID int
	// UserID scopes the delete to the review author. Moderators pass nil.
	UserID *int
}

func (svc *Service) DeleteReview(ctx context.Context, opts DeleteReviewOptions) error {
	q := svc.db.NewDelete().
		Model((*models.Review)(nil)).
		Where("id = ?", opts.ID)

	if opts.UserID != nil {
		q = q.Where("user_id = ?", *opts.UserID)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if rows == 0 {
		return errcodes.NotFound("Review")
	}

	return nil
}
