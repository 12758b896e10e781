package enrollments

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

// EnrollOptions describes an enrollment request. PaymentID is required when
// the course has a price; the referenced payment must belong to the same user
// and course and must have succeeded.
type EnrollOptions struct {
	UserID    int
	CourseID  int
	PaymentID *string
}

// Enroll creates an active enrollment. Free courses enroll immediately; paid
// courses need a succeeded payment. A cancelled enrollment for the same course
// is reactivated instead of inserting a second row.
func (svc *Service) Enroll(ctx context.Context, opts EnrollOptions) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		course := &models.Course{}
		err := tx.NewSelect().
			Model(course).
			Where("c.id = ?", opts.CourseID).
			Where("c.deleted_at IS NULL").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Course")
			}
			return errors.WithStack(err)
		}
		if course.Status != models.CourseStatusPublished {
			return errcodes.ValidationError("Course is not open for enrollment")
		}

		if course.PriceCents > 0 {
			if opts.PaymentID == nil {
				return errcodes.PaymentRequired("This course requires payment before enrollment.")
			}
			payment := &models.Payment{}
			err := tx.NewSelect().
				Model(payment).
				Where("pay.id = ?", *opts.PaymentID).
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return errcodes.NotFound("Payment")
				}
				return errors.WithStack(err)
			}
			if payment.UserID != opts.UserID || payment.CourseID != opts.CourseID {
				return errcodes.ValidationError("Payment does not match this enrollment")
			}
			if payment.Status != models.PaymentStatusSucceeded {
				return errcodes.PaymentRequired("Payment has not succeeded yet.")
			}
		}

		existing := &models.Enrollment{}
		err = tx.NewSelect().
			Model(existing).
			Where("user_id = ?", opts.UserID).
			Where("course_id = ?", opts.CourseID).
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.WithStack(err)
		}
		if err == nil {
			if existing.Status == models.EnrollmentStatusActive {
				return errcodes.Conflict("You are already enrolled in this course.")
			}
			existing.Status = models.EnrollmentStatusActive
			existing.PaymentID = opts.PaymentID
			existing.UpdatedAt = time.Now()
			_, err = tx.NewUpdate().
				Model(existing).
				Column("status", "payment_id", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			*enrollment = *existing
			return nil
		}

		now := time.Now()
		enrollment.UserID = opts.UserID
		enrollment.CourseID = opts.CourseID
		enrollment.Status = models.EnrollmentStatusActive
		enrollment.PaymentID = opts.PaymentID
		enrollment.CreatedAt = now
		enrollment.UpdatedAt = now

		_, err = tx.NewInsert().
			Model(enrollment).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

type ListEnrollmentsOptions struct {
	UserID int
	Limit  int
	Offset int

	includeTotal bool
}

// ListEnrollments returns a user's enrollments, newest first, with the course
// relation loaded.
func (svc *Service) ListEnrollments(ctx context.Context, opts ListEnrollmentsOptions) ([]*models.Enrollment, error) {
	enrollments, _, err := svc.listEnrollments(ctx, opts)
	return enrollments, err
}

// ListEnrollmentsWithTotal is ListEnrollments plus the unpaginated count.
func (svc *Service) ListEnrollmentsWithTotal(ctx context.Context, opts ListEnrollmentsOptions) ([]*models.Enrollment, int, error) {
	opts.includeTotal = true
	return svc.listEnrollments(ctx, opts)
}

func (svc *Service) listEnrollments(ctx context.Context, opts ListEnrollmentsOptions) ([]*models.Enrollment, int, error) {
	enrollments := []*models.Enrollment{}

	q := svc.db.NewSelect().
		Model(&enrollments).
		Relation("Course").
		Where("e.user_id = ?", opts.UserID).
		Order("e.created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset)

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

	return enrollments, total, nil
}

// RetrieveEnrollment gets an enrollment by ID, scoped to a user.
func (svc *Service) RetrieveEnrollment(ctx context.Context, userID, id int) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{}
	err := svc.db.NewSelect().
		Model(enrollment).
		Relation("Course").
		Where("e.id = ?", id).
		Where("e.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Enrollment")
		}
		return nil, errors.WithStack(err)
	}
	return enrollment, nil
}

// CancelEnrollment marks an enrollment cancelled. Progress rows are kept so a
// re-enrollment picks up where the student left off.
func (svc *Service) CancelEnrollment(ctx context.Context, userID, id int) (*models.Enrollment, error) {
	enrollment, err := svc.RetrieveEnrollment(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return nil, errcodes.Conflict("Enrollment is already cancelled.")
	}

	enrollment.Status = models.EnrollmentStatusCancelled
	enrollment.UpdatedAt = time.Now()
	_, err = svc.db.NewUpdate().
		Model(enrollment).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return enrollment, nil
}

// CompleteLesson records that the user finished a lesson. Completing the same
// lesson twice is a no-op. Requires an active enrollment in the lesson's
// course.
func (svc *Service) CompleteLesson(ctx context.Context, userID, lessonID int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		lesson := &models.Lesson{}
		err := tx.NewSelect().
			Model(lesson).
			Column("le.id", "le.course_id").
			Where("le.id = ?", lessonID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Lesson")
			}
			return errors.WithStack(err)
		}

		enrolled, err := tx.NewSelect().
			Model((*models.Enrollment)(nil)).
			Where("user_id = ?", userID).
			Where("course_id = ?", lesson.CourseID).
			Where("status = ?", models.EnrollmentStatusActive).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !enrolled {
			return errcodes.Forbidden("Tracking progress without an active enrollment")
		}

		progress := &models.LessonProgress{
			UserID:      userID,
			LessonID:    lessonID,
			CourseID:    lesson.CourseID,
			CompletedAt: time.Now(),
		}
		_, err = tx.NewInsert().
			Model(progress).
			On("CONFLICT (user_id, lesson_id) DO NOTHING").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

// CourseProgress summarizes how far a user is through a course.
type CourseProgress struct {
	CourseID         int     `json:"course_id"`
	TotalLessons     int     `json:"total_lessons"`
	CompletedLessons int     `json:"completed_lessons"`
	Percent          float64 `json:"percent"`
}

// GetCourseProgress returns completed/total lesson counts and a percentage
// for the user in a course. A course with no lessons reports zero percent.
func (svc *Service) GetCourseProgress(ctx context.Context, userID, courseID int) (*CourseProgress, error) {
	total, err := svc.db.NewSelect().
		Model((*models.Lesson)(nil)).
		Where("course_id = ?", courseID).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	completed, err := svc.db.NewSelect().
		Model((*models.LessonProgress)(nil)).
		Where("user_id = ?", userID).
		Where("course_id = ?", courseID).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	progress := &CourseProgress{
		CourseID:         courseID,
		TotalLessons:     total,
		CompletedLessons: completed,
	}
	if total > 0 {
		progress.Percent = float64(completed) / float64(total) * 100
	}
	return progress, nil
}
