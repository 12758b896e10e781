package courses

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveCourseOptions struct {
	ID             *int
	Slug           *string
	OrganizationID *int
	// PublishedOnly restricts the lookup to published courses. Used for the
	// public catalog so drafts never leak.
	PublishedOnly bool
	// IncludeCurriculum loads chapters and their lessons ordered by sort_order.
	IncludeCurriculum bool
}

type ListCoursesOptions struct {
	Limit          *int
	Offset         *int
	OrganizationID *int
	OrgIDs         []int
	Status         *string
	Search         *string
	IncludeDeleted bool

	includeTotal bool
}

type UpdateCourseOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateCourse(ctx context.Context, course *models.Course) error {
	now := time.Now()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = course.CreatedAt
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}

	exists, err := svc.db.
		NewSelect().
		Model((*models.Course)(nil)).
		Where("organization_id = ?", course.OrganizationID).
		Where("slug = ? COLLATE NOCASE", course.Slug).
		Where("deleted_at IS NULL").
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.Conflict("A course with this slug already exists in the organization.")
	}

	_, err = svc.db.
		NewInsert().
		Model(course).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// ratingColumns attaches review aggregates to a course select.
func ratingColumns(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		ColumnExpr("(SELECT AVG(rating) FROM reviews WHERE reviews.course_id = c.id) AS rating_average").
		ColumnExpr("(SELECT COUNT(*) FROM reviews WHERE reviews.course_id = c.id) AS rating_count")
}

func (svc *Service) RetrieveCourse(ctx context.Context, opts RetrieveCourseOptions) (*models.Course, error) {
	course := &models.Course{}

	q := svc.db.
		NewSelect().
		Model(course).
		Column("c.*").
		Apply(ratingColumns).
		Where("c.deleted_at IS NULL")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("c.slug = ? COLLATE NOCASE", *opts.Slug)
	}
	if opts.OrganizationID != nil {
		q = q.Where("c.organization_id = ?", *opts.OrganizationID)
	}
	if opts.PublishedOnly {
		q = q.Where("c.status = ?", models.CourseStatusPublished)
	}
	if opts.IncludeCurriculum {
		q = q.
			Relation("Chapters", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.Order("sort_order ASC")
			}).
			Relation("Chapters.Lessons", func(sq *bun.SelectQuery) *bun.SelectQuery {
				return sq.Order("sort_order ASC")
			})
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Course")
		}
		return nil, errors.WithStack(err)
	}

	return course, nil
}

func (svc *Service) ListCourses(ctx context.Context, opts ListCoursesOptions) ([]*models.Course, error) {
	courses, _, err := svc.listCoursesWithTotal(ctx, opts)
	return courses, errors.WithStack(err)
}

func (svc *Service) ListCoursesWithTotal(ctx context.Context, opts ListCoursesOptions) ([]*models.Course, int, error) {
	opts.includeTotal = true
	return svc.listCoursesWithTotal(ctx, opts)
}

func (svc *Service) listCoursesWithTotal(ctx context.Context, opts ListCoursesOptions) ([]*models.Course, int, error) {
	courses := []*models.Course{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&courses).
		Column("c.*").
		Apply(ratingColumns).
		Order("c.title ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if !opts.IncludeDeleted {
		q = q.Where("c.deleted_at IS NULL")
	}
	if opts.OrganizationID != nil {
		q = q.Where("c.organization_id = ?", *opts.OrganizationID)
	}
	if opts.OrgIDs != nil {
		q = q.Where("c.organization_id IN (?)", bun.In(opts.OrgIDs))
	}
	if opts.Status != nil {
		q = q.Where("c.status = ?", *opts.Status)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + *opts.Search + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				Where("c.title LIKE ? COLLATE NOCASE", search).
				WhereOr("c.summary LIKE ? COLLATE NOCASE", search)
		})
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return courses, total, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, course *models.Course, opts UpdateCourseOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	course.UpdatedAt = time.Now()
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(course).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Course")
		}
		return errors.WithStack(err)
	}

	return nil
}

// PublishCourse moves a draft course to published. A course needs at least
// one lesson before it can be published.
func (svc *Service) PublishCourse(ctx context.Context, course *models.Course) error {
	if course.Status == models.CourseStatusPublished {
		return nil
	}
	if course.Status == models.CourseStatusArchived {
		return errcodes.ValidationError("Archived courses cannot be published. Restore the course to a draft first.")
	}

	lessonCount, err := svc.db.
		NewSelect().
		Model((*models.Lesson)(nil)).
		Where("course_id = ?", course.ID).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if lessonCount == 0 {
		return errcodes.ValidationError("A course needs at least one lesson before it can be published.")
	}

	now := time.Now()
	course.Status = models.CourseStatusPublished
	course.PublishedAt = &now

	return svc.UpdateCourse(ctx, course, UpdateCourseOptions{
		Columns: []string{"status", "published_at"},
	})
}

// ArchiveCourse hides a published course from the catalog. Existing
// enrollments keep working.
func (svc *Service) ArchiveCourse(ctx context.Context, course *models.Course) error {
	if course.Status == models.CourseStatusArchived {
		return nil
	}

	course.Status = models.CourseStatusArchived

	return svc.UpdateCourse(ctx, course, UpdateCourseOptions{
		Columns: []string{"status"},
	})
}
