package faqs

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

type ListFAQsOptions struct {
	PublishedOnly bool
}

// ListFAQs returns FAQ entries in display order. The public endpoint only
// sees published entries.
func (svc *Service) ListFAQs(ctx context.Context, opts ListFAQsOptions) ([]*models.FAQ, error) {
	faqs := []*models.FAQ{}

	q := svc.db.NewSelect().
		Model(&faqs).
		Order("sort_order ASC")

	if opts.PublishedOnly {
		q = q.Where("published = ?", true)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return faqs, nil
}

// RetrieveFAQ gets a FAQ entry by ID.
func (svc *Service) RetrieveFAQ(ctx context.Context, id int) (*models.FAQ, error) {
	faq := &models.FAQ{}
	err := svc.db.NewSelect().
		Model(faq).
		Where("f.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("FAQ")
		}
		return nil, errors.WithStack(err)
	}
	return faq, nil
}

// CreateFAQ appends an entry at the end of the list.
func (svc *Service) CreateFAQ(ctx context.Context, faq *models.FAQ) error {
	now := time.Now()
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = now
	}
	faq.UpdatedAt = faq.CreatedAt

	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		count, err := tx.NewSelect().
			Model((*models.FAQ)(nil)).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		faq.SortOrder = count + 1

		_, err = tx.NewInsert().
			Model(faq).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func (svc *Service) UpdateFAQ(ctx context.Context, faq *models.FAQ, columns []string) error {
	if len(columns) == 0 {
		return nil
	}

	faq.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")

	_, err := svc.db.NewUpdate().
		Model(faq).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// DeleteFAQ removes an entry and renumbers the remaining ones.
func (svc *Service) DeleteFAQ(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.FAQ)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("FAQ")
		}

		return renumberFAQs(ctx, tx)
	})
}

// ReorderFAQs applies a complete permutation of the FAQ list in one
// transaction; anything short of a full permutation is rejected.
func (svc *Service) ReorderFAQs(ctx context.Context, positions []ordering.Position) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		faqs := []*models.FAQ{}
		err := tx.NewSelect().
			Model(&faqs).
			Column("f.id").
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		existingIDs := make([]int, len(faqs))
		for i, f := range faqs {
			existingIDs[i] = f.ID
		}

		if err := ordering.ValidatePermutation(existingIDs, positions); err != nil {
			return errcodes.ValidationError(err.Error())
		}

		for _, p := range ordering.Sorted(positions) {
			_, err := tx.NewUpdate().
				Model((*models.FAQ)(nil)).
				Set("sort_order = ?", p.Order).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", p.ID).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
}

// MoveFAQToPosition moves one entry to a 1-based position and renumbers the
// whole list.
func (svc *Service) MoveFAQToPosition(ctx context.Context, id, position int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		faqs := []*models.FAQ{}
		err := tx.NewSelect().
			Model(&faqs).
			Order("sort_order ASC").
			Scan(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		currentIndex := -1
		for i, f := range faqs {
			if f.ID == id {
				currentIndex = i
				break
			}
		}
		if currentIndex == -1 {
			return errcodes.NotFound("FAQ")
		}

		if position < 1 || position > len(faqs) {
			return errcodes.ValidationError("Invalid position")
		}

		moved, err := ordering.Move(faqs, currentIndex, position-1)
		if err != nil {
			return errcodes.ValidationError(err.Error())
		}

		var updateErr error
		ordering.Renumber(moved, func(f *models.FAQ, pos int) {
			if updateErr != nil {
				return
			}
			_, err := tx.NewUpdate().
				Model((*models.FAQ)(nil)).
				Set("sort_order = ?", pos).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", f.ID).
				Exec(ctx)
			updateErr = errors.WithStack(err)
		})
		return updateErr
	})
}

func renumberFAQs(ctx context.Context, tx bun.Tx) error {
	faqs := []*models.FAQ{}
	err := tx.NewSelect().
		Model(&faqs).
		Column("f.id").
		Order("sort_order ASC").
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	var updateErr error
	ordering.Renumber(faqs, func(f *models.FAQ, pos int) {
		if updateErr != nil {
			return
		}
		_, err := tx.NewUpdate().
			Model((*models.FAQ)(nil)).
			Set("sort_order = ?", pos).
			Where("id = ?", f.ID).
			Exec(ctx)
		updateErr = errors.WithStack(err)
	})
	return updateErr
}
