package payments

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/tutorahq/tutora/pkg/enrollments"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/jobs"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db                *bun.DB
	provider          Provider
	enrollmentService *enrollments.Service
	jobService        *jobs.Service
}

func NewService(db *bun.DB, provider Provider) *Service {
	return &Service{
		db:                db,
		provider:          provider,
		enrollmentService: enrollments.NewService(db),
		jobService:        jobs.NewService(db),
	}
}

// CreateCheckoutOptions describes a checkout request. IdempotencyKey comes
// from the client so a retried request returns the original payment instead
// of opening a second session.
type CreateCheckoutOptions struct {
	UserID         int
	CourseID       int
	IdempotencyKey string
	SuccessURL     string
	CancelURL      string
}

// CreateCheckout creates a pending payment and opens a checkout session on
// the provider. The returned payment carries the URL to redirect the student
// to.
func (svc *Service) CreateCheckout(ctx context.Context, opts CreateCheckoutOptions) (*models.Payment, error) {
	// Replay: the same idempotency key returns the payment created last time.
	existing := &models.Payment{}
	err := svc.db.NewSelect().
		Model(existing).
		Where("idempotency_key = ?", opts.IdempotencyKey).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.WithStack(err)
	}
	if err == nil {
		if existing.UserID != opts.UserID {
			return nil, errcodes.Conflict("Idempotency key was already used.")
		}
		return existing, nil
	}

	course := &models.Course{}
	err = svc.db.NewSelect().
		Model(course).
		Where("c.id = ?", opts.CourseID).
		Where("c.deleted_at IS NULL").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Course")
		}
		return nil, errors.WithStack(err)
	}
	if course.Status != models.CourseStatusPublished {
		return nil, errcodes.ValidationError("Course is not open for enrollment")
	}
	if course.IsFree() {
		return nil, errcodes.ValidationError("Course is free; enroll directly")
	}

	enrolled, err := svc.db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Where("user_id = ?", opts.UserID).
		Where("course_id = ?", opts.CourseID).
		Where("status = ?", models.EnrollmentStatusActive).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if enrolled {
		return nil, errcodes.Conflict("You are already enrolled in this course.")
	}

	now := time.Now()
	payment := &models.Payment{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
		UserID:         opts.UserID,
		CourseID:       opts.CourseID,
		AmountCents:    course.PriceCents,
		Currency:       course.Currency,
		Status:         models.PaymentStatusPending,
		IdempotencyKey: opts.IdempotencyKey,
	}
	_, err = svc.db.NewInsert().Model(payment).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	session, err := svc.provider.CreateSession(ctx, CreateSessionInput{
		PaymentID:      payment.ID,
		AmountCents:    payment.AmountCents,
		Currency:       payment.Currency,
		Description:    course.Title,
		IdempotencyKey: payment.IdempotencyKey,
		SuccessURL:     opts.SuccessURL,
		CancelURL:      opts.CancelURL,
	})
	if err != nil {
		reason := "Provider session creation failed"
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = &reason
		payment.UpdatedAt = time.Now()
		if _, uerr := svc.db.NewUpdate().
			Model(payment).
			Column("status", "failure_reason", "updated_at").
			WherePK().
			Exec(ctx); uerr != nil {
			logger.FromContext(ctx).Err(uerr).Error("mark payment failed error")
		}
		return nil, err
	}

	payment.ProviderSessionID = &session.ID
	payment.CheckoutURL = &session.CheckoutURL
	payment.UpdatedAt = time.Now()
	_, err = svc.db.NewUpdate().
		Model(payment).
		Column("provider_session_id", "checkout_url", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return payment, nil
}

// RetrievePayment gets a payment by ID, scoped to a user.
func (svc *Service) RetrievePayment(ctx context.Context, userID int, id string) (*models.Payment, error) {
	payment := &models.Payment{}
	err := svc.db.NewSelect().
		Model(payment).
		Relation("Course").
		Where("pay.id = ?", id).
		Where("pay.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Payment")
		}
		return nil, errors.WithStack(err)
	}
	return payment, nil
}

type ListPaymentsOptions struct {
	UserID int
	Limit  int
	Offset int

	includeTotal bool
}

// ListPaymentsWithTotal returns a user's payments, newest first.
func (svc *Service) ListPaymentsWithTotal(ctx context.Context, opts ListPaymentsOptions) ([]*models.Payment, int, error) {
	opts.includeTotal = true
	payments := []*models.Payment{}

	q := svc.db.NewSelect().
		Model(&payments).
		Relation("Course").
		Where("pay.user_id = ?", opts.UserID).
		Order("pay.created_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset)

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return payments, total, nil
}

// WebhookEvent is the provider's notification about a session reaching a
// final state.
type WebhookEvent struct {
	SessionID     string
	Status        string
	FailureReason *string
}

// HandleWebhookEvent applies a provider status to the matching payment.
// Events are idempotent: a payment already in a terminal state is left alone.
// A success creates the enrollment and queues a receipt email.
func (svc *Service) HandleWebhookEvent(ctx context.Context, event WebhookEvent) (*models.Payment, error) {
	payment := &models.Payment{}
	err := svc.db.NewSelect().
		Model(payment).
		Where("provider_session_id = ?", event.SessionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Payment")
		}
		return nil, errors.WithStack(err)
	}

	return svc.applyProviderStatus(ctx, payment, event.Status, event.FailureReason)
}

// ReconcilePendingPayments asks the provider for the current state of stale
// pending payments and applies whatever it reports. Returns how many payments
// changed state.
func (svc *Service) ReconcilePendingPayments(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	payments := []*models.Payment{}
	err := svc.db.NewSelect().
		Model(&payments).
		Where("pay.status = ?", models.PaymentStatusPending).
		Where("pay.provider_session_id IS NOT NULL").
		Where("pay.updated_at < ?", cutoff).
		Order("pay.created_at ASC").
		Scan(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	log := logger.FromContext(ctx)
	reconciled := 0
	for _, payment := range payments {
		session, err := svc.provider.RetrieveSession(ctx, *payment.ProviderSessionID)
		if err != nil {
			log.Err(err).Error("retrieve provider session error")
			continue
		}
		if session.Status == SessionStatusPending {
			continue
		}

		_, err = svc.applyProviderStatus(ctx, payment, session.Status, session.FailureReason)
		if err != nil {
			log.Err(err).Error("apply provider status error")
			continue
		}
		reconciled++
	}

	return reconciled, nil
}

func (svc *Service) applyProviderStatus(ctx context.Context, payment *models.Payment, status string, failureReason *string) (*models.Payment, error) {
	if payment.Status != models.PaymentStatusPending {
		return payment, nil
	}

	switch status {
	case SessionStatusSucceeded:
		payment.Status = models.PaymentStatusSucceeded
	case SessionStatusFailed:
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = failureReason
	case SessionStatusExpired:
		payment.Status = models.PaymentStatusExpired
	default:
		return nil, errcodes.ValidationError("Unknown payment status: " + status)
	}

	payment.UpdatedAt = time.Now()
	_, err := svc.db.NewUpdate().
		Model(payment).
		Column("status", "failure_reason", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if payment.Status == models.PaymentStatusSucceeded {
		if err := svc.finalizeSuccessfulPayment(ctx, payment); err != nil {
			return nil, err
		}
	}

	return payment, nil
}

func (svc *Service) finalizeSuccessfulPayment(ctx context.Context, payment *models.Payment) error {
	_, err := svc.enrollmentService.Enroll(ctx, enrollments.EnrollOptions{
		UserID:    payment.UserID,
		CourseID:  payment.CourseID,
		PaymentID: &payment.ID,
	})
	if err != nil {
		// The student may have re-enrolled through another path already.
		var codeErr *errcodes.Error
		if !errors.As(err, &codeErr) || codeErr.Code != "conflict" {
			return err
		}
	}

	user := &models.User{}
	err = svc.db.NewSelect().
		Model(user).
		Where("u.id = ?", payment.UserID).
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if user.Email == nil {
		return nil
	}

	course := &models.Course{}
	err = svc.db.NewSelect().
		Model(course).
		Where("c.id = ?", payment.CourseID).
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return svc.jobService.EnqueueEmail(ctx, &models.JobEmailSendData{
		Template: "payment_receipt",
		To:       *user.Email,
		Params: map[string]string{
			"course_title": course.Title,
			"amount_cents": strconv.Itoa(payment.AmountCents),
			"currency":     payment.Currency,
			"payment_id":   payment.ID,
		},
	})
}
