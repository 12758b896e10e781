package payments

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/migrations"
	"github.com/tutorahq/tutora/pkg/models"
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

// fakeProvider records calls and plays back scripted sessions.
type fakeProvider struct {
	createCalls   int
	retrieveCalls int
	createErr     error
	session       *Session
	sessionByID   map[string]*Session
}

func (p *fakeProvider) CreateSession(_ context.Context, input CreateSessionInput) (*Session, error) {
	p.createCalls++
	if p.createErr != nil {
		return nil, p.createErr
	}
	if p.session != nil {
		return p.session, nil
	}
	return &Session{
		ID:          "sess_" + input.PaymentID,
		Status:      SessionStatusPending,
		CheckoutURL: "https://pay.example.com/c/" + input.PaymentID,
	}, nil
}

func (p *fakeProvider) RetrieveSession(_ context.Context, sessionID string) (*Session, error) {
	p.retrieveCalls++
	if s, ok := p.sessionByID[sessionID]; ok {
		return s, nil
	}
	return nil, errors.WithStack(&ProviderError{StatusCode: 404, Body: "no such session"})
}

type fixture struct {
	user   *models.User
	course *models.Course
}

func setupFixture(ctx context.Context, t *testing.T, db *bun.DB, priceCents int) fixture {
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
		PriceCents:     priceCents,
		Currency:       "USD",
		PublishedAt:    &now,
	}
	_, err = db.NewInsert().Model(course).Exec(ctx)
	require.NoError(t, err)

	role := &models.Role{}
	err = db.NewSelect().Model(role).Where("name = ?", "student").Scan(ctx)
	require.NoError(t, err)

	email := "student1@example.com"
	user := &models.User{Username: "student1", Email: &email, PasswordHash: "x", RoleID: role.ID, IsActive: true}
	_, err = db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return fixture{user: user, course: course}
}

func TestCreateCheckout_OpensProviderSession(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	payment, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{
		UserID:         f.user.ID,
		CourseID:       f.course.ID,
		IdempotencyKey: uuid.NewString(),
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPending, payment.Status)
	assert.Equal(t, 4999, payment.AmountCents)
	assert.Equal(t, "USD", payment.Currency)
	require.NotNil(t, payment.CheckoutURL)
	require.NotNil(t, payment.ProviderSessionID)
	assert.Equal(t, 1, provider.createCalls)
}

func TestCreateCheckout_ReplaysIdempotencyKey(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)
	key := uuid.NewString()

	first, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: key})
	require.NoError(t, err)

	second, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: key})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, provider.createCalls, "a replayed key should not open a second session")
}

func TestCreateCheckout_RejectsFreeCourse(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, &fakeProvider{})
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 0)

	_, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "validation_error", codeErr.Code)
}

func TestCreateCheckout_ProviderFailureMarksPaymentFailed(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{createErr: errors.WithStack(&ProviderError{StatusCode: 503, Body: "down"})}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	_, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.Error(t, err)

	payment := &models.Payment{}
	err = db.NewSelect().Model(payment).Where("user_id = ?", f.user.ID).Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, payment.Status)
	require.NotNil(t, payment.FailureReason)
}

func TestHandleWebhookEvent_SuccessEnrollsAndQueuesReceipt(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	payment, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.NoError(t, err)

	updated, err := svc.HandleWebhookEvent(ctx, WebhookEvent{
		SessionID: *payment.ProviderSessionID,
		Status:    SessionStatusSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, updated.Status)

	enrollment := &models.Enrollment{}
	err = db.NewSelect().
		Model(enrollment).
		Where("user_id = ?", f.user.ID).
		Where("course_id = ?", f.course.ID).
		Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.NotNil(t, enrollment.PaymentID)
	assert.Equal(t, payment.ID, *enrollment.PaymentID)

	job := &models.Job{}
	err = db.NewSelect().
		Model(job).
		Where("type = ?", models.JobTypeEmailSend).
		Scan(ctx)
	require.NoError(t, err)
	require.NoError(t, job.UnmarshalData())
	data, ok := job.DataParsed.(*models.JobEmailSendData)
	require.True(t, ok)
	assert.Equal(t, "payment_receipt", data.Template)
	assert.Equal(t, "student1@example.com", data.To)
}

func TestHandleWebhookEvent_DuplicateEventIsIdempotent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	payment, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.NoError(t, err)

	event := WebhookEvent{SessionID: *payment.ProviderSessionID, Status: SessionStatusSucceeded}
	_, err = svc.HandleWebhookEvent(ctx, event)
	require.NoError(t, err)
	_, err = svc.HandleWebhookEvent(ctx, event)
	require.NoError(t, err)

	count, err := db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Where("user_id = ?", f.user.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	jobCount, err := db.NewSelect().
		Model((*models.Job)(nil)).
		Where("type = ?", models.JobTypeEmailSend).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, jobCount, "receipt should only be queued once")
}

func TestHandleWebhookEvent_FailureStoresReason(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	payment, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.NoError(t, err)

	reason := "card_declined"
	updated, err := svc.HandleWebhookEvent(ctx, WebhookEvent{
		SessionID:     *payment.ProviderSessionID,
		Status:        SessionStatusFailed,
		FailureReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, updated.Status)
	require.NotNil(t, updated.FailureReason)
	assert.Equal(t, "card_declined", *updated.FailureReason)

	enrolled, err := db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Where("user_id = ?", f.user.ID).
		Exists(ctx)
	require.NoError(t, err)
	assert.False(t, enrolled)
}

func TestHandleWebhookEvent_UnknownSession(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, &fakeProvider{})
	ctx := context.Background()

	_, err := svc.HandleWebhookEvent(ctx, WebhookEvent{SessionID: "sess_unknown", Status: SessionStatusSucceeded})
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, "not_found", codeErr.Code)
}

func TestReconcilePendingPayments(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{sessionByID: map[string]*Session{}}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	payment, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.NoError(t, err)

	// Make the payment stale.
	_, err = db.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("updated_at = ?", time.Now().Add(-2*time.Hour)).
		Where("id = ?", payment.ID).
		Exec(ctx)
	require.NoError(t, err)

	// Provider says the session succeeded while we heard nothing.
	provider.sessionByID[*payment.ProviderSessionID] = &Session{
		ID:     *payment.ProviderSessionID,
		Status: SessionStatusSucceeded,
	}

	reconciled, err := svc.ReconcilePendingPayments(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reconciled)

	reloaded := &models.Payment{ID: payment.ID}
	err = db.NewSelect().Model(reloaded).WherePK().Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, reloaded.Status)

	enrolled, err := db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Where("user_id = ?", f.user.ID).
		Where("status = ?", models.EnrollmentStatusActive).
		Exists(ctx)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestReconcilePendingPayments_LeavesFreshAndStillPendingAlone(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	provider := &fakeProvider{sessionByID: map[string]*Session{}}
	svc := NewService(db, provider)
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)

	fresh, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{UserID: f.user.ID, CourseID: f.course.ID, IdempotencyKey: uuid.NewString()})
	require.NoError(t, err)

	reconciled, err := svc.ReconcilePendingPayments(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, reconciled)
	assert.Equal(t, 0, provider.retrieveCalls, "fresh payments should not be checked")

	// Stale but still pending on the provider side stays pending here.
	_, err = db.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("updated_at = ?", time.Now().Add(-2*time.Hour)).
		Where("id = ?", fresh.ID).
		Exec(ctx)
	require.NoError(t, err)
	provider.sessionByID[*fresh.ProviderSessionID] = &Session{ID: *fresh.ProviderSessionID, Status: SessionStatusPending}

	reconciled, err = svc.ReconcilePendingPayments(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, reconciled)

	reloaded := &models.Payment{ID: fresh.ID}
	err = db.NewSelect().Model(reloaded).WherePK().Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, reloaded.Status)
}
