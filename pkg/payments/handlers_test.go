package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorahq/tutora/pkg/binder"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

func newWebhookContext(t *testing.T, payload, secret string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(webhookSecretHeader, secret)
	}
	rr := httptest.NewRecorder()
	return e.NewContext(req, rr), rr
}

func TestWebhook_RejectsBadSecret(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, &fakeProvider{})
	h := &handler{
		config:         &config.Config{PaymentWebhookSecret: "s3cret"},
		paymentService: svc,
	}

	payload := `{"session_id":"sess_1","status":"succeeded"}`

	c, _ := newWebhookContext(t, payload, "wrong")
	err := h.webhook(c)
	require.Error(t, err)

	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, http.StatusUnauthorized, codeErr.HTTPCode)

	// Missing header fails the same way.
	c, _ = newWebhookContext(t, payload, "")
	err = h.webhook(c)
	require.Error(t, err)
}

func TestWebhook_RejectsWhenSecretUnconfigured(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, &fakeProvider{})
	h := &handler{
		config:         &config.Config{},
		paymentService: svc,
	}

	c, _ := newWebhookContext(t, `{"session_id":"sess_1","status":"succeeded"}`, "")
	err := h.webhook(c)
	require.Error(t, err)
}

func TestWebhook_AppliesEvent(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db, &fakeProvider{})
	h := &handler{
		config:         &config.Config{PaymentWebhookSecret: "s3cret"},
		paymentService: svc,
	}
	ctx := context.Background()

	f := setupFixture(ctx, t, db, 4999)
	payment, err := svc.CreateCheckout(ctx, CreateCheckoutOptions{
		UserID:         f.user.ID,
		CourseID:       f.course.ID,
		IdempotencyKey: uuid.NewString(),
	})
	require.NoError(t, err)

	payload := `{"session_id":"` + *payment.ProviderSessionID + `","status":"succeeded"}`
	c, rr := newWebhookContext(t, payload, "s3cret")

	require.NoError(t, h.webhook(c))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"received":true`)

	reloaded := &models.Payment{ID: payment.ID}
	err = db.NewSelect().Model(reloaded).WherePK().Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, reloaded.Status)
}
