package payments

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/errcodes"
	"github.com/tutorahq/tutora/pkg/models"
)

const idempotencyKeyHeader = "Idempotency-Key"
const webhookSecretHeader = "X-Webhook-Secret"

type handler struct {
	config         *config.Config
	paymentService *Service
}

func (h *handler) createCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateCheckoutPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	// A client retrying a dropped response sends the same key and gets the
	// original payment back.
	idempotencyKey := c.Request().Header.Get(idempotencyKeyHeader)
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	opts := CreateCheckoutOptions{
		UserID:         userID,
		CourseID:       params.CourseID,
		IdempotencyKey: idempotencyKey,
		SuccessURL:     h.config.FrontendURL + "/payments/success",
		CancelURL:      h.config.FrontendURL + "/payments/cancelled",
	}
	if params.SuccessURL != nil {
		opts.SuccessURL = *params.SuccessURL
	}
	if params.CancelURL != nil {
		opts.CancelURL = *params.CancelURL
	}

	payment, err := h.paymentService.CreateCheckout(ctx, opts)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusCreated, payment))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListPaymentsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	payments, total, err := h.paymentService.ListPaymentsWithTotal(ctx, ListPaymentsOptions{
		UserID: userID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}

	resp := struct {
		Payments []*models.Payment `json:"payments"`
		Total    int               `json:"total"`
	}{payments, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return err
	}

	payment, err := h.paymentService.RetrievePayment(ctx, userID, c.Param("id"))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, payment))
}

// webhook receives provider notifications. It is authenticated by a shared
// secret header instead of a user session.
func (h *handler) webhook(c echo.Context) error {
	ctx := c.Request().Context()

	secret := c.Request().Header.Get(webhookSecretHeader)
	if h.config.PaymentWebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.config.PaymentWebhookSecret)) != 1 {
		return errcodes.Unauthorized("Invalid webhook secret.")
	}

	params := WebhookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	payment, err := h.paymentService.HandleWebhookEvent(ctx, WebhookEvent{
		SessionID:     params.SessionID,
		Status:        params.Status,
		FailureReason: params.FailureReason,
	})
	if err != nil {
		return err
	}

	resp := struct {
		Received bool   `json:"received"`
		Status   string `json:"status"`
	}{true, payment.Status}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
