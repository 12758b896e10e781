package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Session statuses reported by the payment provider. They map 1:1 onto
// payment statuses.
const (
	SessionStatusPending   = "pending"
	SessionStatusSucceeded = "succeeded"
	SessionStatusFailed    = "failed"
	SessionStatusExpired   = "expired"
)

// CreateSessionInput describes a checkout session to open on the provider.
type CreateSessionInput struct {
	PaymentID      string
	AmountCents    int
	Currency       string
	Description    string
	IdempotencyKey string
	SuccessURL     string
	CancelURL      string
}

// Session is the provider's view of a checkout.
type Session struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	CheckoutURL   string  `json:"checkout_url"`
	FailureReason *string `json:"failure_reason,omitempty"`
}

// Provider talks to the external payment service.
type Provider interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}

// ProviderError is returned when the provider responds with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider returned status %d: %s", e.StatusCode, e.Body)
}

type restProvider struct {
	client *resty.Client
}

// NewRESTProvider builds the HTTP provider client. Every request carries the
// API key and is bounded by the configured timeout.
func NewRESTProvider(baseURL, apiKey string, timeout time.Duration) Provider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Accept", "application/json")

	return &restProvider{client: client}
}

func (p *restProvider) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	session := &Session{}
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", input.IdempotencyKey).
		SetBody(map[string]interface{}{
			"reference":    input.PaymentID,
			"amount_cents": input.AmountCents,
			"currency":     input.Currency,
			"description":  input.Description,
			"success_url":  input.SuccessURL,
			"cancel_url":   input.CancelURL,
		}).
		SetResult(session).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if resp.IsError() {
		return nil, errors.WithStack(&ProviderError{StatusCode: resp.StatusCode(), Body: resp.String()})
	}
	return session, nil
}

func (p *restProvider) RetrieveSession(ctx context.Context, sessionID string) (*Session, error) {
	session := &Session{}
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(session).
		SetPathParam("id", sessionID).
		Get("/v1/checkout/sessions/{id}")
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if resp.IsError() {
		return nil, errors.WithStack(&ProviderError{StatusCode: resp.StatusCode(), Body: resp.String()})
	}
	return session, nil
}
