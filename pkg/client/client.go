// Package client is a small SDK for the reorder endpoints. It carries the
// session cookie, bounds every call with a timeout, and attaches an
// Idempotency-Key header to each reorder submission so a retried request
// cannot apply a permutation twice.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tutorahq/tutora/pkg/auth"
	"github.com/tutorahq/tutora/pkg/ordering"
)

const defaultTimeout = 10 * time.Second

// APIError is the decoded error envelope returned by the API.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type reorderRequest struct {
	Items []ordering.Position `json:"items"`
}

// Client talks to the Tutora API on behalf of a logged-in user.
type Client struct {
	http *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// WithSessionToken authenticates every request with the given session token.
func WithSessionToken(token string) Option {
	return func(c *Client) {
		c.http.SetCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
}

// New builds a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ReorderChapters submits a full permutation of a course's chapters.
func (c *Client) ReorderChapters(ctx context.Context, courseID int, items []ordering.Position) error {
	return c.reorder(ctx, fmt.Sprintf("/courses/%d/chapters/reorder", courseID), items)
}

// ReorderLessons submits a full permutation of a chapter's lessons.
func (c *Client) ReorderLessons(ctx context.Context, courseID, chapterID int, items []ordering.Position) error {
	return c.reorder(ctx, fmt.Sprintf("/courses/%d/chapters/%d/lessons/reorder", courseID, chapterID), items)
}

// ReorderQuestions submits a full permutation of a quiz's questions.
func (c *Client) ReorderQuestions(ctx context.Context, quizID int, items []ordering.Position) error {
	return c.reorder(ctx, fmt.Sprintf("/quizzes/%d/questions/reorder", quizID), items)
}

// ReorderFAQs submits a full permutation of the organization's FAQ entries.
func (c *Client) ReorderFAQs(ctx context.Context, items []ordering.Position) error {
	return c.reorder(ctx, "/faqs/reorder", items)
}

func (c *Client) reorder(ctx context.Context, path string, items []ordering.Position) error {
	envelope := &errorEnvelope{}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", uuid.NewString()).
		SetBody(reorderRequest{Items: items}).
		SetError(envelope).
		Put(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp.IsError() {
		if envelope.Error.Code != "" {
			return errors.WithStack(&APIError{
				Code:       envelope.Error.Code,
				Message:    envelope.Error.Message,
				StatusCode: resp.StatusCode(),
			})
		}
		return errors.WithStack(&APIError{
			Message:    resp.String(),
			StatusCode: resp.StatusCode(),
		})
	}
	return nil
}
