package mailer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/tutorahq/tutora/pkg/config"
)

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sendgrid mailer when email is enabled, otherwise a console
// mailer that just logs what would have been sent.
func New(cfg *config.Config) Mailer {
	if cfg.EmailEnabled && cfg.SendgridAPIKey != "" {
		return &sendgridMailer{
			client:   sendgrid.NewSendClient(cfg.SendgridAPIKey),
			from:     sgmail.NewEmail(cfg.EmailFromName, cfg.EmailFrom),
			fromName: cfg.EmailFromName,
		}
	}
	return &consoleMailer{log: logger.New()}
}

type sendgridMailer struct {
	client   *sendgrid.Client
	from     *sgmail.Email
	fromName string
}

func (m *sendgridMailer) Send(ctx context.Context, msg Message) error {
	to := sgmail.NewEmail("", msg.To)
	mail := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	resp, err := m.client.SendWithContext(ctx, mail)
	if err != nil {
		return errors.WithStack(err)
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

type consoleMailer struct {
	log logger.Logger
}

func (m *consoleMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info("email suppressed, would have sent", logger.Data{
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.TextBody,
	})
	return nil
}
