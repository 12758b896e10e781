package worker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/tutorahq/tutora/pkg/mailer"
	"github.com/tutorahq/tutora/pkg/models"
)

// ProcessEmailSendJob renders a queued email from its template and hands it
// to the configured mailer.
func (w *Worker) ProcessEmailSendJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)

	if err := job.UnmarshalData(); err != nil {
		return err
	}
	data, ok := job.DataParsed.(*models.JobEmailSendData)
	if !ok {
		return errors.New("unexpected job data type")
	}

	msg, err := mailer.Render(data.Template, data.To, data.Params)
	if err != nil {
		return err
	}

	if err := w.mail.Send(ctx, msg); err != nil {
		return err
	}

	log.Info("email sent", logger.Data{"template": data.Template, "to": data.To})
	return nil
}
