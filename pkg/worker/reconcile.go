package worker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/tutorahq/tutora/pkg/models"
)

const defaultReconcileOlderThan = 30 * time.Minute

// ProcessPaymentReconcileJob sweeps pending payments whose provider session
// was opened but never confirmed via webhook, and settles them against the
// provider's current state.
func (w *Worker) ProcessPaymentReconcileJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)
	log.Info("processing payment reconcile job")

	if err := job.UnmarshalData(); err != nil {
		return err
	}
	data, ok := job.DataParsed.(*models.JobPaymentReconcileData)
	if !ok {
		return errors.New("unexpected job data type")
	}

	olderThan := defaultReconcileOlderThan
	if data.OlderThanMinutes > 0 {
		olderThan = time.Duration(data.OlderThanMinutes) * time.Minute
	}

	reconciled, err := w.paymentService.ReconcilePendingPayments(ctx, olderThan)
	if err != nil {
		return err
	}

	log.Info("payment reconcile finished", logger.Data{"reconciled": reconciled})
	return nil
}
