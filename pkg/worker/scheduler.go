package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/robinjoseph08/golib/logger"
	"github.com/tutorahq/tutora/pkg/config"
	"github.com/tutorahq/tutora/pkg/jobs"
	"github.com/tutorahq/tutora/pkg/models"
	"github.com/uptrace/bun"
)

// Scheduler enqueues the nightly payment reconcile sweep. The worker picks
// the job up like any other.
type Scheduler struct {
	cron       *cron.Cron
	log        logger.Logger
	jobService *jobs.Service
	schedule   string
}

func NewScheduler(cfg *config.Config, db *bun.DB) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		log:        logger.New(),
		jobService: jobs.NewService(db),
		schedule:   cfg.PaymentReconcileSchedule,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.EnqueueReconcile); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// EnqueueReconcile creates a payment_reconcile job unless one is already
// pending or running.
func (s *Scheduler) EnqueueReconcile() {
	ctx := context.Background()

	hasActive, err := s.jobService.HasActiveJobByType(ctx, models.JobTypePaymentReconcile)
	if err != nil {
		s.log.Err(err).Error("check active reconcile job error")
		return
	}
	if hasActive {
		s.log.Info("reconcile job already active, skipping")
		return
	}

	job := &models.Job{
		Type:       models.JobTypePaymentReconcile,
		Status:     models.JobStatusPending,
		DataParsed: &models.JobPaymentReconcileData{},
	}
	if err := s.jobService.CreateJob(ctx, job); err != nil {
		s.log.Err(err).Error("create reconcile job error")
		return
	}

	s.log.Info("reconcile job enqueued", logger.Data{"job_id": job.ID})
}
