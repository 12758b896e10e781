package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusErrored    = "errored"
)

const (
	JobTypePaymentReconcile = "payment_reconcile"
	JobTypeEmailSend        = "email_send"
)

type Job struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID         int         `bun:",pk,autoincrement" json:"id"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Type       string      `bun:",nullzero" json:"type"`
	Status     string      `bun:",nullzero" json:"status"`
	Data       string      `bun:",nullzero" json:"-"`
	DataParsed interface{} `bun:"-" json:"data"`
	Attempts   int         `json:"attempts"`
	ProcessID  *string     `json:"process_id,omitempty"`
}

func (job *Job) UnmarshalData() error {
	switch job.Type {
	case JobTypePaymentReconcile:
		job.DataParsed = &JobPaymentReconcileData{}
	case JobTypeEmailSend:
		job.DataParsed = &JobEmailSendData{}
	}

	err := json.Unmarshal([]byte(job.Data), job.DataParsed)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// JobPaymentReconcileData configures a reconcile sweep. OlderThanMinutes
// bounds which pending payments are considered stale; zero uses the worker
// default.
type JobPaymentReconcileData struct {
	OlderThanMinutes int `json:"older_than_minutes,omitempty"`
}

// JobEmailSendData queues an outbound email rendered from a named template.
type JobEmailSendData struct {
	Template string            `json:"template"`
	To       string            `json:"to"`
	Params   map[string]string `json:"params,omitempty"`
}
