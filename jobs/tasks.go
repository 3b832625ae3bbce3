package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeVacationSweep flags pending requests whose start date passed.
	TaskTypeVacationSweep = "vacations:stale_sweep"
	// TaskTypeBalanceReset restores yearly vacation allotments.
	TaskTypeBalanceReset = "vacations:balance_reset"
	// TaskTypeTimesheetReminder nudges employees without entries last week.
	TaskTypeTimesheetReminder = "timeentries:weekly_reminder"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewVacationSweepTask constructs the nightly stale-pending sweep task.
func NewVacationSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeVacationSweep, nil)
}

// NewBalanceResetTask constructs the yearly balance reset task.
func NewBalanceResetTask() *asynq.Task {
	return asynq.NewTask(TaskTypeBalanceReset, nil)
}

// NewTimesheetReminderTask constructs the weekly reminder task.
func NewTimesheetReminderTask() *asynq.Task {
	return asynq.NewTask(TaskTypeTimesheetReminder, nil)
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
