package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tempus-hr/tempus/internal/jobs"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/timeentries"
)

// EntrySource lists time entries for the reminder window.
type EntrySource interface {
	ListBetween(ctx context.Context, from, to time.Time, employeeID int64) ([]timeentries.TimeEntry, error)
}

// TimesheetReminderJob emails active employees who logged nothing in
// the previous seven days. Runs weekly on Monday mornings.
type TimesheetReminderJob struct {
	Entries EntrySource
	Staff   EmployeeSource
	Client  *Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewTimesheetReminderJob initialises the reminder handler.
func NewTimesheetReminderJob(entries EntrySource, staff EmployeeSource, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *TimesheetReminderJob {
	return &TimesheetReminderJob{
		Entries: entries,
		Staff:   staff,
		Client:  client,
		Logger:  logger,
		Metrics: metrics,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes one reminder pass.
func (j *TimesheetReminderJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil {
		return errors.New("timesheet reminder: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeTimesheetReminder)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	today := shared.Day(j.clock())
	from := today.AddDate(0, 0, -7)
	to := today.AddDate(0, 0, -1)

	logged := map[int64]bool{}
	entries, err := j.Entries.ListBetween(ctx, from, to, 0)
	if err != nil {
		resultErr = err
		j.Logger.Error("list week entries", slog.Any("error", err))
		return resultErr
	}
	for _, e := range entries {
		logged[e.EmployeeID] = true
	}

	staff, err := j.Staff.ListActive(ctx)
	if err != nil {
		resultErr = err
		j.Logger.Error("list active employees", slog.Any("error", err))
		return resultErr
	}

	reminded := 0
	for _, emp := range staff {
		if logged[emp.ID] {
			continue
		}
		body := fmt.Sprintf("Hi %s, you have no time entries for %s to %s. Please log your hours.",
			emp.FirstName, from.Format(shared.DateFormat), to.Format(shared.DateFormat))
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      emp.Email,
			Subject: "Timesheet reminder",
			Body:    body,
		}); err != nil {
			j.Logger.Warn("enqueue reminder", slog.Any("error", err), slog.Int64("employee_id", emp.ID))
			continue
		}
		reminded++
	}
	j.Logger.Info("timesheet reminders queued", slog.Int("count", reminded))
	return nil
}
