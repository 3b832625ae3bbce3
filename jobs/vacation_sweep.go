package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tempus-hr/tempus/internal/employees"
	jobmetrics "github.com/tempus-hr/tempus/internal/jobs"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/vacations"
)

// StaleRequestSource lists pending requests whose start date passed.
type StaleRequestSource interface {
	StalePending(ctx context.Context, today time.Time) ([]vacations.VacationRequest, error)
}

// EmployeeSource resolves employee records for notifications.
type EmployeeSource interface {
	Get(ctx context.Context, id int64) (employees.Employee, error)
	ListActive(ctx context.Context) ([]employees.Employee, error)
}

// VacationSweepJob flags pending vacation requests that are already in
// the past and notifies their owners. Runs nightly.
type VacationSweepJob struct {
	Requests StaleRequestSource
	Staff    EmployeeSource
	Client   *Client
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewVacationSweepJob initialises the sweep handler.
func NewVacationSweepJob(requests StaleRequestSource, staff EmployeeSource, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *VacationSweepJob {
	return &VacationSweepJob{
		Requests: requests,
		Staff:    staff,
		Client:   client,
		Logger:   logger,
		Metrics:  metrics,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes one sweep.
func (j *VacationSweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil {
		return errors.New("vacation sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeVacationSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	stale, err := j.Requests.StalePending(ctx, j.clock())
	if err != nil {
		resultErr = err
		j.Logger.Error("list stale requests", slog.Any("error", err))
		return resultErr
	}
	j.Metrics.SetStaleRequests(len(stale))
	if len(stale) == 0 {
		return nil
	}
	j.Logger.Warn("pending vacation requests past their start date", slog.Int("count", len(stale)))

	for _, req := range stale {
		emp, err := j.Staff.Get(ctx, req.EmployeeID)
		if err != nil {
			j.Logger.Warn("resolve stale request owner", slog.Any("error", err), slog.Int64("request_id", req.ID))
			continue
		}
		body := fmt.Sprintf("Your %s request for %s to %s is still pending although the start date has passed. Please follow up with your manager.",
			req.Type.Label(),
			req.StartDate.Format(shared.DateFormat),
			req.EndDate.Format(shared.DateFormat))
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      emp.Email,
			Subject: "Vacation request still pending",
			Body:    body,
		}); err != nil {
			j.Logger.Warn("enqueue stale notice", slog.Any("error", err), slog.Int64("request_id", req.ID))
		}
	}
	return nil
}
