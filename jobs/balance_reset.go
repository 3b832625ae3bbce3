package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/tempus-hr/tempus/internal/jobs"
)

// BalanceResetJob restores every active employee's running vacation
// balance to their yearly allotment. Scheduled for January 1st.
type BalanceResetJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewBalanceResetJob initialises the reset handler.
func NewBalanceResetJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *BalanceResetJob {
	return &BalanceResetJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the reset.
func (j *BalanceResetJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil {
		return errors.New("balance reset: handler not configured")
	}
	tracker := j.Metrics.Track(TaskTypeBalanceReset)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	tag, err := j.Pool.Exec(ctx, `UPDATE employees SET remaining_vacation_days = vacation_days_per_year, updated_at = NOW() WHERE status = 'ACTIVE'`)
	if err != nil {
		resultErr = err
		j.Logger.Error("reset vacation balances", slog.Any("error", err))
		return resultErr
	}
	j.Logger.Info("vacation balances reset", slog.Int64("employees", tag.RowsAffected()))
	return nil
}
