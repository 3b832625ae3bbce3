package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tempus-hr/tempus/internal/app"
	"github.com/tempus-hr/tempus/internal/employees"
	jobmetrics "github.com/tempus-hr/tempus/internal/jobs"
	"github.com/tempus-hr/tempus/internal/platform/db"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/timeentries"
	"github.com/tempus-hr/tempus/internal/vacations"
	"github.com/tempus-hr/tempus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	employeeRepo := employees.NewRepository(pool)
	employeeService := employees.NewService(employeeRepo)

	vacationRepo := vacations.NewRepository(pool)
	vacationService := vacations.NewService(vacationRepo, employeeService, rbac.DefaultPolicy, nil)

	entryRepo := timeentries.NewRepository(pool)

	mailer := &jobs.SMTPMailer{
		Addr:   net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		From:   cfg.SMTPFrom,
		Logger: logger,
	}

	emailJob := &jobs.SendEmailJob{Mailer: mailer, Logger: logger}
	sweepJob := jobs.NewVacationSweepJob(vacationService, employeeService, client, logger, metrics)
	resetJob := jobs.NewBalanceResetJob(pool, logger, metrics)
	reminderJob := jobs.NewTimesheetReminderJob(entryRepo, employeeService, client, logger, metrics)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: emailJob.Handle},
			{Type: jobs.TaskTypeVacationSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskTypeBalanceReset, Handler: resetJob.Handle},
			{Type: jobs.TaskTypeTimesheetReminder, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewVacationSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 0 1 1 *", Task: jobs.NewBalanceResetTask(), Options: []asynq.Option{asynq.MaxRetry(5)}},
			{Spec: "0 8 * * 1", Task: jobs.NewTimesheetReminderTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
