package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tempus-hr/tempus/internal/app"
	"github.com/tempus-hr/tempus/internal/auth"
	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/observability"
	"github.com/tempus-hr/tempus/internal/platform/cache"
	"github.com/tempus-hr/tempus/internal/platform/db"
	"github.com/tempus-hr/tempus/internal/projects"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/tasks"
	"github.com/tempus-hr/tempus/internal/timeentries"
	"github.com/tempus-hr/tempus/internal/vacations"
	"github.com/tempus-hr/tempus/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "tempus_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)

	employeeRepo := employees.NewRepository(dbpool)
	employeeService := employees.NewService(employeeRepo)
	employeeService.SetAuditor(shared.NewAuditLogger(dbpool))

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, employeeService)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	projectRepo := projects.NewRepository(dbpool)
	projectService := projects.NewService(projectRepo)

	taskRepo := tasks.NewRepository(dbpool)
	taskService := tasks.NewService(taskRepo, projectService)

	entryRepo := timeentries.NewRepository(dbpool)
	entryService := timeentries.NewService(entryRepo, taskService, employeeService, rbac.DefaultPolicy, approvalRecorder)

	vacationRepo := vacations.NewRepository(dbpool)
	vacationService := vacations.NewService(vacationRepo, employeeService, rbac.DefaultPolicy, approvalRecorder)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	notifier := jobs.NewDecisionNotifier(jobClient, employeeService, logger)
	entryService.SetNotifier(notifier)
	vacationService.SetNotifier(notifier)

	rbacMiddleware := rbac.Middleware{Logger: logger}

	employeeHandler := employees.NewHandler(logger, employeeService, rbacMiddleware)
	projectHandler := projects.NewHandler(logger, projectService, rbacMiddleware)
	taskHandler := tasks.NewHandler(logger, taskService, rbacMiddleware)
	entryHandler := timeentries.NewHandler(logger, entryService, rbacMiddleware)
	vacationHandler := vacations.NewHandler(logger, vacationService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Staff:              employeeService,
		AuthHandler:        authHandler,
		EmployeesHandler:   employeeHandler,
		ProjectsHandler:    projectHandler,
		TasksHandler:       taskHandler,
		TimeEntriesHandler: entryHandler,
		VacationsHandler:   vacationHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
