package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tempus-hr/tempus/internal/auth"
	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/observability"
	"github.com/tempus-hr/tempus/internal/projects"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/tasks"
	"github.com/tempus-hr/tempus/internal/timeentries"
	"github.com/tempus-hr/tempus/internal/vacations"
	"github.com/tempus-hr/tempus/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	Staff              auth.Directory
	AuthHandler        *auth.Handler
	EmployeesHandler   *employees.Handler
	ProjectsHandler    *projects.Handler
	TasksHandler       *tasks.Handler
	TimeEntriesHandler *timeentries.Handler
	VacationsHandler   *vacations.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Tempus defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}
	r.Use(chimw.Logger)
	r.Use(auth.ActorMiddleware(params.Logger, params.Staff))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/employees", params.EmployeesHandler.MountRoutes)
	r.Route("/projects", params.ProjectsHandler.MountRoutes)
	r.Route("/tasks", params.TasksHandler.MountRoutes)
	r.Route("/time-entries", params.TimeEntriesHandler.MountRoutes)
	r.Route("/vacations", params.VacationsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
