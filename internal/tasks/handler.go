package tasks

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tempus-hr/tempus/internal/platform/httpx"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
)

// Handler manages task endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validate: validator.New()}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermTasksView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermTasksEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Put("/{id}/assignee", h.assign)
		r.Delete("/{id}", h.delete)
	})
}

type taskRequest struct {
	ProjectID          int64    `json:"projectId" validate:"required"`
	Code               string   `json:"code" validate:"required,max=50"`
	Name               string   `json:"name" validate:"required,max=200"`
	Description        string   `json:"description" validate:"max=1000"`
	Status             string   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS COMPLETED CANCELLED ON_HOLD"`
	Priority           string   `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	EstimatedHours     *float64 `json:"estimatedHours" validate:"omitempty,gt=0"`
	DueDate            string   `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	AssignedEmployeeID *int64   `json:"assignedEmployeeId"`
}

type taskResponse struct {
	ID                 int64    `json:"id"`
	ProjectID          int64    `json:"projectId"`
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Description        string   `json:"description,omitempty"`
	Status             string   `json:"status"`
	Priority           string   `json:"priority"`
	EstimatedHours     *float64 `json:"estimatedHours,omitempty"`
	DueDate            string   `json:"dueDate,omitempty"`
	AssignedEmployeeID *int64   `json:"assignedEmployeeId,omitempty"`
}

func toResponse(t Task) taskResponse {
	resp := taskResponse{
		ID:                 t.ID,
		ProjectID:          t.ProjectID,
		Code:               t.Code,
		Name:               t.Name,
		Description:        t.Description,
		Status:             string(t.Status),
		Priority:           string(t.Priority),
		EstimatedHours:     t.EstimatedHours,
		AssignedEmployeeID: t.AssignedEmployeeID,
	}
	if t.DueDate != nil {
		resp.DueDate = t.DueDate.Format(shared.DateFormat)
	}
	return resp
}

func (req taskRequest) toInput() Input {
	input := Input{
		ProjectID:          req.ProjectID,
		Code:               req.Code,
		Name:               req.Name,
		Description:        req.Description,
		Status:             Status(req.Status),
		Priority:           Priority(req.Priority),
		EstimatedHours:     req.EstimatedHours,
		AssignedEmployeeID: req.AssignedEmployeeID,
	}
	if t, err := time.Parse(shared.DateFormat, req.DueDate); err == nil && req.DueDate != "" {
		input.DueDate = &t
	}
	return input
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("projectId"), 10, 64)
	assignee, _ := strconv.ParseInt(r.URL.Query().Get("assignedEmployeeId"), 10, 64)
	filters := ListFilters{
		ProjectID:          projectID,
		Status:             r.URL.Query().Get("status"),
		Priority:           r.URL.Query().Get("priority"),
		AssignedEmployeeID: assignee,
		Search:             r.URL.Query().Get("search"),
	}
	items, pagination, err := h.service.List(r.Context(), filters, shared.PageRequest{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]taskResponse, 0, len(items))
	for _, t := range items {
		out = append(out, toResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), req.toInput())
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		h.logger.Error("update task", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req struct {
		EmployeeID int64 `json:"employeeId" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Assign(r.Context(), id, req.EmployeeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
