package timeentries

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

// Handler manages time entry endpoints.
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

// MountRoutes registers time entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermTimeEntriesView))
		r.Get("/mine", h.listMine)
		r.Get("/summary", h.summary)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermTimeEntriesEdit))
		r.Post("/", h.create)
		r.Post("/bulk", h.bulkCreate)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermTimeEntriesApprove))
		r.Get("/", h.listAll)
		r.Get("/pending", h.listPending)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermReportsView))
		r.Get("/reports/daily", h.dailyReport)
		r.Get("/reports/weekly", h.weeklyReport)
	})
}

type entryRequest struct {
	EmployeeID  int64   `json:"employeeId"`
	TaskID      *int64  `json:"taskId"`
	Type        string  `json:"type" validate:"required,oneof=PRESENCE TASK"`
	EntryDate   string  `json:"entryDate" validate:"required,datetime=2006-01-02"`
	StartTime   string  `json:"startTime" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndTime     string  `json:"endTime" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Hours       float64 `json:"hours" validate:"required"`
	Description string  `json:"description" validate:"max=1000"`
}

type entryResponse struct {
	ID          int64   `json:"id"`
	EmployeeID  int64   `json:"employeeId"`
	TaskID      *int64  `json:"taskId,omitempty"`
	Type        string  `json:"type"`
	EntryDate   string  `json:"entryDate"`
	StartTime   string  `json:"startTime,omitempty"`
	EndTime     string  `json:"endTime,omitempty"`
	Hours       float64 `json:"hours"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	ApprovedBy  *int64  `json:"approvedBy,omitempty"`
	ApprovedAt  string  `json:"approvedAt,omitempty"`
}

func toResponse(e TimeEntry) entryResponse {
	resp := entryResponse{
		ID:          e.ID,
		EmployeeID:  e.EmployeeID,
		TaskID:      e.TaskID,
		Type:        string(e.Type),
		EntryDate:   e.EntryDate.Format(shared.DateFormat),
		Hours:       e.Hours,
		Description: e.Description,
		Status:      string(e.Status),
		ApprovedBy:  e.ApprovedBy,
	}
	if e.StartTime != nil {
		resp.StartTime = e.StartTime.Format(time.RFC3339)
	}
	if e.EndTime != nil {
		resp.EndTime = e.EndTime.Format(time.RFC3339)
	}
	if e.ApprovedAt != nil {
		resp.ApprovedAt = e.ApprovedAt.Format(time.RFC3339)
	}
	return resp
}

func (req entryRequest) toInput() Input {
	input := Input{
		EmployeeID:  req.EmployeeID,
		TaskID:      req.TaskID,
		Type:        EntryType(req.Type),
		Hours:       req.Hours,
		Description: req.Description,
	}
	if t, err := time.Parse(shared.DateFormat, req.EntryDate); err == nil {
		input.EntryDate = t
	}
	if t, err := time.Parse(time.RFC3339, req.StartTime); err == nil && req.StartTime != "" {
		input.StartTime = &t
	}
	if t, err := time.Parse(time.RFC3339, req.EndTime); err == nil && req.EndTime != "" {
		input.EndTime = &t
	}
	return input
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), actor, req.toInput())
	if err != nil {
		h.logger.Error("create time entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) bulkCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	var reqs []entryRequest
	if err := httpx.DecodeJSON(r, &reqs); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	inputs := make([]Input, 0, len(reqs))
	for _, req := range reqs {
		if err := h.validate.Struct(req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		inputs = append(inputs, req.toInput())
	}
	created, err := h.service.BulkCreate(r.Context(), actor, inputs)
	if err != nil {
		h.logger.Error("bulk create time entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(created))
	for _, e := range created {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"items": out})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), actor, id, req.toInput())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	e, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	e, err := h.service.Approve(r.Context(), actor, id)
	if err != nil {
		h.logger.Error("approve time entry", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	e, err := h.service.Reject(r.Context(), actor, id)
	if err != nil {
		h.logger.Error("reject time entry", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	rng := parseRange(r)
	items, err := h.service.ListMine(r.Context(), actor, rng, EntryType(r.URL.Query().Get("type")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employeeId"), 10, 64)
	taskID, _ := strconv.ParseInt(r.URL.Query().Get("taskId"), 10, 64)
	filters := ListFilters{
		EmployeeID: employeeID,
		TaskID:     taskID,
		Status:     r.URL.Query().Get("status"),
		Type:       r.URL.Query().Get("type"),
	}
	if rng := parseRange(r); rng != nil {
		filters.From = rng.Start
		filters.To = rng.End
	}
	items, pagination, err := h.service.ListAll(r.Context(), actor, filters, shared.PageRequest{Page: page, PerPage: perPage})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "pagination": pagination})
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	items, pagination, err := h.service.ListPending(r.Context(), actor, shared.PageRequest{Page: page, PerPage: perPage})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "pagination": pagination})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employeeId"), 10, 64)
	summary, err := h.service.Summary(r.Context(), actor, employeeID, parseRange(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) dailyReport(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	date, err := time.Parse(shared.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date parameter required as YYYY-MM-DD")
		return
	}
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employeeId"), 10, 64)
	report, err := h.service.DailyReport(r.Context(), actor, date, employeeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows := make([]map[string]any, 0, len(report.Rows))
	for _, row := range report.Rows {
		entries := make([]entryResponse, 0, len(row.Entries))
		for _, e := range row.Entries {
			entries = append(entries, toResponse(e))
		}
		rows = append(rows, map[string]any{
			"employeeId":    row.EmployeeID,
			"employeeName":  row.EmployeeName,
			"totalHours":    row.TotalHours,
			"presenceHours": row.PresenceHours,
			"taskHours":     row.TaskHours,
			"entries":       entries,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"date": report.Date.Format(shared.DateFormat),
		"rows": rows,
	})
}

func (h *Handler) weeklyReport(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	weekStart, err := time.Parse(shared.DateFormat, r.URL.Query().Get("weekStart"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "weekStart parameter required as YYYY-MM-DD")
		return
	}
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employeeId"), 10, 64)
	report, err := h.service.WeeklyReport(r.Context(), actor, weekStart, employeeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"weekStart": report.WeekStart.Format(shared.DateFormat),
		"rows":      report.Rows,
	})
}

func parseRange(r *http.Request) *shared.DateRange {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")
	if startStr == "" || endStr == "" {
		return nil
	}
	start, err := time.Parse(shared.DateFormat, startStr)
	if err != nil {
		return nil
	}
	end, err := time.Parse(shared.DateFormat, endStr)
	if err != nil {
		return nil
	}
	rng := shared.NewDateRange(start, end)
	return &rng
}
