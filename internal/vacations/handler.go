package vacations

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

// Handler manages vacation request endpoints.
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

// MountRoutes registers vacation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermVacationsView))
		r.Get("/mine", h.listMine)
		r.Get("/summary", h.summary)
		r.Get("/calendar", h.calendar)
		r.Get("/on-date", h.onDate)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermVacationsEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/cancel", h.cancel)
		r.Delete("/{id}", h.delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermVacationsApprove))
		r.Get("/", h.listAll)
		r.Get("/pending", h.listPending)
		r.Get("/skipped", h.listSkipped)
		r.Post("/{id}/approve", h.approve)
		r.Post("/{id}/reject", h.reject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermVacationsSkip))
		r.Post("/{id}/skip-approval", h.skipApproval)
	})
}

type vacationRequestBody struct {
	EmployeeID int64  `json:"employeeId"`
	StartDate  string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Type       string `json:"type" validate:"required,oneof=ANNUAL_LEAVE SICK_LEAVE PERSONAL_LEAVE MATERNITY_LEAVE PATERNITY_LEAVE UNPAID_LEAVE COMPENSATORY_LEAVE"`
	Comment    string `json:"comment" validate:"max=1000"`
}

type vacationResponse struct {
	ID                int64  `json:"id"`
	EmployeeID        int64  `json:"employeeId"`
	StartDate         string `json:"startDate"`
	EndDate           string `json:"endDate"`
	DaysRequested     int    `json:"daysRequested"`
	Type              string `json:"type"`
	TypeLabel         string `json:"typeLabel"`
	Status            string `json:"status"`
	Comment           string `json:"comment,omitempty"`
	RejectionReason   string `json:"rejectionReason,omitempty"`
	ApprovalSkipped   bool   `json:"approvalSkipped"`
	ApprovalSkipLabel string `json:"approvalSkipLabel,omitempty"`
	ApprovedBy        *int64 `json:"approvedBy,omitempty"`
	ApprovedAt        string `json:"approvedAt,omitempty"`
}

func toResponse(v VacationRequest) vacationResponse {
	resp := vacationResponse{
		ID:                v.ID,
		EmployeeID:        v.EmployeeID,
		StartDate:         v.StartDate.Format(shared.DateFormat),
		EndDate:           v.EndDate.Format(shared.DateFormat),
		DaysRequested:     v.DaysRequested(),
		Type:              string(v.Type),
		TypeLabel:         v.Type.Label(),
		Status:            string(v.Status),
		Comment:           v.Comment,
		RejectionReason:   v.RejectionReason,
		ApprovalSkipped:   v.ApprovalSkipped,
		ApprovalSkipLabel: v.ApprovalSkipLabel,
		ApprovedBy:        v.ApprovedBy,
	}
	if v.ApprovedAt != nil {
		resp.ApprovedAt = v.ApprovedAt.Format(time.RFC3339)
	}
	return resp
}

func (req vacationRequestBody) toInput() Input {
	input := Input{
		EmployeeID: req.EmployeeID,
		Type:       VacationType(req.Type),
		Comment:    req.Comment,
	}
	if t, err := time.Parse(shared.DateFormat, req.StartDate); err == nil {
		input.StartDate = t
	}
	if t, err := time.Parse(shared.DateFormat, req.EndDate); err == nil {
		input.EndDate = t
	}
	return input
}

func toResponses(items []VacationRequest) []vacationResponse {
	out := make([]vacationResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toResponse(v))
	}
	return out
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	var req vacationRequestBody
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
		h.logger.Error("create vacation request", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req vacationRequestBody
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
	v, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	v, err := h.service.Approve(r.Context(), actor, id)
	if err != nil {
		h.logger.Error("approve vacation request", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req struct {
		Reason string `json:"reason" validate:"required,max=1000"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	v, err := h.service.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		h.logger.Error("reject vacation request", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) skipApproval(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req struct {
		Label string `json:"label" validate:"max=200"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	v, err := h.service.SkipApproval(r.Context(), actor, id, req.Label)
	if err != nil {
		h.logger.Error("skip approval", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	v, err := h.service.Cancel(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(v))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	items, err := h.service.ListMine(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": toResponses(items)})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employeeId"), 10, 64)
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	filters := ListFilters{
		EmployeeID: employeeID,
		Status:     r.URL.Query().Get("status"),
		Type:       r.URL.Query().Get("type"),
		Year:       year,
	}
	items, pagination, err := h.service.ListAll(r.Context(), actor, filters, shared.PageRequest{Page: page, PerPage: perPage})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": toResponses(items), "pagination": pagination})
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	items, err := h.service.ListPending(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": toResponses(items)})
}

func (h *Handler) listSkipped(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	items, err := h.service.ListSkipped(r.Context(), actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": toResponses(items)})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employeeId"), 10, 64)
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	summary, err := h.service.Summary(r.Context(), actor, employeeID, year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"employeeId":            summary.EmployeeID,
		"year":                  summary.Year,
		"totalVacationDays":     summary.TotalVacationDays,
		"usedVacationDays":      summary.UsedVacationDays,
		"remainingVacationDays": summary.RemainingVacationDays,
		"pendingVacationDays":   summary.PendingVacationDays,
		"upcomingVacations":     toResponses(summary.Upcoming),
	})
}

func (h *Handler) calendar(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	start, err := time.Parse(shared.DateFormat, r.URL.Query().Get("startDate"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "startDate parameter required as YYYY-MM-DD")
		return
	}
	end, err := time.Parse(shared.DateFormat, r.URL.Query().Get("endDate"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "endDate parameter required as YYYY-MM-DD")
		return
	}
	calendar, err := h.service.Calendar(r.Context(), actor, shared.NewDateRange(start, end))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": calendar})
}

func (h *Handler) onDate(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.ActorFromContext(r.Context())
	day, err := time.Parse(shared.DateFormat, r.URL.Query().Get("date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date parameter required as YYYY-MM-DD")
		return
	}
	ids, err := h.service.OnDate(r.Context(), actor, day)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"employeeIds": ids})
}
