package employees

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tempus-hr/tempus/internal/platform/httpx"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
)

// Handler manages employee directory endpoints.
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

// MountRoutes registers employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermEmployeesView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(rbac.PermEmployeesEdit))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/deactivate", h.deactivate)
		r.Post("/{id}/activate", h.activate)
	})
}

type employeeRequest struct {
	FirstName           string `json:"firstName" validate:"required,max=100"`
	LastName            string `json:"lastName" validate:"required,max=100"`
	Email               string `json:"email" validate:"required,email,max=255"`
	Subject             string `json:"subject" validate:"omitempty,max=100"`
	Role                string `json:"role" validate:"omitempty,oneof=EMPLOYEE MANAGER HR_MANAGER ADMIN"`
	Department          string `json:"department" validate:"max=100"`
	Position            string `json:"position" validate:"max=100"`
	VacationDaysPerYear int    `json:"vacationDaysPerYear" validate:"gte=0,lte=365"`
}

type employeeResponse struct {
	ID                  int64  `json:"id"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	FullName            string `json:"fullName"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	Status              string `json:"status"`
	Department          string `json:"department,omitempty"`
	Position            string `json:"position,omitempty"`
	HireDate            string `json:"hireDate,omitempty"`
	VacationDaysPerYear int    `json:"vacationDaysPerYear"`
}

func toResponse(e Employee) employeeResponse {
	resp := employeeResponse{
		ID:                  e.ID,
		FirstName:           e.FirstName,
		LastName:            e.LastName,
		FullName:            e.FullName(),
		Email:               e.Email,
		Role:                string(e.Role),
		Status:              string(e.Status),
		Department:          e.Department,
		Position:            e.Position,
		VacationDaysPerYear: e.VacationDaysPerYear,
	}
	if e.HireDate != nil {
		resp.HireDate = e.HireDate.Format(shared.DateFormat)
	}
	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	filters := ListFilters{
		Status:     r.URL.Query().Get("status"),
		Department: r.URL.Query().Get("department"),
		Search:     r.URL.Query().Get("search"),
	}
	items, pagination, err := h.service.List(r.Context(), filters, shared.PageRequest{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]employeeResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "pagination": pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role := shared.Role(req.Role)
	if req.Role == "" {
		role = shared.RoleEmployee
	}
	created, err := h.service.Create(r.Context(), CreateInput{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Subject:             req.Subject,
		Role:                role,
		Department:          req.Department,
		Position:            req.Position,
		VacationDaysPerYear: req.VacationDaysPerYear,
	})
	if err != nil {
		h.logger.Error("create employee", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	updated, err := h.service.Update(r.Context(), id, UpdateInput{
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		Role:                shared.Role(req.Role),
		Department:          req.Department,
		Position:            req.Position,
		VacationDaysPerYear: req.VacationDaysPerYear,
	})
	if err != nil {
		h.logger.Error("update employee", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err := h.service.Activate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
