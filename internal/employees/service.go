package employees

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tempus-hr/tempus/internal/shared"
)

// RepositoryPort defines data access methods for employees.
type RepositoryPort interface {
	Create(ctx context.Context, e Employee) (int64, error)
	Update(ctx context.Context, e Employee) error
	SetStatus(ctx context.Context, id int64, status Status) error
	GetByID(ctx context.Context, id int64) (Employee, error)
	GetBySubject(ctx context.Context, subject string) (Employee, error)
	GetByEmail(ctx context.Context, email string) (Employee, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Employee, int, error)
	ListActive(ctx context.Context) ([]Employee, error)
}

// Auditor persists directory mutations for compliance review. A nil
// auditor disables the trail without affecting the mutation itself.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles employee directory business logic.
type Service struct {
	repo  RepositoryPort
	audit Auditor
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// SetAuditor attaches the audit trail sink.
func (s *Service) SetAuditor(a Auditor) {
	s.audit = a
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "employee",
		EntityID: strconv.FormatInt(id, 10),
	})
}

// CreateInput describes a new employee record.
type CreateInput struct {
	FirstName           string
	LastName            string
	Email               string
	Subject             string
	Role                shared.Role
	Department          string
	Position            string
	VacationDaysPerYear int
}

// Create validates and inserts an employee.
func (s *Service) Create(ctx context.Context, input CreateInput) (Employee, error) {
	if err := validateCreate(input); err != nil {
		return Employee{}, err
	}
	e := Employee{
		FirstName:           strings.TrimSpace(input.FirstName),
		LastName:            strings.TrimSpace(input.LastName),
		Email:               strings.ToLower(strings.TrimSpace(input.Email)),
		Subject:             strings.TrimSpace(input.Subject),
		Role:                input.Role,
		Status:              StatusActive,
		Department:          input.Department,
		Position:            input.Position,
		VacationDaysPerYear: input.VacationDaysPerYear,
	}
	id, err := s.repo.Create(ctx, e)
	if err != nil {
		return Employee{}, err
	}
	if actor, ok := shared.ActorFromContext(ctx); ok {
		s.recordAudit(ctx, actor.EmployeeID, "employee.create", id)
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateInput carries mutable employee fields.
type UpdateInput struct {
	FirstName           string
	LastName            string
	Email               string
	Role                shared.Role
	Department          string
	Position            string
	VacationDaysPerYear int
}

// Update rewrites employee fields, preserving identity and status.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Employee, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if input.Role != "" && !input.Role.Valid() {
		return Employee{}, fmt.Errorf("unknown role %q: %w", input.Role, shared.ErrValidation)
	}
	if input.VacationDaysPerYear < 0 {
		return Employee{}, fmt.Errorf("vacation allotment must not be negative: %w", shared.ErrValidation)
	}
	current.FirstName = strings.TrimSpace(input.FirstName)
	current.LastName = strings.TrimSpace(input.LastName)
	current.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Role != "" {
		current.Role = input.Role
	}
	current.Department = input.Department
	current.Position = input.Position
	current.VacationDaysPerYear = input.VacationDaysPerYear
	if err := s.repo.Update(ctx, current); err != nil {
		return Employee{}, err
	}
	if actor, ok := shared.ActorFromContext(ctx); ok {
		s.recordAudit(ctx, actor.EmployeeID, "employee.update", id)
	}
	return s.repo.GetByID(ctx, id)
}

// Deactivate marks an employee INACTIVE; their history remains intact.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetStatus(ctx, id, StatusInactive); err != nil {
		return err
	}
	if actor, ok := shared.ActorFromContext(ctx); ok {
		s.recordAudit(ctx, actor.EmployeeID, "employee.deactivate", id)
	}
	return nil
}

// Activate marks an employee ACTIVE again.
func (s *Service) Activate(ctx context.Context, id int64) error {
	if err := s.repo.SetStatus(ctx, id, StatusActive); err != nil {
		return err
	}
	if actor, ok := shared.ActorFromContext(ctx); ok {
		s.recordAudit(ctx, actor.EmployeeID, "employee.activate", id)
	}
	return nil
}

// Get returns an employee by id.
func (s *Service) Get(ctx context.Context, id int64) (Employee, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySubject resolves an employee from the identity-provider subject.
func (s *Service) GetBySubject(ctx context.Context, subject string) (Employee, error) {
	return s.repo.GetBySubject(ctx, subject)
}

// List returns employees matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters, page shared.PageRequest) ([]Employee, shared.Pagination, error) {
	p := page.Normalize()
	items, total, err := s.repo.List(ctx, filters, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ListActive returns every active employee.
func (s *Service) ListActive(ctx context.Context) ([]Employee, error) {
	return s.repo.ListActive(ctx)
}

func validateCreate(input CreateInput) error {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return fmt.Errorf("employee name required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Email) == "" {
		return fmt.Errorf("employee email required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Subject) == "" {
		return fmt.Errorf("identity subject required: %w", shared.ErrValidation)
	}
	if !input.Role.Valid() {
		return fmt.Errorf("unknown role %q: %w", input.Role, shared.ErrValidation)
	}
	if input.VacationDaysPerYear < 0 {
		return fmt.Errorf("vacation allotment must not be negative: %w", shared.ErrValidation)
	}
	return nil
}
