package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tempus-hr/tempus/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	Create(ctx context.Context, p Project) (int64, error)
	Update(ctx context.Context, p Project) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (Project, error)
	GetByCode(ctx context.Context, code string) (Project, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Project, int, error)
}

// Service handles project business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Input describes project fields supplied on create and update.
type Input struct {
	Code        string
	Name        string
	Description string
	Status      Status
	ClientName  string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Create validates and inserts a project, defaulting status to ACTIVE.
func (s *Service) Create(ctx context.Context, input Input) (Project, error) {
	if err := validate(input); err != nil {
		return Project{}, err
	}
	status := input.Status
	if status == "" {
		status = StatusActive
	}
	id, err := s.repo.Create(ctx, Project{
		Code:        strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Status:      status,
		ClientName:  input.ClientName,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	})
	if err != nil {
		return Project{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Update rewrites project fields.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Project, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if err := validate(input); err != nil {
		return Project{}, err
	}
	current.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	current.Name = strings.TrimSpace(input.Name)
	current.Description = input.Description
	if input.Status != "" {
		current.Status = input.Status
	}
	current.ClientName = input.ClientName
	current.StartDate = input.StartDate
	current.EndDate = input.EndDate
	if err := s.repo.Update(ctx, current); err != nil {
		return Project{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a project and, transitively, its tasks.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Get returns a project by id.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns projects matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters, page shared.PageRequest) ([]Project, shared.Pagination, error) {
	p := page.Normalize()
	items, total, err := s.repo.List(ctx, filters, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

func validate(input Input) error {
	if strings.TrimSpace(input.Code) == "" {
		return fmt.Errorf("project code required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("project name required: %w", shared.ErrValidation)
	}
	if input.Status != "" {
		switch input.Status {
		case StatusActive, StatusCompleted, StatusOnHold, StatusCancelled:
		default:
			return fmt.Errorf("unknown project status %q: %w", input.Status, shared.ErrValidation)
		}
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return fmt.Errorf("project end date precedes start date: %w", shared.ErrValidation)
	}
	return nil
}
