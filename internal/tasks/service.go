package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tempus-hr/tempus/internal/projects"
	"github.com/tempus-hr/tempus/internal/shared"
)

// RepositoryPort defines data access methods for tasks.
type RepositoryPort interface {
	Create(ctx context.Context, t Task) (int64, error)
	Update(ctx context.Context, t Task) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (Task, error)
	AcceptsTimeEntries(ctx context.Context, id int64) (bool, error)
	Refs(ctx context.Context, ids []int64) (map[int64]Ref, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]Task, int, error)
}

// ProjectDirectory resolves the owning project of a task.
type ProjectDirectory interface {
	Get(ctx context.Context, id int64) (projects.Project, error)
}

// Service handles task business logic.
type Service struct {
	repo     RepositoryPort
	projects ProjectDirectory
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, projects ProjectDirectory) *Service {
	return &Service{repo: repo, projects: projects}
}

// Input describes task fields supplied on create and update.
type Input struct {
	ProjectID          int64
	Code               string
	Name               string
	Description        string
	Status             Status
	Priority           Priority
	EstimatedHours     *float64
	DueDate            *time.Time
	AssignedEmployeeID *int64
}

// Create validates and inserts a task under its project.
func (s *Service) Create(ctx context.Context, input Input) (Task, error) {
	if err := validate(input); err != nil {
		return Task{}, err
	}
	if _, err := s.projects.Get(ctx, input.ProjectID); err != nil {
		return Task{}, err
	}
	status := input.Status
	if status == "" {
		status = StatusOpen
	}
	priority := input.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	id, err := s.repo.Create(ctx, Task{
		ProjectID:          input.ProjectID,
		Code:               strings.ToUpper(strings.TrimSpace(input.Code)),
		Name:               strings.TrimSpace(input.Name),
		Description:        input.Description,
		Status:             status,
		Priority:           priority,
		EstimatedHours:     input.EstimatedHours,
		DueDate:            input.DueDate,
		AssignedEmployeeID: input.AssignedEmployeeID,
	})
	if err != nil {
		return Task{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Update rewrites task fields. The owning project never changes.
func (s *Service) Update(ctx context.Context, id int64, input Input) (Task, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	input.ProjectID = current.ProjectID
	if err := validate(input); err != nil {
		return Task{}, err
	}
	current.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	current.Name = strings.TrimSpace(input.Name)
	current.Description = input.Description
	if input.Status != "" {
		current.Status = input.Status
	}
	if input.Priority != "" {
		current.Priority = input.Priority
	}
	current.EstimatedHours = input.EstimatedHours
	current.DueDate = input.DueDate
	current.AssignedEmployeeID = input.AssignedEmployeeID
	if err := s.repo.Update(ctx, current); err != nil {
		return Task{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Assign sets the assigned employee.
func (s *Service) Assign(ctx context.Context, id int64, employeeID int64) (Task, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	current.AssignedEmployeeID = &employeeID
	if err := s.repo.Update(ctx, current); err != nil {
		return Task{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Get returns a task by id.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	return s.repo.GetByID(ctx, id)
}

// AcceptsTimeEntries reports whether new time entries may reference the
// task: the task is OPEN or IN_PROGRESS and its project ACTIVE.
func (s *Service) AcceptsTimeEntries(ctx context.Context, id int64) (bool, error) {
	return s.repo.AcceptsTimeEntries(ctx, id)
}

// Refs resolves display names for grouping hours by task and project.
func (s *Service) Refs(ctx context.Context, ids []int64) (map[int64]Ref, error) {
	return s.repo.Refs(ctx, ids)
}

// List returns tasks matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters, page shared.PageRequest) ([]Task, shared.Pagination, error) {
	p := page.Normalize()
	items, total, err := s.repo.List(ctx, filters, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

func validate(input Input) error {
	if input.ProjectID == 0 {
		return fmt.Errorf("task project required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Code) == "" {
		return fmt.Errorf("task code required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("task name required: %w", shared.ErrValidation)
	}
	if input.Status != "" {
		switch input.Status {
		case StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled, StatusOnHold:
		default:
			return fmt.Errorf("unknown task status %q: %w", input.Status, shared.ErrValidation)
		}
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return fmt.Errorf("unknown task priority %q: %w", input.Priority, shared.ErrValidation)
	}
	if input.EstimatedHours != nil && *input.EstimatedHours <= 0 {
		return fmt.Errorf("estimated hours must be positive: %w", shared.ErrValidation)
	}
	return nil
}
