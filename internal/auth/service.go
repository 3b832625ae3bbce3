package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	GetCredentials(ctx context.Context, email string) (Credentials, error)
	SetPassword(ctx context.Context, employeeID int64, hash string) error
	CreateSession(ctx context.Context, id string, employeeID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// Directory resolves employee records after authentication.
type Directory interface {
	Get(ctx context.Context, id int64) (employees.Employee, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	staff Directory
}

// NewService constructs a new Service.
func NewService(repo Repository, staff Directory) *Service {
	return &Service{repo: repo, staff: staff}
}

// Authenticate verifies the password and returns the active employee.
// Unknown emails, wrong passwords and inactive accounts all map to the
// same error so responses do not reveal which accounts exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (employees.Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	creds, err := s.repo.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return employees.Employee{}, shared.ErrInvalidCredentials
		}
		return employees.Employee{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		return employees.Employee{}, shared.ErrInvalidCredentials
	}
	emp, err := s.staff.Get(ctx, creds.EmployeeID)
	if err != nil {
		return employees.Employee{}, err
	}
	if !emp.Active() {
		return employees.Employee{}, shared.ErrInvalidCredentials
	}
	return emp, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, actor shared.Actor, current, next string) error {
	emp, err := s.staff.Get(ctx, actor.EmployeeID)
	if err != nil {
		return err
	}
	if _, err := s.Authenticate(ctx, emp.Email, current); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, actor.EmployeeID, string(hash))
}

// RegisterSession persists the session metadata for auditing.
func (s *Service) RegisterSession(ctx context.Context, id string, employeeID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, employeeID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// ActorFor maps an employee record to a request actor.
func ActorFor(emp employees.Employee) shared.Actor {
	return shared.Actor{
		EmployeeID: emp.ID,
		Subject:    emp.Subject,
		Name:       emp.FullName(),
		Role:       emp.Role,
	}
}
