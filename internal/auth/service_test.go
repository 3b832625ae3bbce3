package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/shared"
)

type fakeRepo struct {
	creds map[string]Credentials
}

func (f *fakeRepo) GetCredentials(_ context.Context, email string) (Credentials, error) {
	c, ok := f.creds[email]
	if !ok {
		return Credentials{}, shared.ErrNotFound
	}
	return c, nil
}

func (f *fakeRepo) SetPassword(_ context.Context, employeeID int64, hash string) error {
	for email, c := range f.creds {
		if c.EmployeeID == employeeID {
			c.PasswordHash = hash
			f.creds[email] = c
		}
	}
	return nil
}

func (f *fakeRepo) CreateSession(context.Context, string, int64, time.Time, string, string) error {
	return nil
}

func (f *fakeRepo) DeleteSession(context.Context, string) error { return nil }

type fakeDirectory struct {
	staff map[int64]employees.Employee
}

func (f *fakeDirectory) Get(_ context.Context, id int64) (employees.Employee, error) {
	emp, ok := f.staff[id]
	if !ok {
		return employees.Employee{}, shared.ErrNotFound
	}
	return emp, nil
}

func newTestService(t *testing.T, password string, status employees.Status) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeRepo{creds: map[string]Credentials{
		"ada@example.com": {EmployeeID: 7, Email: "ada@example.com", PasswordHash: string(hash)},
	}}
	dir := &fakeDirectory{staff: map[int64]employees.Employee{
		7: {ID: 7, FirstName: "Ada", LastName: "Kovacs", Email: "ada@example.com", Role: shared.RoleEmployee, Status: status},
	}}
	return NewService(repo, dir)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc := newTestService(t, "sekrit-pass", employees.StatusActive)

	emp, err := svc.Authenticate(context.Background(), "Ada@Example.com ", "sekrit-pass")
	require.NoError(t, err)
	require.Equal(t, int64(7), emp.ID)

	actor := ActorFor(emp)
	require.Equal(t, "Ada Kovacs", actor.Name)
	require.Equal(t, shared.RoleEmployee, actor.Role)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService(t, "sekrit-pass", employees.StatusActive)

	_, err := svc.Authenticate(context.Background(), "ada@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := newTestService(t, "sekrit-pass", employees.StatusActive)

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "sekrit-pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	svc := newTestService(t, "sekrit-pass", employees.StatusInactive)

	_, err := svc.Authenticate(context.Background(), "ada@example.com", "sekrit-pass")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
