package employees

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tempus-hr/tempus/internal/shared"
)

type fakeRepo struct {
	nextID int64
	items  map[int64]Employee
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, items: make(map[int64]Employee)}
}

func (f *fakeRepo) Create(ctx context.Context, e Employee) (int64, error) {
	for _, existing := range f.items {
		if existing.Email == e.Email || existing.Subject == e.Subject {
			return 0, shared.ErrConflict
		}
	}
	e.ID = f.nextID
	f.nextID++
	f.items[e.ID] = e
	return e.ID, nil
}

func (f *fakeRepo) Update(ctx context.Context, e Employee) error {
	if _, ok := f.items[e.ID]; !ok {
		return shared.ErrNotFound
	}
	f.items[e.ID] = e
	return nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, id int64, status Status) error {
	e, ok := f.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	e.Status = status
	f.items[id] = e
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Employee, error) {
	e, ok := f.items[id]
	if !ok {
		return Employee{}, shared.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepo) GetBySubject(ctx context.Context, subject string) (Employee, error) {
	for _, e := range f.items {
		if e.Subject == subject {
			return e, nil
		}
	}
	return Employee{}, shared.ErrNotFound
}

func (f *fakeRepo) GetByEmail(ctx context.Context, email string) (Employee, error) {
	for _, e := range f.items {
		if e.Email == email {
			return e, nil
		}
	}
	return Employee{}, shared.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Employee, int, error) {
	var out []Employee
	for _, e := range f.items {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListActive(ctx context.Context) ([]Employee, error) {
	var out []Employee
	for _, e := range f.items {
		if e.Active() {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAuditor struct {
	logs []shared.AuditLog
}

func (f *fakeAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func validInput() CreateInput {
	return CreateInput{
		FirstName:           "Ada",
		LastName:            "Kovacs",
		Email:               "Ada.Kovacs@Example.com",
		Subject:             "idp-ada",
		Role:                shared.RoleEmployee,
		Department:          "Engineering",
		Position:            "Engineer",
		VacationDaysPerYear: 25,
	}
}

func TestCreateNormalisesEmail(t *testing.T) {
	svc := NewService(newFakeRepo())

	emp, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "ada.kovacs@example.com", emp.Email)
	require.Equal(t, StatusActive, emp.Status)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc := NewService(newFakeRepo())

	input := validInput()
	input.Role = "SUPERVISOR"
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsNegativeAllotment(t *testing.T) {
	svc := NewService(newFakeRepo())

	input := validInput()
	input.VacationDaysPerYear = -1
	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.Subject = "idp-other"
	_, err = svc.Create(context.Background(), dup)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeactivatePreservesRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	emp, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), emp.ID))
	stored, err := svc.Get(context.Background(), emp.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInactive, stored.Status)
	require.False(t, stored.Active())

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Empty(t, active)
}

func TestMutationsAreAudited(t *testing.T) {
	svc := NewService(newFakeRepo())
	auditor := &fakeAuditor{}
	svc.SetAuditor(auditor)

	actor := shared.Actor{EmployeeID: 99, Role: shared.RoleAdmin}
	ctx := shared.ContextWithActor(context.Background(), actor)

	emp, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, emp.ID))

	require.Len(t, auditor.logs, 2)
	require.Equal(t, "employee.create", auditor.logs[0].Action)
	require.Equal(t, "employee.deactivate", auditor.logs[1].Action)
	require.Equal(t, int64(99), auditor.logs[0].ActorID)
}
