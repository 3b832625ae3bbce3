package timeentries

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/tasks"
)

type fakeRepo struct {
	entries map[int64]TimeEntry
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: map[int64]TimeEntry{}, nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, e TimeEntry) (int64, error) {
	e.ID = f.nextID
	f.nextID++
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	f.entries[e.ID] = e
	return e.ID, nil
}

func (f *fakeRepo) BulkCreate(ctx context.Context, entries []TimeEntry) ([]int64, error) {
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		id, _ := f.Create(ctx, e)
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRepo) Update(_ context.Context, e TimeEntry) error {
	if _, ok := f.entries[e.ID]; !ok {
		return shared.ErrNotFound
	}
	f.entries[e.ID] = e
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.entries[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (TimeEntry, error) {
	e, ok := f.entries[id]
	if !ok {
		return TimeEntry{}, shared.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepo) TransitionStatus(_ context.Context, id int64, to Status, approverID int64, at time.Time) (bool, error) {
	e, ok := f.entries[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if e.Status != StatusPending {
		return false, nil
	}
	e.Status = to
	e.ApprovedBy = &approverID
	e.ApprovedAt = &at
	f.entries[id] = e
	return true, nil
}

func (f *fakeRepo) ListForEmployee(ctx context.Context, employeeID int64, filters ListFilters) ([]TimeEntry, error) {
	filters.EmployeeID = employeeID
	out, _, err := f.List(ctx, filters, 0, 0)
	return out, err
}

func (f *fakeRepo) ListBetween(ctx context.Context, from, to time.Time, employeeID int64) ([]TimeEntry, error) {
	out, _, err := f.List(ctx, ListFilters{EmployeeID: employeeID, From: from, To: to}, 0, 0)
	return out, err
}

func (f *fakeRepo) List(_ context.Context, filters ListFilters, _, _ int) ([]TimeEntry, int, error) {
	var out []TimeEntry
	for _, e := range f.entries {
		if filters.EmployeeID != 0 && e.EmployeeID != filters.EmployeeID {
			continue
		}
		if filters.Status != "" && string(e.Status) != filters.Status {
			continue
		}
		if filters.Type != "" && string(e.Type) != filters.Type {
			continue
		}
		if !filters.From.IsZero() && e.EntryDate.Before(filters.From) {
			continue
		}
		if !filters.To.IsZero() && e.EntryDate.After(filters.To) {
			continue
		}
		out = append(out, e)
	}
	return out, len(out), nil
}

type fakeGate struct {
	open map[int64]bool
	refs map[int64]tasks.Ref
}

func (f *fakeGate) AcceptsTimeEntries(_ context.Context, id int64) (bool, error) {
	return f.open[id], nil
}

func (f *fakeGate) Refs(_ context.Context, ids []int64) (map[int64]tasks.Ref, error) {
	out := map[int64]tasks.Ref{}
	for _, id := range ids {
		if ref, ok := f.refs[id]; ok {
			out[id] = ref
		}
	}
	return out, nil
}

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

func (f *fakeDirectory) ListActive(_ context.Context) ([]employees.Employee, error) {
	var out []employees.Employee
	for _, emp := range f.staff {
		out = append(out, emp)
	}
	return out, nil
}

func newTestService(repo *fakeRepo, gate *fakeGate, dir *fakeDirectory) *Service {
	if gate == nil {
		gate = &fakeGate{open: map[int64]bool{}, refs: map[int64]tasks.Ref{}}
	}
	if dir == nil {
		dir = &fakeDirectory{staff: map[int64]employees.Employee{}}
	}
	return NewService(repo, gate, dir, rbac.DefaultPolicy, nil)
}

func presenceInput(employeeID int64, date string, hours float64) Input {
	day, _ := time.Parse(shared.DateFormat, date)
	return Input{EmployeeID: employeeID, Type: TypePresence, EntryDate: day, Hours: hours}
}

func TestCreatePresenceEntry(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	entry, err := svc.Create(context.Background(), actor, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)
	require.Equal(t, StatusPending, entry.Status)
	require.Equal(t, int64(7), entry.EmployeeID)
	require.Nil(t, entry.TaskID)
}

func TestCreateRejectsNonPositiveHours(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	for _, hours := range []float64{0, -1} {
		_, err := svc.Create(context.Background(), actor, presenceInput(7, "2024-06-10", hours))
		require.ErrorIs(t, err, shared.ErrValidation)
	}
}

func TestCreateTaskEntryRequiresOpenTask(t *testing.T) {
	gate := &fakeGate{open: map[int64]bool{10: true, 11: false}}
	svc := newTestService(newFakeRepo(), gate, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	openID := int64(10)
	input := presenceInput(7, "2024-06-10", 4)
	input.Type = TypeTask
	input.TaskID = &openID
	entry, err := svc.Create(context.Background(), actor, input)
	require.NoError(t, err)
	require.Equal(t, openID, *entry.TaskID)

	closedID := int64(11)
	input.TaskID = &closedID
	_, err = svc.Create(context.Background(), actor, input)
	require.ErrorIs(t, err, shared.ErrValidation)

	input.TaskID = nil
	_, err = svc.Create(context.Background(), actor, input)
	require.ErrorIs(t, err, shared.ErrValidation, "TASK entries need a task reference")
}

func TestCreateForOtherEmployeeForbidden(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.Create(context.Background(), actor, presenceInput(8, "2024-06-10", 8))
	require.ErrorIs(t, err, shared.ErrForbidden)

	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}
	_, err = svc.Create(context.Background(), manager, presenceInput(8, "2024-06-10", 8))
	require.NoError(t, err)
}

func TestApproveIsNotIdempotent(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	entry, err := svc.Create(context.Background(), owner, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), manager, entry.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, manager.EmployeeID, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	_, err = svc.Approve(context.Background(), manager, entry.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Reject(context.Background(), manager, entry.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestApproveRequiresElevatedRole(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	entry, err := svc.Create(context.Background(), owner, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), owner, entry.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRejectRecordsApprover(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	entry, err := svc.Create(context.Background(), owner, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), manager, entry.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, manager.EmployeeID, *rejected.ApprovedBy)
}

func TestDecidedEntriesAreImmutable(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	entry, err := svc.Create(context.Background(), owner, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), manager, entry.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), owner, entry.ID, presenceInput(7, "2024-06-10", 6))
	require.ErrorIs(t, err, shared.ErrInvalidState)

	err = svc.Delete(context.Background(), owner, entry.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestUpdateOwnershipEnforced(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	other := shared.Actor{EmployeeID: 8, Role: shared.RoleEmployee}

	entry, err := svc.Create(context.Background(), owner, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), other, entry.ID, presenceInput(7, "2024-06-10", 6))
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Delete(context.Background(), other, entry.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	updated, err := svc.Update(context.Background(), owner, entry.ID, presenceInput(7, "2024-06-10", 6))
	require.NoError(t, err)
	require.Equal(t, 6.0, updated.Hours)
}

func TestBulkCreateAllOrNothing(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.BulkCreate(context.Background(), actor, []Input{
		presenceInput(7, "2024-06-10", 8),
		presenceInput(7, "2024-06-11", -1),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, repo.entries, "invalid batch writes nothing")

	created, err := svc.BulkCreate(context.Background(), actor, []Input{
		presenceInput(7, "2024-06-10", 8),
		presenceInput(7, "2024-06-11", 7.5),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
}
