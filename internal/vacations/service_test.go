package vacations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
)

type fakeRepo struct {
	requests map[int64]VacationRequest
	staff    map[int64]employees.Employee
	nextID   int64
}

func newFakeRepo(staff map[int64]employees.Employee) *fakeRepo {
	return &fakeRepo{requests: map[int64]VacationRequest{}, staff: staff, nextID: 1}
}

func (f *fakeRepo) Create(_ context.Context, v VacationRequest) (int64, error) {
	v.ID = f.nextID
	f.nextID++
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	f.requests[v.ID] = v
	return v.ID, nil
}

func (f *fakeRepo) Update(_ context.Context, v VacationRequest) error {
	if _, ok := f.requests[v.ID]; !ok {
		return shared.ErrNotFound
	}
	f.requests[v.ID] = v
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.requests[id]; !ok {
		return shared.ErrNotFound
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (VacationRequest, error) {
	v, ok := f.requests[id]
	if !ok {
		return VacationRequest{}, shared.ErrNotFound
	}
	return v, nil
}

func (f *fakeRepo) Approve(ctx context.Context, id int64, approverID int64, at time.Time, skip bool, label string) (VacationRequest, error) {
	v, ok := f.requests[id]
	if !ok {
		return VacationRequest{}, shared.ErrNotFound
	}
	if v.Status != StatusPending {
		return VacationRequest{}, fmt.Errorf("request already %s: %w", v.Status, shared.ErrInvalidState)
	}
	if v.Type.Paid() {
		emp := f.staff[v.EmployeeID]
		used, _ := f.UsedDaysInYear(ctx, v.EmployeeID, v.StartDate.Year())
		remaining := emp.VacationDaysPerYear - used
		if v.DaysRequested() > remaining {
			return VacationRequest{}, fmt.Errorf("insufficient vacation balance: %w", shared.ErrValidation)
		}
	}
	v.Status = StatusApproved
	v.ApprovedBy = &approverID
	v.ApprovedAt = &at
	v.ApprovalSkipped = skip
	v.ApprovalSkipLabel = label
	v.RejectionReason = ""
	f.requests[id] = v
	return v, nil
}

func (f *fakeRepo) Reject(_ context.Context, id int64, approverID int64, at time.Time, reason string) (bool, error) {
	v, ok := f.requests[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if v.Status != StatusPending {
		return false, nil
	}
	v.Status = StatusRejected
	v.ApprovedBy = &approverID
	v.ApprovedAt = &at
	v.RejectionReason = reason
	v.ApprovalSkipped = false
	v.ApprovalSkipLabel = ""
	f.requests[id] = v
	return true, nil
}

func (f *fakeRepo) Cancel(_ context.Context, id int64) (bool, error) {
	v, ok := f.requests[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if v.Status != StatusPending {
		return false, nil
	}
	v.Status = StatusCancelled
	f.requests[id] = v
	return true, nil
}

func (f *fakeRepo) ListBlocking(_ context.Context, employeeID int64) ([]VacationRequest, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if v.EmployeeID == employeeID && v.Blocks() {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForEmployee(_ context.Context, employeeID int64) ([]VacationRequest, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if v.EmployeeID == employeeID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPending(_ context.Context) ([]VacationRequest, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if v.Status == StatusPending {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListSkipped(_ context.Context) ([]VacationRequest, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if v.Status == StatusApproved && v.ApprovalSkipped {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListStalePending(_ context.Context, today time.Time) ([]VacationRequest, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if v.Status == StatusPending && v.StartDate.Before(today) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListOverlappingRange(_ context.Context, from, to time.Time) ([]VacationRequest, error) {
	rng := shared.NewDateRange(from, to)
	var out []VacationRequest
	for _, v := range f.requests {
		if v.Status == StatusApproved && rng.Overlaps(v.Range()) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) EmployeesOnDate(_ context.Context, day time.Time) ([]int64, error) {
	seen := map[int64]bool{}
	var out []int64
	for _, v := range f.requests {
		if v.Status == StatusApproved && v.Range().Contains(day) && !seen[v.EmployeeID] {
			seen[v.EmployeeID] = true
			out = append(out, v.EmployeeID)
		}
	}
	return out, nil
}

func (f *fakeRepo) UsedDaysInYear(_ context.Context, employeeID int64, year int) (int, error) {
	used := 0
	for _, v := range f.requests {
		if v.EmployeeID == employeeID && v.Status == StatusApproved && v.Type.Paid() && v.StartDate.Year() == year {
			used += v.DaysRequested()
		}
	}
	return used, nil
}

func (f *fakeRepo) PendingDaysInYear(_ context.Context, employeeID int64, year int) (int, error) {
	pending := 0
	for _, v := range f.requests {
		if v.EmployeeID == employeeID && v.Status == StatusPending && v.StartDate.Year() == year {
			pending += v.DaysRequested()
		}
	}
	return pending, nil
}

func (f *fakeRepo) Upcoming(_ context.Context, employeeID int64, today time.Time) ([]VacationRequest, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if v.EmployeeID == employeeID && v.Blocks() && !v.StartDate.Before(today) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, filters ListFilters, _, _ int) ([]VacationRequest, int, error) {
	var out []VacationRequest
	for _, v := range f.requests {
		if filters.EmployeeID != 0 && v.EmployeeID != filters.EmployeeID {
			continue
		}
		if filters.Status != "" && string(v.Status) != filters.Status {
			continue
		}
		out = append(out, v)
	}
	return out, len(out), nil
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

func newTestService(allotment int) (*Service, *fakeRepo) {
	staff := map[int64]employees.Employee{
		7: {ID: 7, FirstName: "Ada", LastName: "Kovacs", VacationDaysPerYear: allotment, Status: employees.StatusActive},
	}
	repo := newFakeRepo(staff)
	return NewService(repo, &fakeDirectory{staff: staff}, rbac.DefaultPolicy, nil), repo
}

func vacationInput(employeeID int64, start, end string, vacType VacationType) Input {
	s, _ := time.Parse(shared.DateFormat, start)
	e, _ := time.Parse(shared.DateFormat, end)
	return Input{EmployeeID: employeeID, StartDate: s, EndDate: e, Type: vacType}
}

func TestDaysRequestedInclusive(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)
	require.Equal(t, 5, req.DaysRequested())
	require.Equal(t, StatusPending, req.Status)
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-14", "2024-06-10", TypeAnnual))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestOverlapBoundaryIsInclusive(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	existing, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-14", "2024-06-20", TypeAnnual))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), manager, existing.ID)
	require.NoError(t, err)

	// Shared boundary day counts as overlapping.
	_, err = svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-13", TypeAnnual))
	require.NoError(t, err)
}

func TestRejectedRequestsDoNotBlock(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	first, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), manager, first.ID, "coverage gap")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)
}

func TestApproveIsNotIdempotent(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), manager, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, manager.EmployeeID, *approved.ApprovedBy)
	require.False(t, approved.ApprovalSkipped)

	_, err = svc.Approve(context.Background(), manager, req.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = svc.Reject(context.Background(), manager, req.ID, "late")
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestRejectRecordsReasonAndApprover(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), manager, req.ID, "project deadline")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "project deadline", rejected.RejectionReason)
	require.Equal(t, manager.EmployeeID, *rejected.ApprovedBy)
}

func TestSkipApprovalRestrictedToElevatedRoles(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}
	admin := shared.Actor{EmployeeID: 4, Role: shared.RoleAdmin}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)

	_, err = svc.SkipApproval(context.Background(), manager, req.ID, "")
	require.ErrorIs(t, err, shared.ErrForbidden)

	skipped, err := svc.SkipApproval(context.Background(), admin, req.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, skipped.Status)
	require.True(t, skipped.ApprovalSkipped)
	require.Equal(t, DefaultSkipLabel, skipped.ApprovalSkipLabel)
}

func TestSkipApprovalKeepsExplicitLabel(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	hr := shared.Actor{EmployeeID: 3, Role: shared.RoleHRManager}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)

	skipped, err := svc.SkipApproval(context.Background(), hr, req.ID, "Emergency leave")
	require.NoError(t, err)
	require.True(t, skipped.ApprovalSkipped)
	require.Equal(t, "Emergency leave", skipped.ApprovalSkipLabel)
}

func TestBalanceEnforcedAtApproval(t *testing.T) {
	svc, _ := newTestService(10)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	first, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), manager, first.ID)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), owner, 7, 2024)
	require.NoError(t, err)
	require.Equal(t, 5, summary.UsedVacationDays)
	require.Equal(t, 5, summary.RemainingVacationDays)

	// Six more days exceed the remaining five. Creation is allowed,
	// approval fails and leaves the balance untouched.
	second, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-07-01", "2024-07-06", TypeAnnual))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), manager, second.ID)
	require.ErrorIs(t, err, shared.ErrValidation)

	summary, err = svc.Summary(context.Background(), owner, 7, 2024)
	require.NoError(t, err)
	require.Equal(t, 5, summary.RemainingVacationDays)
	current, err := svc.Get(context.Background(), owner, second.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, current.Status)
}

func TestUnpaidLeaveDoesNotConsumeBalance(t *testing.T) {
	svc, _ := newTestService(3)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-21", TypeUnpaid))
	require.NoError(t, err)

	// Twelve unpaid days approve fine against a three day allotment.
	_, err = svc.Approve(context.Background(), manager, req.ID)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), owner, 7, 2024)
	require.NoError(t, err)
	require.Equal(t, 0, summary.UsedVacationDays)
	require.Equal(t, 3, summary.RemainingVacationDays)
}

func TestCancelOwnPendingRequest(t *testing.T) {
	svc, _ := newTestService(25)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	other := shared.Actor{EmployeeID: 8, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	req, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), other, req.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	cancelled, err := svc.Cancel(context.Background(), owner, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Approve(context.Background(), manager, req.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	// Cancelled requests free their date range.
	_, err = svc.Create(context.Background(), owner, vacationInput(7, "2024-06-10", "2024-06-14", TypeAnnual))
	require.NoError(t, err)
}

func TestSummaryCountsPendingDays(t *testing.T) {
	svc, _ := newTestService(20)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.Create(context.Background(), owner, vacationInput(7, "2024-08-05", "2024-08-09", TypeAnnual))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), owner, 7, 2024)
	require.NoError(t, err)
	require.Equal(t, 20, summary.TotalVacationDays)
	require.Equal(t, 0, summary.UsedVacationDays)
	require.Equal(t, 20, summary.RemainingVacationDays)
	require.Equal(t, 5, summary.PendingVacationDays)
}

func TestTypeLabels(t *testing.T) {
	require.Equal(t, "Annual Leave", TypeAnnual.Label())
	require.Equal(t, "Unpaid Leave", TypeUnpaid.Label())
	require.Equal(t, "Compensatory Leave", TypeCompensatory.Label())
}
