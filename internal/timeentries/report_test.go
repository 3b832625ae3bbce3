package timeentries

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/tasks"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(shared.DateFormat, s)
	require.NoError(t, err)
	return d
}

func TestSummaryOverZeroEntries(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	summary, err := svc.Summary(context.Background(), actor, 7, nil)
	require.NoError(t, err)
	require.Zero(t, summary.TotalHours)
	require.Zero(t, summary.PresenceHours)
	require.Zero(t, summary.TaskHours)
	require.Zero(t, summary.TotalEntries)
	require.Empty(t, summary.HoursByProject)
	require.Empty(t, summary.HoursByTask)
	require.NotNil(t, summary.HoursByProject, "groupings marshal as objects, not null")
	require.NotNil(t, summary.HoursByTask)
}

func TestSummarySplitsByTypeAndGroups(t *testing.T) {
	repo := newFakeRepo()
	taskID := int64(10)
	gate := &fakeGate{
		open: map[int64]bool{taskID: true},
		refs: map[int64]tasks.Ref{taskID: {TaskID: taskID, TaskName: "Billing migration", ProjectID: 1, ProjectName: "Atlas"}},
	}
	svc := newTestService(repo, gate, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.Create(context.Background(), actor, presenceInput(7, "2024-06-10", 3))
	require.NoError(t, err)
	taskInput := presenceInput(7, "2024-06-10", 5)
	taskInput.Type = TypeTask
	taskInput.TaskID = &taskID
	_, err = svc.Create(context.Background(), actor, taskInput)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), actor, 7, nil)
	require.NoError(t, err)
	require.Equal(t, 8.0, summary.TotalHours)
	require.Equal(t, 3.0, summary.PresenceHours)
	require.Equal(t, 5.0, summary.TaskHours)
	require.Equal(t, 2, summary.TotalEntries)
	require.Equal(t, 5.0, summary.HoursByProject["Atlas"])
	require.Equal(t, 5.0, summary.HoursByTask["Billing migration"])
}

func TestSummaryWindowFiltersEntries(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	for _, date := range []string{"2024-06-01", "2024-06-10", "2024-06-20"} {
		_, err := svc.Create(context.Background(), actor, presenceInput(7, date, 2))
		require.NoError(t, err)
	}

	rng := shared.NewDateRange(day(t, "2024-06-05"), day(t, "2024-06-15"))
	summary, err := svc.Summary(context.Background(), actor, 7, &rng)
	require.NoError(t, err)
	require.Equal(t, 2.0, summary.TotalHours)
	require.Equal(t, 1, summary.TotalEntries)

	unbounded, err := svc.Summary(context.Background(), actor, 7, nil)
	require.NoError(t, err)
	require.Equal(t, 6.0, unbounded.TotalHours)
}

func TestSummaryForOtherEmployeeForbidden(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	actor := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.Summary(context.Background(), actor, 8, nil)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestWeeklyReportFillsAllSevenDays(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{staff: map[int64]employees.Employee{
		7: {ID: 7, FirstName: "Ada", LastName: "Kovacs", Status: employees.StatusActive},
	}}
	svc := newTestService(repo, nil, dir)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	// Monday 2024-06-10 and Wednesday 2024-06-12 only.
	_, err := svc.Create(context.Background(), owner, presenceInput(7, "2024-06-10", 4))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), owner, presenceInput(7, "2024-06-12", 3))
	require.NoError(t, err)

	report, err := svc.WeeklyReport(context.Background(), manager, day(t, "2024-06-10"), 7)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)

	row := report.Rows[0]
	require.Equal(t, "Ada Kovacs", row.EmployeeName)
	require.Equal(t, 7.0, row.TotalHours)
	require.Len(t, row.DailyHours, 7)
	require.Equal(t, 4.0, row.DailyHours["2024-06-10"])
	require.Equal(t, 0.0, row.DailyHours["2024-06-11"])
	require.Equal(t, 3.0, row.DailyHours["2024-06-12"])
	require.Equal(t, 0.0, row.DailyHours["2024-06-16"])
}

func TestWeeklyReportRequiresReportPermission(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)
	owner := shared.Actor{EmployeeID: 7, Role: shared.RoleEmployee}

	_, err := svc.WeeklyReport(context.Background(), owner, day(t, "2024-06-10"), 7)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestDailyReportScopesToExactDate(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{staff: map[int64]employees.Employee{
		7: {ID: 7, FirstName: "Ada", LastName: "Kovacs", Status: employees.StatusActive},
		8: {ID: 8, FirstName: "Brendan", LastName: "Oyelaran", Status: employees.StatusActive},
	}}
	svc := newTestService(repo, nil, dir)
	manager := shared.Actor{EmployeeID: 2, Role: shared.RoleManager}

	_, err := svc.Create(context.Background(), manager, presenceInput(7, "2024-06-10", 8))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), manager, presenceInput(7, "2024-06-11", 8))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), manager, presenceInput(8, "2024-06-10", 6))
	require.NoError(t, err)

	report, err := svc.DailyReport(context.Background(), manager, day(t, "2024-06-10"), 0)
	require.NoError(t, err)
	require.Len(t, report.Rows, 2)

	require.Equal(t, int64(7), report.Rows[0].EmployeeID)
	require.Equal(t, 8.0, report.Rows[0].TotalHours)
	require.Len(t, report.Rows[0].Entries, 1)
	require.Equal(t, int64(8), report.Rows[1].EmployeeID)
	require.Equal(t, 6.0, report.Rows[1].TotalHours)
}
