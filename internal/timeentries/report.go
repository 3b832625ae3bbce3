package timeentries

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/tasks"
)

// Directory resolves employee records for report rows.
type Directory interface {
	Get(ctx context.Context, id int64) (employees.Employee, error)
	ListActive(ctx context.Context) ([]employees.Employee, error)
}

// Summary totals an employee's hours over a window, split by entry type
// and grouped by related project and task names.
type Summary struct {
	EmployeeID     int64              `json:"employeeId"`
	TotalHours     float64            `json:"totalHours"`
	PresenceHours  float64            `json:"presenceHours"`
	TaskHours      float64            `json:"taskHours"`
	TotalEntries   int                `json:"totalEntries"`
	HoursByProject map[string]float64 `json:"hoursByProject"`
	HoursByTask    map[string]float64 `json:"hoursByTask"`
}

// DailyReportRow holds one employee's totals for a single date.
type DailyReportRow struct {
	EmployeeID    int64       `json:"employeeId"`
	EmployeeName  string      `json:"employeeName"`
	TotalHours    float64     `json:"totalHours"`
	PresenceHours float64     `json:"presenceHours"`
	TaskHours     float64     `json:"taskHours"`
	Entries       []TimeEntry `json:"-"`
}

// DailyReport lists per-employee totals for one calendar date.
type DailyReport struct {
	Date time.Time        `json:"-"`
	Rows []DailyReportRow `json:"rows"`
}

// WeeklyReportRow maps each of the seven dates in a week to the hours
// an employee logged that day. Days without entries carry 0.
type WeeklyReportRow struct {
	EmployeeID   int64              `json:"employeeId"`
	EmployeeName string             `json:"employeeName"`
	TotalHours   float64            `json:"totalHours"`
	DailyHours   map[string]float64 `json:"dailyHours"`
}

// WeeklyReport covers the seven days starting at WeekStart.
type WeeklyReport struct {
	WeekStart time.Time         `json:"-"`
	Rows      []WeeklyReportRow `json:"rows"`
}

// Summary aggregates one employee's entries over an optional window.
// Employees may summarize themselves; elevated actors anyone.
func (s *Service) Summary(ctx context.Context, actor shared.Actor, employeeID int64, rng *shared.DateRange) (Summary, error) {
	if employeeID == 0 {
		employeeID = actor.EmployeeID
	}
	if !s.policy(actor, rbac.PermTimeEntriesView, employeeID) {
		return Summary{}, shared.ErrForbidden
	}
	filters := ListFilters{}
	if rng != nil {
		filters.From = rng.Start
		filters.To = rng.End
	}
	entries, err := s.repo.ListForEmployee(ctx, employeeID, filters)
	if err != nil {
		return Summary{}, err
	}
	refs, err := s.taskRefs(ctx, entries)
	if err != nil {
		return Summary{}, err
	}
	return summarize(employeeID, entries, refs), nil
}

// DailyReport builds per-employee totals for one date, optionally
// scoped to a single employee. Entries and the employee directory are
// fetched concurrently.
func (s *Service) DailyReport(ctx context.Context, actor shared.Actor, date time.Time, employeeID int64) (DailyReport, error) {
	if !s.policy(actor, rbac.PermReportsView, 0) {
		return DailyReport{}, shared.ErrForbidden
	}
	day := shared.Day(date)

	var entries []TimeEntry
	var staff []employees.Employee
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.ListBetween(gctx, day, day, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		staff, err = s.reportStaff(gctx, employeeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return DailyReport{}, err
	}
	return buildDailyReport(day, entries, staff), nil
}

// WeeklyReport builds per-employee daily-hour maps for the seven days
// starting at weekStart.
func (s *Service) WeeklyReport(ctx context.Context, actor shared.Actor, weekStart time.Time, employeeID int64) (WeeklyReport, error) {
	if !s.policy(actor, rbac.PermReportsView, 0) {
		return WeeklyReport{}, shared.ErrForbidden
	}
	start := shared.Day(weekStart)
	end := start.AddDate(0, 0, 6)

	var entries []TimeEntry
	var staff []employees.Employee
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.ListBetween(gctx, start, end, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		staff, err = s.reportStaff(gctx, employeeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return WeeklyReport{}, err
	}
	return buildWeeklyReport(start, entries, staff), nil
}

func (s *Service) reportStaff(ctx context.Context, employeeID int64) ([]employees.Employee, error) {
	if employeeID != 0 {
		emp, err := s.staff.Get(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		return []employees.Employee{emp}, nil
	}
	return s.staff.ListActive(ctx)
}

func (s *Service) taskRefs(ctx context.Context, entries []TimeEntry) (map[int64]tasks.Ref, error) {
	seen := map[int64]struct{}{}
	ids := []int64{}
	for _, e := range entries {
		if e.TaskID == nil {
			continue
		}
		if _, ok := seen[*e.TaskID]; ok {
			continue
		}
		seen[*e.TaskID] = struct{}{}
		ids = append(ids, *e.TaskID)
	}
	if len(ids) == 0 {
		return map[int64]tasks.Ref{}, nil
	}
	return s.gate.Refs(ctx, ids)
}

// summarize folds entries into totals. Sums over zero entries stay 0 so
// downstream arithmetic never sees null.
func summarize(employeeID int64, entries []TimeEntry, refs map[int64]tasks.Ref) Summary {
	out := Summary{
		EmployeeID:     employeeID,
		HoursByProject: map[string]float64{},
		HoursByTask:    map[string]float64{},
	}
	for _, e := range entries {
		out.TotalHours += e.Hours
		out.TotalEntries++
		switch e.Type {
		case TypePresence:
			out.PresenceHours += e.Hours
		case TypeTask:
			out.TaskHours += e.Hours
			if e.TaskID != nil {
				if ref, ok := refs[*e.TaskID]; ok {
					out.HoursByProject[ref.ProjectName] += e.Hours
					out.HoursByTask[ref.TaskName] += e.Hours
				}
			}
		}
	}
	return out
}

func buildDailyReport(day time.Time, entries []TimeEntry, staff []employees.Employee) DailyReport {
	byEmployee := map[int64][]TimeEntry{}
	for _, e := range entries {
		if !shared.SameDay(e.EntryDate, day) {
			continue
		}
		byEmployee[e.EmployeeID] = append(byEmployee[e.EmployeeID], e)
	}
	report := DailyReport{Date: day}
	for _, emp := range staff {
		row := DailyReportRow{EmployeeID: emp.ID, EmployeeName: emp.FullName()}
		for _, e := range byEmployee[emp.ID] {
			row.TotalHours += e.Hours
			switch e.Type {
			case TypePresence:
				row.PresenceHours += e.Hours
			case TypeTask:
				row.TaskHours += e.Hours
			}
			row.Entries = append(row.Entries, e)
		}
		report.Rows = append(report.Rows, row)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].EmployeeID < report.Rows[j].EmployeeID })
	return report
}

func buildWeeklyReport(start time.Time, entries []TimeEntry, staff []employees.Employee) WeeklyReport {
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	report := WeeklyReport{WeekStart: start}
	for _, emp := range staff {
		row := WeeklyReportRow{
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName(),
			DailyHours:   make(map[string]float64, 7),
		}
		for _, day := range days {
			row.DailyHours[day.Format(shared.DateFormat)] = 0
		}
		for _, e := range entries {
			if e.EmployeeID != emp.ID {
				continue
			}
			key := shared.Day(e.EntryDate).Format(shared.DateFormat)
			if _, ok := row.DailyHours[key]; !ok {
				continue
			}
			row.DailyHours[key] += e.Hours
			row.TotalHours += e.Hours
		}
		report.Rows = append(report.Rows, row)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].EmployeeID < report.Rows[j].EmployeeID })
	return report
}
