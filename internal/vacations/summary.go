package vacations

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
)

// Summary reports an employee's yearly vacation accounting. Used and
// remaining days are derived from the approved-request ledger.
type Summary struct {
	EmployeeID            int64             `json:"employeeId"`
	Year                  int               `json:"year"`
	TotalVacationDays     int               `json:"totalVacationDays"`
	UsedVacationDays      int               `json:"usedVacationDays"`
	RemainingVacationDays int               `json:"remainingVacationDays"`
	PendingVacationDays   int               `json:"pendingVacationDays"`
	Upcoming              []VacationRequest `json:"-"`
}

// CalendarEntry marks one employee absent on the days of a request.
type CalendarEntry struct {
	EmployeeID   int64  `json:"employeeId"`
	EmployeeName string `json:"employeeName"`
	Type         string `json:"type"`
	TypeLabel    string `json:"typeLabel"`
	Skipped      bool   `json:"approvalSkipped"`
}

// Summary computes the yearly accounting for one employee. The three
// ledger sums are fetched concurrently.
func (s *Service) Summary(ctx context.Context, actor shared.Actor, employeeID int64, year int) (Summary, error) {
	if employeeID == 0 {
		employeeID = actor.EmployeeID
	}
	if !s.policy(actor, rbac.PermVacationsView, employeeID) {
		return Summary{}, shared.ErrForbidden
	}
	if year == 0 {
		year = s.now().Year()
	}
	emp, err := s.staff.Get(ctx, employeeID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		EmployeeID:        employeeID,
		Year:              year,
		TotalVacationDays: emp.VacationDaysPerYear,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary.UsedVacationDays, err = s.repo.UsedDaysInYear(gctx, employeeID, year)
		return err
	})
	g.Go(func() error {
		var err error
		summary.PendingVacationDays, err = s.repo.PendingDaysInYear(gctx, employeeID, year)
		return err
	})
	g.Go(func() error {
		var err error
		summary.Upcoming, err = s.repo.Upcoming(gctx, employeeID, shared.Day(s.now()))
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	summary.RemainingVacationDays = summary.TotalVacationDays - summary.UsedVacationDays
	return summary, nil
}

// Calendar maps each day in the range to the employees approved to be
// away that day. Days without absences are present with empty lists.
func (s *Service) Calendar(ctx context.Context, actor shared.Actor, rng shared.DateRange) (map[string][]CalendarEntry, error) {
	if !s.policy(actor, rbac.PermVacationsView, 0) {
		return nil, shared.ErrForbidden
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	requests, err := s.repo.ListOverlappingRange(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}

	names := map[int64]string{}
	calendar := map[string][]CalendarEntry{}
	for day := rng.Start; !day.After(rng.End); day = day.AddDate(0, 0, 1) {
		calendar[day.Format(shared.DateFormat)] = []CalendarEntry{}
	}
	for _, req := range requests {
		name, ok := names[req.EmployeeID]
		if !ok {
			emp, err := s.staff.Get(ctx, req.EmployeeID)
			if err != nil {
				return nil, err
			}
			name = emp.FullName()
			names[req.EmployeeID] = name
		}
		entry := CalendarEntry{
			EmployeeID:   req.EmployeeID,
			EmployeeName: name,
			Type:         string(req.Type),
			TypeLabel:    req.Type.Label(),
			Skipped:      req.ApprovalSkipped,
		}
		for day := req.StartDate; !day.After(req.EndDate); day = day.AddDate(0, 0, 1) {
			key := day.Format(shared.DateFormat)
			if _, inRange := calendar[key]; inRange {
				calendar[key] = append(calendar[key], entry)
			}
		}
	}
	return calendar, nil
}

// OnDate returns employee ids with an approved absence covering the day.
func (s *Service) OnDate(ctx context.Context, actor shared.Actor, day time.Time) ([]int64, error) {
	if !s.policy(actor, rbac.PermVacationsView, 0) {
		return nil, shared.ErrForbidden
	}
	return s.repo.EmployeesOnDate(ctx, shared.Day(day))
}

// StalePending returns PENDING requests whose start date already passed.
func (s *Service) StalePending(ctx context.Context, today time.Time) ([]VacationRequest, error) {
	return s.repo.ListStalePending(ctx, shared.Day(today))
}
