package employees

import (
	"time"

	"github.com/tempus-hr/tempus/internal/shared"
)

// Status is the employment status of an employee.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Employee represents a member of the organisation. Subject is the unique
// identifier issued by the external identity provider; Email is unique as
// well. VacationDaysPerYear is the yearly paid-leave allotment; the number
// of days still available is derived from the approved-request ledger, not
// stored here.
type Employee struct {
	ID                  int64
	FirstName           string
	LastName            string
	Email               string
	Subject             string
	Role                shared.Role
	Status              Status
	Department          string
	Position            string
	HireDate            *time.Time
	VacationDaysPerYear int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FullName returns the display name.
func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Active reports whether the employee may log time and request vacations.
func (e Employee) Active() bool {
	return e.Status == StatusActive
}
