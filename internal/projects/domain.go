package projects

import "time"

// Status is the project lifecycle status.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusOnHold    Status = "ON_HOLD"
	StatusCancelled Status = "CANCELLED"
)

// Project groups tasks under a unique code. Deleting a project cascades to
// its tasks; only ACTIVE projects accept new time entries through their
// tasks.
type Project struct {
	ID          int64
	Code        string
	Name        string
	Description string
	Status      Status
	ClientName  string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Active reports whether tasks of this project may receive time entries.
func (p Project) Active() bool {
	return p.Status == StatusActive
}
