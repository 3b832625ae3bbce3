package timeentries

import "time"

// EntryType distinguishes plain presence time from task work.
type EntryType string

const (
	// TypePresence records attendance without a task reference.
	TypePresence EntryType = "PRESENCE"
	// TypeTask records hours against a specific task.
	TypeTask EntryType = "TASK"
)

// Valid reports whether the entry type is known.
func (t EntryType) Valid() bool {
	return t == TypePresence || t == TypeTask
}

// Status is a time entry workflow status.
type Status string

const (
	// StatusPending awaits a decision.
	StatusPending Status = "PENDING"
	// StatusApproved is terminal.
	StatusApproved Status = "APPROVED"
	// StatusRejected is terminal.
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// TimeEntry represents one logged block of working time. TaskID is set
// only for TASK entries; decided entries carry approver identity and
// timestamp and must not be mutated further.
type TimeEntry struct {
	ID          int64
	EmployeeID  int64
	TaskID      *int64
	Type        EntryType
	EntryDate   time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	Hours       float64
	Description string
	Status      Status
	ApprovedBy  *int64
	ApprovedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Decided reports whether the entry reached a terminal status.
func (e TimeEntry) Decided() bool {
	return e.Status.Terminal()
}
