package vacations

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tempus-hr/tempus/internal/shared"
)

// VacationType enumerates leave types.
type VacationType string

const (
	TypeAnnual       VacationType = "ANNUAL_LEAVE"
	TypeSick         VacationType = "SICK_LEAVE"
	TypePersonal     VacationType = "PERSONAL_LEAVE"
	TypeMaternity    VacationType = "MATERNITY_LEAVE"
	TypePaternity    VacationType = "PATERNITY_LEAVE"
	TypeUnpaid       VacationType = "UNPAID_LEAVE"
	TypeCompensatory VacationType = "COMPENSATORY_LEAVE"
)

// Valid reports whether the leave type is known.
func (t VacationType) Valid() bool {
	switch t {
	case TypeAnnual, TypeSick, TypePersonal, TypeMaternity, TypePaternity, TypeUnpaid, TypeCompensatory:
		return true
	}
	return false
}

// Paid reports whether approving this type consumes vacation balance.
// Every type except unpaid leave counts against the allotment.
func (t VacationType) Paid() bool {
	return t != TypeUnpaid
}

var titleCaser = cases.Title(language.English)

// Label renders the type for display, e.g. "Annual Leave".
func (t VacationType) Label() string {
	return titleCaser.String(strings.ToLower(strings.ReplaceAll(string(t), "_", " ")))
}

// Status is a vacation request workflow status.
type Status string

const (
	// StatusPending awaits a decision.
	StatusPending Status = "PENDING"
	// StatusApproved is terminal.
	StatusApproved Status = "APPROVED"
	// StatusRejected is terminal.
	StatusRejected Status = "REJECTED"
	// StatusCancelled is terminal, set by the owner before a decision.
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// DefaultSkipLabel is recorded when approval is bypassed without an
// explicit label.
const DefaultSkipLabel = "Approval Skipped"

// VacationRequest represents one leave request. The requested day count
// is derived from the inclusive date range, never stored.
type VacationRequest struct {
	ID                int64
	EmployeeID        int64
	StartDate         time.Time
	EndDate           time.Time
	Type              VacationType
	Status            Status
	Comment           string
	RejectionReason   string
	ApprovalSkipped   bool
	ApprovalSkipLabel string
	ApprovedBy        *int64
	ApprovedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Range returns the inclusive date range of the request.
func (v VacationRequest) Range() shared.DateRange {
	return shared.NewDateRange(v.StartDate, v.EndDate)
}

// DaysRequested counts days in the inclusive range.
func (v VacationRequest) DaysRequested() int {
	return v.Range().Days()
}

// Decided reports whether the request reached a terminal status.
func (v VacationRequest) Decided() bool {
	return v.Status.Terminal()
}

// Blocks reports whether this request reserves its date range against
// new requests. Rejected and cancelled requests never block.
func (v VacationRequest) Blocks() bool {
	return v.Status == StatusPending || v.Status == StatusApproved
}
