package vacations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tempus-hr/tempus/internal/employees"
	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
)

// Module is the approval ledger module name for vacation requests.
const Module = "vacations"

// RepositoryPort defines data access methods for vacation requests.
type RepositoryPort interface {
	Create(ctx context.Context, v VacationRequest) (int64, error)
	Update(ctx context.Context, v VacationRequest) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (VacationRequest, error)
	Approve(ctx context.Context, id int64, approverID int64, at time.Time, skip bool, label string) (VacationRequest, error)
	Reject(ctx context.Context, id int64, approverID int64, at time.Time, reason string) (bool, error)
	Cancel(ctx context.Context, id int64) (bool, error)
	ListBlocking(ctx context.Context, employeeID int64) ([]VacationRequest, error)
	ListForEmployee(ctx context.Context, employeeID int64) ([]VacationRequest, error)
	ListPending(ctx context.Context) ([]VacationRequest, error)
	ListSkipped(ctx context.Context) ([]VacationRequest, error)
	ListStalePending(ctx context.Context, today time.Time) ([]VacationRequest, error)
	ListOverlappingRange(ctx context.Context, from, to time.Time) ([]VacationRequest, error)
	EmployeesOnDate(ctx context.Context, day time.Time) ([]int64, error)
	UsedDaysInYear(ctx context.Context, employeeID int64, year int) (int, error)
	PendingDaysInYear(ctx context.Context, employeeID int64, year int) (int, error)
	Upcoming(ctx context.Context, employeeID int64, today time.Time) ([]VacationRequest, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]VacationRequest, int, error)
}

// Directory resolves employee records for allotments and display names.
type Directory interface {
	Get(ctx context.Context, id int64) (employees.Employee, error)
}

// Ledger records workflow actions for later inspection.
type Ledger interface {
	EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Notifier announces decisions to the owning employee. Delivery is best
// effort; failures never roll back the transition.
type Notifier interface {
	VacationDecided(ctx context.Context, req VacationRequest)
}

// Service implements the vacation request workflow.
type Service struct {
	repo     RepositoryPort
	staff    Directory
	policy   rbac.Policy
	ledger   Ledger
	notifier Notifier
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, staff Directory, policy rbac.Policy, ledger Ledger) *Service {
	return &Service{repo: repo, staff: staff, policy: policy, ledger: ledger, now: time.Now}
}

// SetNotifier attaches a decision notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Input describes request fields supplied on create and update.
type Input struct {
	EmployeeID int64
	StartDate  time.Time
	EndDate    time.Time
	Type       VacationType
	Comment    string
}

// Create validates and inserts a PENDING request. The date range must
// not intersect any of the employee's pending or approved requests.
func (s *Service) Create(ctx context.Context, actor shared.Actor, input Input) (VacationRequest, error) {
	if input.EmployeeID == 0 {
		input.EmployeeID = actor.EmployeeID
	}
	if !s.policy(actor, rbac.PermVacationsEdit, input.EmployeeID) {
		return VacationRequest{}, shared.ErrForbidden
	}
	if err := s.validate(ctx, input, 0); err != nil {
		return VacationRequest{}, err
	}
	id, err := s.repo.Create(ctx, VacationRequest{
		EmployeeID: input.EmployeeID,
		StartDate:  shared.Day(input.StartDate),
		EndDate:    shared.Day(input.EndDate),
		Type:       input.Type,
		Status:     StatusPending,
		Comment:    input.Comment,
	})
	if err != nil {
		return VacationRequest{}, err
	}
	if s.ledger != nil {
		_ = s.ledger.EnsureSubmit(ctx, Module, shared.ApprovalRef(Module, id), actor.EmployeeID, "")
	}
	return s.repo.GetByID(ctx, id)
}

// Update rewrites a PENDING request. Decided requests are immutable.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, input Input) (VacationRequest, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return VacationRequest{}, err
	}
	if !s.policy(actor, rbac.PermVacationsEdit, current.EmployeeID) {
		return VacationRequest{}, shared.ErrForbidden
	}
	if current.Decided() {
		return VacationRequest{}, fmt.Errorf("request already %s: %w", current.Status, shared.ErrInvalidState)
	}
	input.EmployeeID = current.EmployeeID
	if err := s.validate(ctx, input, id); err != nil {
		return VacationRequest{}, err
	}
	current.StartDate = shared.Day(input.StartDate)
	current.EndDate = shared.Day(input.EndDate)
	current.Type = input.Type
	current.Comment = input.Comment
	if err := s.repo.Update(ctx, current); err != nil {
		return VacationRequest{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a PENDING request.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy(actor, rbac.PermVacationsEdit, current.EmployeeID) {
		return shared.ErrForbidden
	}
	if current.Decided() {
		return fmt.Errorf("request already %s: %w", current.Status, shared.ErrInvalidState)
	}
	return s.repo.Delete(ctx, id)
}

// Get returns a request visible to the actor.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id int64) (VacationRequest, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return VacationRequest{}, err
	}
	if !s.policy(actor, rbac.PermVacationsView, v.EmployeeID) {
		return VacationRequest{}, shared.ErrForbidden
	}
	return v, nil
}

// Approve transitions PENDING to APPROVED. Balance sufficiency for paid
// types is checked inside the approval transaction against the approved
// ledger, so a concurrent approval cannot overdraw.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id int64) (VacationRequest, error) {
	if !s.policy(actor, rbac.PermVacationsApprove, 0) {
		return VacationRequest{}, shared.ErrForbidden
	}
	approved, err := s.repo.Approve(ctx, id, actor.EmployeeID, s.now(), false, "")
	if err != nil {
		return VacationRequest{}, err
	}
	s.record(ctx, shared.ApprovalApprove, id, actor.EmployeeID, "")
	s.notify(ctx, approved)
	return approved, nil
}

// SkipApproval approves while bypassing normal review. Restricted to
// HR and admin actors; records the skip flag and label.
func (s *Service) SkipApproval(ctx context.Context, actor shared.Actor, id int64, label string) (VacationRequest, error) {
	if !s.policy(actor, rbac.PermVacationsSkip, 0) {
		return VacationRequest{}, shared.ErrForbidden
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultSkipLabel
	}
	approved, err := s.repo.Approve(ctx, id, actor.EmployeeID, s.now(), true, label)
	if err != nil {
		return VacationRequest{}, err
	}
	s.record(ctx, shared.ApprovalSkip, id, actor.EmployeeID, label)
	s.notify(ctx, approved)
	return approved, nil
}

// Reject transitions PENDING to REJECTED with a reason, recording who
// rejected and when.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id int64, reason string) (VacationRequest, error) {
	if !s.policy(actor, rbac.PermVacationsApprove, 0) {
		return VacationRequest{}, shared.ErrForbidden
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return VacationRequest{}, err
	}
	if current.Decided() {
		return VacationRequest{}, fmt.Errorf("request already %s: %w", current.Status, shared.ErrInvalidState)
	}
	ok, err := s.repo.Reject(ctx, id, actor.EmployeeID, s.now(), reason)
	if err != nil {
		return VacationRequest{}, err
	}
	if !ok {
		return VacationRequest{}, fmt.Errorf("request decided concurrently: %w", shared.ErrInvalidState)
	}
	s.record(ctx, shared.ApprovalReject, id, actor.EmployeeID, reason)
	rejected, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return VacationRequest{}, err
	}
	s.notify(ctx, rejected)
	return rejected, nil
}

// Cancel withdraws the owner's own PENDING request.
func (s *Service) Cancel(ctx context.Context, actor shared.Actor, id int64) (VacationRequest, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return VacationRequest{}, err
	}
	if !s.policy(actor, rbac.PermVacationsEdit, current.EmployeeID) {
		return VacationRequest{}, shared.ErrForbidden
	}
	if current.Decided() {
		return VacationRequest{}, fmt.Errorf("request already %s: %w", current.Status, shared.ErrInvalidState)
	}
	ok, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return VacationRequest{}, err
	}
	if !ok {
		return VacationRequest{}, fmt.Errorf("request decided concurrently: %w", shared.ErrInvalidState)
	}
	return s.repo.GetByID(ctx, id)
}

// ListMine returns the actor's own requests.
func (s *Service) ListMine(ctx context.Context, actor shared.Actor) ([]VacationRequest, error) {
	return s.repo.ListForEmployee(ctx, actor.EmployeeID)
}

// ListAll returns requests across employees for reviewers.
func (s *Service) ListAll(ctx context.Context, actor shared.Actor, filters ListFilters, page shared.PageRequest) ([]VacationRequest, shared.Pagination, error) {
	if !s.policy(actor, rbac.PermVacationsApprove, 0) {
		return nil, shared.Pagination{}, shared.ErrForbidden
	}
	p := page.Normalize()
	items, total, err := s.repo.List(ctx, filters, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ListPending returns the review queue.
func (s *Service) ListPending(ctx context.Context, actor shared.Actor) ([]VacationRequest, error) {
	if !s.policy(actor, rbac.PermVacationsApprove, 0) {
		return nil, shared.ErrForbidden
	}
	return s.repo.ListPending(ctx)
}

// ListSkipped returns approvals that bypassed normal review.
func (s *Service) ListSkipped(ctx context.Context, actor shared.Actor) ([]VacationRequest, error) {
	if !s.policy(actor, rbac.PermVacationsApprove, 0) {
		return nil, shared.ErrForbidden
	}
	return s.repo.ListSkipped(ctx)
}

func (s *Service) validate(ctx context.Context, input Input, excludeID int64) error {
	if !input.Type.Valid() {
		return fmt.Errorf("unknown vacation type %q: %w", input.Type, shared.ErrValidation)
	}
	rng := shared.NewDateRange(shared.Day(input.StartDate), shared.Day(input.EndDate))
	if err := validateRange(rng); err != nil {
		return err
	}
	existing, err := s.repo.ListBlocking(ctx, input.EmployeeID)
	if err != nil {
		return err
	}
	if other := findOverlap(rng, existing, excludeID); other != nil {
		return fmt.Errorf("dates overlap existing %s request %s to %s: %w",
			strings.ToLower(string(other.Status)),
			other.StartDate.Format(shared.DateFormat), other.EndDate.Format(shared.DateFormat),
			shared.ErrValidation)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, req VacationRequest) {
	if s.notifier == nil {
		return
	}
	s.notifier.VacationDecided(ctx, req)
}

func (s *Service) record(ctx context.Context, action shared.ApprovalAction, id, actorID int64, note string) {
	if s.ledger == nil {
		return
	}
	_ = s.ledger.Record(ctx, shared.ApprovalLog{
		Module:  Module,
		RefID:   shared.ApprovalRef(Module, id),
		ActorID: actorID,
		Action:  action,
		Note:    note,
	})
}
