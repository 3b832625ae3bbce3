package timeentries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tempus-hr/tempus/internal/rbac"
	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/tasks"
)

// Module is the approval ledger module name for time entries.
const Module = "time_entries"

// RepositoryPort defines data access methods for time entries.
type RepositoryPort interface {
	Create(ctx context.Context, e TimeEntry) (int64, error)
	BulkCreate(ctx context.Context, entries []TimeEntry) ([]int64, error)
	Update(ctx context.Context, e TimeEntry) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (TimeEntry, error)
	TransitionStatus(ctx context.Context, id int64, to Status, approverID int64, at time.Time) (bool, error)
	ListForEmployee(ctx context.Context, employeeID int64, filters ListFilters) ([]TimeEntry, error)
	ListBetween(ctx context.Context, from, to time.Time, employeeID int64) ([]TimeEntry, error)
	List(ctx context.Context, filters ListFilters, limit, offset int) ([]TimeEntry, int, error)
}

// TaskGate answers whether a task may receive new entries and resolves
// task display names for hour groupings.
type TaskGate interface {
	AcceptsTimeEntries(ctx context.Context, id int64) (bool, error)
	Refs(ctx context.Context, ids []int64) (map[int64]tasks.Ref, error)
}

// Ledger records workflow actions for later inspection.
type Ledger interface {
	EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Notifier announces decisions to the owning employee. Delivery is best
// effort; failures never roll back the transition.
type Notifier interface {
	TimeEntryDecided(ctx context.Context, e TimeEntry)
}

// Service implements the time entry workflow.
type Service struct {
	repo     RepositoryPort
	gate     TaskGate
	staff    Directory
	policy   rbac.Policy
	ledger   Ledger
	notifier Notifier
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, gate TaskGate, staff Directory, policy rbac.Policy, ledger Ledger) *Service {
	return &Service{repo: repo, gate: gate, staff: staff, policy: policy, ledger: ledger, now: time.Now}
}

// SetNotifier attaches a decision notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Input describes entry fields supplied on create and update.
type Input struct {
	EmployeeID  int64
	TaskID      *int64
	Type        EntryType
	EntryDate   time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	Hours       float64
	Description string
}

// Create validates and inserts a PENDING entry on behalf of the actor.
// Employees log their own time; elevated actors may log for others.
func (s *Service) Create(ctx context.Context, actor shared.Actor, input Input) (TimeEntry, error) {
	if input.EmployeeID == 0 {
		input.EmployeeID = actor.EmployeeID
	}
	if !s.policy(actor, rbac.PermTimeEntriesEdit, input.EmployeeID) {
		return TimeEntry{}, shared.ErrForbidden
	}
	if err := s.validate(ctx, input); err != nil {
		return TimeEntry{}, err
	}
	entry := newPendingEntry(input)
	id, err := s.repo.Create(ctx, entry)
	if err != nil {
		return TimeEntry{}, err
	}
	s.recordSubmit(ctx, id, actor.EmployeeID)
	return s.repo.GetByID(ctx, id)
}

// BulkCreate validates every entry first, then inserts the whole batch.
// A single invalid entry fails the batch before anything is written.
func (s *Service) BulkCreate(ctx context.Context, actor shared.Actor, inputs []Input) ([]TimeEntry, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("empty batch: %w", shared.ErrValidation)
	}
	entries := make([]TimeEntry, 0, len(inputs))
	for i, input := range inputs {
		if input.EmployeeID == 0 {
			input.EmployeeID = actor.EmployeeID
		}
		if !s.policy(actor, rbac.PermTimeEntriesEdit, input.EmployeeID) {
			return nil, shared.ErrForbidden
		}
		if err := s.validate(ctx, input); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		entries = append(entries, newPendingEntry(input))
	}
	ids, err := s.repo.BulkCreate(ctx, entries)
	if err != nil {
		return nil, err
	}
	out := make([]TimeEntry, 0, len(ids))
	for _, id := range ids {
		s.recordSubmit(ctx, id, actor.EmployeeID)
		e, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Update rewrites a PENDING entry. Decided entries are immutable.
func (s *Service) Update(ctx context.Context, actor shared.Actor, id int64, input Input) (TimeEntry, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if !s.policy(actor, rbac.PermTimeEntriesEdit, current.EmployeeID) {
		return TimeEntry{}, shared.ErrForbidden
	}
	if current.Decided() {
		return TimeEntry{}, fmt.Errorf("entry already %s: %w", current.Status, shared.ErrInvalidState)
	}
	input.EmployeeID = current.EmployeeID
	if err := s.validate(ctx, input); err != nil {
		return TimeEntry{}, err
	}
	current.TaskID = input.TaskID
	if input.Type == TypePresence {
		current.TaskID = nil
	}
	current.Type = input.Type
	current.EntryDate = shared.Day(input.EntryDate)
	current.StartTime = input.StartTime
	current.EndTime = input.EndTime
	current.Hours = input.Hours
	current.Description = input.Description
	if err := s.repo.Update(ctx, current); err != nil {
		return TimeEntry{}, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a PENDING entry.
func (s *Service) Delete(ctx context.Context, actor shared.Actor, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy(actor, rbac.PermTimeEntriesEdit, current.EmployeeID) {
		return shared.ErrForbidden
	}
	if current.Decided() {
		return fmt.Errorf("entry already %s: %w", current.Status, shared.ErrInvalidState)
	}
	return s.repo.Delete(ctx, id)
}

// Get returns an entry visible to the actor.
func (s *Service) Get(ctx context.Context, actor shared.Actor, id int64) (TimeEntry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if !s.policy(actor, rbac.PermTimeEntriesView, e.EmployeeID) {
		return TimeEntry{}, shared.ErrForbidden
	}
	return e, nil
}

// Approve transitions PENDING to APPROVED. The conditional update makes
// concurrent decisions race-safe: exactly one wins, the rest fail with
// an invalid state error.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id int64) (TimeEntry, error) {
	return s.decide(ctx, actor, id, StatusApproved, shared.ApprovalApprove)
}

// Reject transitions PENDING to REJECTED and records who rejected.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id int64) (TimeEntry, error) {
	return s.decide(ctx, actor, id, StatusRejected, shared.ApprovalReject)
}

func (s *Service) decide(ctx context.Context, actor shared.Actor, id int64, to Status, action shared.ApprovalAction) (TimeEntry, error) {
	if !s.policy(actor, rbac.PermTimeEntriesApprove, 0) {
		return TimeEntry{}, shared.ErrForbidden
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if current.Decided() {
		return TimeEntry{}, fmt.Errorf("entry already %s: %w", current.Status, shared.ErrInvalidState)
	}
	ok, err := s.repo.TransitionStatus(ctx, id, to, actor.EmployeeID, s.now())
	if err != nil {
		return TimeEntry{}, err
	}
	if !ok {
		return TimeEntry{}, fmt.Errorf("entry decided concurrently: %w", shared.ErrInvalidState)
	}
	if s.ledger != nil {
		_ = s.ledger.Record(ctx, shared.ApprovalLog{
			Module:  Module,
			RefID:   shared.ApprovalRef(Module, id),
			ActorID: actor.EmployeeID,
			Action:  action,
		})
	}
	decided, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TimeEntry{}, err
	}
	if s.notifier != nil {
		s.notifier.TimeEntryDecided(ctx, decided)
	}
	return decided, nil
}

// ListMine returns the actor's own entries, optionally by window and type.
func (s *Service) ListMine(ctx context.Context, actor shared.Actor, rng *shared.DateRange, entryType EntryType) ([]TimeEntry, error) {
	filters := ListFilters{Type: string(entryType)}
	if rng != nil {
		filters.From = rng.Start
		filters.To = rng.End
	}
	return s.repo.ListForEmployee(ctx, actor.EmployeeID, filters)
}

// ListAll returns entries across employees for reviewers.
func (s *Service) ListAll(ctx context.Context, actor shared.Actor, filters ListFilters, page shared.PageRequest) ([]TimeEntry, shared.Pagination, error) {
	if !s.policy(actor, rbac.PermTimeEntriesApprove, 0) {
		return nil, shared.Pagination{}, shared.ErrForbidden
	}
	p := page.Normalize()
	items, total, err := s.repo.List(ctx, filters, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// ListPending returns the review queue ordered by entry date.
func (s *Service) ListPending(ctx context.Context, actor shared.Actor, page shared.PageRequest) ([]TimeEntry, shared.Pagination, error) {
	return s.ListAll(ctx, actor, ListFilters{Status: string(StatusPending)}, page)
}

func newPendingEntry(input Input) TimeEntry {
	taskID := input.TaskID
	if input.Type == TypePresence {
		taskID = nil
	}
	return TimeEntry{
		EmployeeID:  input.EmployeeID,
		TaskID:      taskID,
		Type:        input.Type,
		EntryDate:   shared.Day(input.EntryDate),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Hours:       input.Hours,
		Description: input.Description,
		Status:      StatusPending,
	}
}

func (s *Service) validate(ctx context.Context, input Input) error {
	if err := validateHours(input.Hours); err != nil {
		return err
	}
	if err := validateEntryDate(input.EntryDate, input.StartTime, input.EndTime); err != nil {
		return err
	}
	if input.Type == TypePresence {
		// Task references on presence entries are dropped, not rejected.
		return validateTypeTaskConsistency(input.Type, nil)
	}
	if err := validateTypeTaskConsistency(input.Type, input.TaskID); err != nil {
		return err
	}
	open, err := s.gate.AcceptsTimeEntries(ctx, *input.TaskID)
	if err != nil {
		return err
	}
	if !open {
		return fmt.Errorf("task %d is not open for time entries: %w", *input.TaskID, shared.ErrValidation)
	}
	return nil
}

func (s *Service) recordSubmit(ctx context.Context, entryID, actorID int64) {
	if s.ledger == nil {
		return
	}
	_ = s.ledger.EnsureSubmit(ctx, Module, shared.ApprovalRef(Module, entryID), actorID, "")
}
