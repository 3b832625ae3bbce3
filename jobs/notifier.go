package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tempus-hr/tempus/internal/shared"
	"github.com/tempus-hr/tempus/internal/timeentries"
	"github.com/tempus-hr/tempus/internal/vacations"
)

// DecisionNotifier queues decision emails for the owning employee.
type DecisionNotifier struct {
	Client *Client
	Staff  EmployeeSource
	Logger *slog.Logger
}

// NewDecisionNotifier constructs a DecisionNotifier.
func NewDecisionNotifier(client *Client, staff EmployeeSource, logger *slog.Logger) *DecisionNotifier {
	return &DecisionNotifier{Client: client, Staff: staff, Logger: logger}
}

// VacationDecided emails the request owner about the decision.
func (n *DecisionNotifier) VacationDecided(ctx context.Context, req vacations.VacationRequest) {
	emp, err := n.Staff.Get(ctx, req.EmployeeID)
	if err != nil {
		n.Logger.Warn("resolve decision recipient", slog.Any("error", err), slog.Int64("request_id", req.ID))
		return
	}
	subject := fmt.Sprintf("Vacation request %s", strings.ToLower(string(req.Status)))
	body := fmt.Sprintf("Your %s request for %s to %s was %s.",
		req.Type.Label(),
		req.StartDate.Format(shared.DateFormat),
		req.EndDate.Format(shared.DateFormat),
		strings.ToLower(string(req.Status)))
	if req.Status == vacations.StatusRejected && req.RejectionReason != "" {
		body += " Reason: " + req.RejectionReason
	}
	if req.ApprovalSkipped {
		body += " (" + req.ApprovalSkipLabel + ")"
	}
	n.enqueue(ctx, emp.Email, subject, body)
}

// TimeEntryDecided emails the entry owner about the decision.
func (n *DecisionNotifier) TimeEntryDecided(ctx context.Context, e timeentries.TimeEntry) {
	emp, err := n.Staff.Get(ctx, e.EmployeeID)
	if err != nil {
		n.Logger.Warn("resolve decision recipient", slog.Any("error", err), slog.Int64("entry_id", e.ID))
		return
	}
	subject := fmt.Sprintf("Time entry %s", strings.ToLower(string(e.Status)))
	body := fmt.Sprintf("Your time entry of %.2f hours on %s was %s.",
		e.Hours, e.EntryDate.Format(shared.DateFormat), strings.ToLower(string(e.Status)))
	n.enqueue(ctx, emp.Email, subject, body)
}

func (n *DecisionNotifier) enqueue(ctx context.Context, to, subject, body string) {
	if _, err := n.Client.EnqueueSendEmail(ctx, SendEmailPayload{To: to, Subject: subject, Body: body}); err != nil {
		n.Logger.Warn("enqueue decision notice", slog.Any("error", err), slog.String("to", to))
	}
}
