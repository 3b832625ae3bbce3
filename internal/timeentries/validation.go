package timeentries

import (
	"fmt"
	"time"

	"github.com/tempus-hr/tempus/internal/shared"
)

// validateHours rejects non-positive hour amounts.
func validateHours(hours float64) error {
	if hours <= 0 {
		return fmt.Errorf("hours must be positive, got %v: %w", hours, shared.ErrValidation)
	}
	return nil
}

// validateTypeTaskConsistency checks the structural half of the type
// rule: TASK entries must reference a task, PRESENCE entries must not.
// Task eligibility (open task on an active project) is checked against
// the store separately.
func validateTypeTaskConsistency(entryType EntryType, taskID *int64) error {
	switch entryType {
	case TypeTask:
		if taskID == nil || *taskID == 0 {
			return fmt.Errorf("task reference required for TASK entries: %w", shared.ErrValidation)
		}
	case TypePresence:
		if taskID != nil {
			return fmt.Errorf("task reference not allowed for PRESENCE entries: %w", shared.ErrValidation)
		}
	default:
		return fmt.Errorf("unknown entry type %q: %w", entryType, shared.ErrValidation)
	}
	return nil
}

// validateEntryDate requires a date and rejects inverted time-of-day bounds.
func validateEntryDate(entryDate time.Time, start, end *time.Time) error {
	if entryDate.IsZero() {
		return fmt.Errorf("entry date required: %w", shared.ErrValidation)
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("end time before start time: %w", shared.ErrValidation)
	}
	return nil
}
