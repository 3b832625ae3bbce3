package vacations

import (
	"fmt"

	"github.com/tempus-hr/tempus/internal/shared"
)

// validateRange requires both dates and end on or after start.
func validateRange(rng shared.DateRange) error {
	if rng.Start.IsZero() || rng.End.IsZero() {
		return fmt.Errorf("start and end dates required: %w", shared.ErrValidation)
	}
	if !rng.Valid() {
		return fmt.Errorf("end date before start date: %w", shared.ErrValidation)
	}
	return nil
}

// findOverlap returns the first existing blocking request whose range
// intersects the candidate range, skipping excludeID (the request being
// updated). Boundaries are inclusive: a request ending the day another
// begins overlaps.
func findOverlap(candidate shared.DateRange, existing []VacationRequest, excludeID int64) *VacationRequest {
	for i, req := range existing {
		if req.ID == excludeID {
			continue
		}
		if !req.Blocks() {
			continue
		}
		if candidate.Overlaps(req.Range()) {
			return &existing[i]
		}
	}
	return nil
}
