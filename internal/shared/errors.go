package shared

import "errors"

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks role or ownership for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState indicates a transition attempted from a terminal or wrong status.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrValidation indicates a structural or business rule violation.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness violation on create or update.
	ErrConflict = errors.New("conflict")
	// ErrUnavailable indicates a transient storage failure.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSafeMessage returns a message suitable for API clients. Internal
// failures are collapsed so storage details never leak.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrForbidden):
		return "you are not allowed to perform this action"
	case errors.Is(err, ErrInvalidState):
		return "the record is no longer in a state that allows this action"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrConflict):
		return "a record with the same unique value already exists"
	case errors.Is(err, ErrUnavailable):
		return "service temporarily unavailable, retry later"
	default:
		return "internal error"
	}
}
