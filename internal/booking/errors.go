package booking

import (
	"errors"
	"fmt"

	"github.com/cx-tal-miterani/flight-booking-flow/internal/passenger"
)

var (
	ErrInvalidTransition  = errors.New("invalid stage transition")
	ErrSubmissionInFlight = errors.New("booking submission already in progress")
	ErrStageJumpDisabled  = errors.New("jumping between stages is disabled")
	ErrSeatNotSelectable  = errors.New("seat is not selectable")
)

// TransitionError rejects an operation whose stage preconditions are unmet
type TransitionError struct {
	Op     string
	Stage  Stage
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s not allowed in stage %s: %s", e.Op, e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s not allowed in stage %s", e.Op, e.Stage)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ValidationError is a local, field-scoped rejection of traveler input
type ValidationError struct {
	Fields passenger.FieldErrors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: passenger.FieldErrors{field: message}}
}

// LookupError reports flight or seat data that could not be loaded
type LookupError struct {
	Resource string
	ID       string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("failed to load %s %s: %v", e.Resource, e.ID, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// SubmissionError reports a failed booking creation. The draft is kept, so it
// is always retryable from payment review.
type SubmissionError struct {
	Reason  string
	Timeout bool
	Err     error
}

func (e *SubmissionError) Error() string {
	switch {
	case e.Timeout:
		return "booking submission timed out"
	case e.Err != nil:
		return fmt.Sprintf("booking submission failed: %v", e.Err)
	default:
		return fmt.Sprintf("booking submission failed: %s", e.Reason)
	}
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
