package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sjperalta/techlog-api/internal/models"
)

// ErrValidation matches every *ValidationError. The user corrects input and retries.
var ErrValidation = errors.New("validation failed")

// ValidationError flags the field (or missing checks) that blocked a transition
type ValidationError struct {
	Field   string             `json:"field"`
	Message string             `json:"message"`
	Missing []models.CheckType `json:"missing,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, m := range e.Missing {
			names[i] = string(m)
		}
		return fmt.Sprintf("%s: %s (missing %s)", e.Field, e.Message, strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ErrNotCurrentLeg rejects ACCEPTANCE on a historical log page
var ErrNotCurrentLeg = newValidationError("flight_leg", "acceptance can only be granted on the current flight leg")

// Sequencing violations. The triggering control should have been disabled.
var (
	ErrSequence             = errors.New("operation not allowed in current state")
	ErrEntrySealed          = fmt.Errorf("%w: entry is sealed", ErrSequence)
	ErrShortSignRequired    = fmt.Errorf("%w: entry must be short signed first", ErrSequence)
	ErrAlreadyShortSigned   = fmt.Errorf("%w: entry is already short signed", ErrSequence)
	ErrCheckSealed          = fmt.Errorf("%w: check is already authorized", ErrSequence)
	ErrCheckSetSealed       = fmt.Errorf("%w: check set is sealed by acceptance", ErrSequence)
	ErrAuthorizationPending = fmt.Errorf("%w: an authorization is pending", ErrSequence)
)

var (
	ErrEntryNotFound = errors.New("log entry not found")
	ErrUnknownCheck  = errors.New("unknown check type")
	ErrNoLogs        = errors.New("no log pages available")
)

// CollaboratorError wraps a failed persistence round-trip. The transition was rolled back
// and can be retried.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Op: op, Err: err}
}

// IsRetryable reports whether err is a collaborator failure worth retrying
func IsRetryable(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
