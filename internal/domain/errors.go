package domain

import (
	"errors"
	"fmt"
)

var (
	// Pipeline outcomes
	ErrUnrecognized     = errors.New("message not recognized by any provider parser")
	ErrDuplicateEvent   = errors.New("event already recorded")
	ErrTransportFailure = errors.New("mailbox transport failure")

	// Lookup failures
	ErrAccountCodeNotFound = errors.New("account code not found")
	ErrAgentNotFound       = errors.New("provider agent not found")

	// Not found
	ErrMovementNotFound      = errors.New("external movement not found")
	ErrCommunicationNotFound = errors.New("service communication not found")
	ErrCandidateNotFound     = errors.New("reconciliation candidate not found")
	ErrTransactionNotFound   = errors.New("internal transaction not found")
	ErrPostingNotFound       = errors.New("ledger posting not found")
	ErrExpenseNotFound       = errors.New("detected expense not found")

	// Validation
	ErrValidation                = errors.New("validation failed")
	ErrNegativeAmount            = errors.New("amount must not be negative")
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrUnbalancedPosting         = errors.New("posting debits and credits do not balance")
	ErrEmptyPosting              = errors.New("posting has no lines")
	ErrBuilderConsumed           = errors.New("posting builder already built, call Reset")
	ErrInvalidStatusTransition   = errors.New("invalid status transition")
	ErrCandidateNotPending       = errors.New("candidate is no longer pending")
	ErrMovementAlreadyReconciled = errors.New("movement already reconciled")
	ErrInvalidDirection          = errors.New("invalid movement direction")
)

// ValidationError reports a rejected input. It matches ErrValidation and the
// wrapped cause with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, reason string, cause error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Err: cause}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
