package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrRequestNotFound     = errors.New("redemption request not found")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	ErrAlreadyCompleted    = errors.New("redemption request already completed")
	ErrDuplicateUsername   = errors.New("username already taken")
)

// ValidationError reports a malformed or missing field. It is returned to the
// caller for user-facing messaging.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PartialFailure means a redemption request was recorded but the matching coin
// debit did not apply. It must never be folded into ordinary validation
// errors: the orphaned request needs operator reconciliation, not a user
// retry.
type PartialFailure struct {
	RequestID string
	Err       error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("request %s created but debit failed: %v", e.RequestID, e.Err)
}

func (e *PartialFailure) Unwrap() error { return e.Err }
