package models

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrIdempotencyConflict = errors.New("idempotency key reused with different payload")
	ErrRewardUnavailable   = errors.New("reward unavailable")
	ErrReservationClosed   = errors.New("reservation already resolved")
	ErrTenantIsolation     = errors.New("tenant isolation violation")
	ErrNotFound            = errors.New("not found")
)

// ValidationError rejects a malformed event or configuration before any state
// change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
