package subledger

import (
	"errors"
	"fmt"

	"github.com/xraph/subledger/oracle"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("subledger: not found")
	ErrInvalidInput = errors.New("subledger: invalid input")

	// Authorization errors
	ErrNotOwner = errors.New("subledger: caller is not the owner")
	ErrNotAdmin = errors.New("subledger: caller is not the administrator")

	// Provider errors
	ErrProviderNotFound  = errors.New("subledger: provider not found")
	ErrAlreadyRegistered = errors.New("subledger: provider already registered")
	ErrCapacityExceeded  = errors.New("subledger: provider capacity exceeded")
	ErrFeeBelowMinimum   = errors.New("subledger: fee below minimum value")
	ErrProviderInactive  = errors.New("subledger: provider is inactive")
	ErrEmptyProviderList = errors.New("subledger: provider list is empty")

	// Subscriber errors
	ErrSubscriberNotFound  = errors.New("subledger: subscriber not found")
	ErrDepositBelowMinimum = errors.New("subledger: deposit below minimum value")
	ErrInsufficientDeposit = errors.New("subledger: insufficient deposit")

	// Oracle errors, re-exported so callers can match them without
	// importing the oracle package.
	ErrStalePrice   = oracle.ErrStalePrice
	ErrInvalidPrice = oracle.ErrInvalidPrice

	// Token errors
	ErrTransferFailed = errors.New("subledger: token transfer failed")

	// Lifecycle errors
	ErrAlreadyStarted = errors.New("subledger: engine already started")

	// Store errors
	ErrStoreNotReady   = errors.New("subledger: store not ready")
	ErrStoreClosed     = errors.New("subledger: store is closed")
	ErrMigrationFailed = errors.New("subledger: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("subledger: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrProviderNotFound) ||
		errors.Is(err, ErrSubscriberNotFound)
}

// IsAuthorization returns true if the error is an ownership or admin check failure.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotOwner) ||
		errors.Is(err, ErrNotAdmin)
}

// IsThreshold returns true if the error is a minimum-value or capacity violation.
func IsThreshold(err error) bool {
	return errors.Is(err, ErrFeeBelowMinimum) ||
		errors.Is(err, ErrDepositBelowMinimum) ||
		errors.Is(err, ErrInsufficientDeposit) ||
		errors.Is(err, ErrCapacityExceeded)
}

// IsOracle returns true if the error originated from price feed validation.
func IsOracle(err error) bool {
	return errors.Is(err, ErrStalePrice) ||
		errors.Is(err, ErrInvalidPrice)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrStalePrice) ||
		errors.Is(err, ErrTransferFailed)
}
