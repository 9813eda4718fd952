package core

import (
	"context"
	"errors"
)

// Validation errors: bad input shape or values.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountPrecision    = errors.New("amount precision exceeds currency")
	ErrInvalidTransfer    = errors.New("invalid transfer")
	ErrMissingCategory    = errors.New("missing category")
	ErrCategoryKind       = errors.New("category kind mismatch")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidAccountKind = errors.New("invalid account kind")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyName          = errors.New("empty name")
)

// Lookup errors.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountNotOwned      = errors.New("account not owned by caller")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrGoalNotFound         = errors.New("saving goal not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrNotOwned             = errors.New("resource not owned by caller")
	ErrDuplicateName        = errors.New("name already in use")
	ErrNotDue               = errors.New("subscription not due")
)

// Fatal consistency errors: stored data violates an invariant the ledger relies on.
var (
	ErrStaleReference   = errors.New("stale account reference")
	ErrOperationTimeout = errors.New("ledger operation timed out")
)

// ErrorClass groups errors by how callers should react to them.
type ErrorClass string

const (
	ClassValidation ErrorClass = "validation_error"
	ClassNotFound   ErrorClass = "not_found_error"
	ClassNotOwned   ErrorClass = "auth_error"
	ClassConflict   ErrorClass = "conflict_error"
	ClassFatal      ErrorClass = "internal_error"
)

// Classify maps an error chain to its class. Unknown errors are fatal.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStaleReference),
		errors.Is(err, ErrOperationTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return ClassFatal
	case errors.Is(err, ErrAccountNotOwned), errors.Is(err, ErrNotOwned):
		return ClassNotOwned
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrSubscriptionNotFound),
		errors.Is(err, ErrGoalNotFound),
		errors.Is(err, ErrCategoryNotFound):
		return ClassNotFound
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrNotDue):
		return ClassConflict
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidTransfer),
		errors.Is(err, ErrMissingCategory),
		errors.Is(err, ErrCategoryKind),
		errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrInvalidAccountKind),
		errors.Is(err, ErrInvalidFrequency),
		errors.Is(err, ErrInvalidCurrency),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrEmptyName):
		return ClassValidation
	default:
		return ClassFatal
	}
}

// IsFatal reports whether err signals a broken ledger invariant or an aborted operation.
func IsFatal(err error) bool {
	return err != nil && Classify(err) == ClassFatal
}
