package domain

import (
	"errors"
	"fmt"
)

var (
	// Validation errors: caller mistakes, never retried.
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidAmount   = errors.New("invalid amount")

	// Business-rule errors without diagnostics payload.
	ErrEmptyOrder     = errors.New("order has no items")
	ErrOrderOwnership = errors.New("order does not belong to user")

	// Concurrency errors: transient, retried with backoff.
	ErrVersionConflict = errors.New("version conflict")
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrRetryExhausted  = errors.New("retry attempts exhausted")

	// Not-found errors: fatal, surfaced immediately.
	ErrStockNotFound   = errors.New("stock not found")
	ErrBalanceNotFound = errors.New("balance not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// InsufficientStockError reports a decrease that exceeds available quantity.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InsufficientBalanceError reports a debit that exceeds the current balance.
type InsufficientBalanceError struct {
	UserID    string
	Requested int
	Available int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for user %s: requested %d, available %d",
		e.UserID, e.Requested, e.Available)
}

// InvalidTransitionError names the rejected (from, to) status pair.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition: %s -> %s", e.From, e.To)
}

// IsBusinessError reports whether err is a permanent business-rule or
// validation failure. These are never retried: retrying them cannot change
// the outcome.
func IsBusinessError(err error) bool {
	var stockErr *InsufficientStockError
	var balanceErr *InsufficientBalanceError
	var transitionErr *InvalidTransitionError
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrOrderOwnership) ||
		errors.As(err, &stockErr) ||
		errors.As(err, &balanceErr) ||
		errors.As(err, &transitionErr)
}

// IsTransientError reports whether err is a concurrency outcome worth
// retrying: a stale version or a contended lock.
func IsTransientError(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrLockNotAcquired)
}
