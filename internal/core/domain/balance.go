package domain

import (
	"time"

	"github.com/google/uuid"
)

// Balance is a user's point/wallet aggregate, versioned the same way as
// Stock: the counter moves only inside the pure mutation methods.
type Balance struct {
	UserID    string
	Amount    int
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBalance(userID string, amount int) (*Balance, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now()
	return &Balance{
		UserID:    userID,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Charge adds funds.
func (b *Balance) Charge(amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	b.Amount += amount
	b.Version++
	b.UpdatedAt = time.Now()
	return nil
}

// Use debits funds. Validates before mutating; a failed call leaves the
// aggregate untouched.
func (b *Balance) Use(amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > b.Amount {
		return &InsufficientBalanceError{
			UserID:    b.UserID,
			Requested: amount,
			Available: b.Amount,
		}
	}
	b.Amount -= amount
	b.Version++
	b.UpdatedAt = time.Now()
	return nil
}

// Refund credits back a previously used amount.
func (b *Balance) Refund(amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	b.Amount += amount
	b.Version++
	b.UpdatedAt = time.Now()
	return nil
}

// HistoryKind classifies a balance mutation in the audit trail.
type HistoryKind string

const (
	HistoryKindCharge HistoryKind = "CHARGE"
	HistoryKindUse    HistoryKind = "USE"
	HistoryKindCancel HistoryKind = "CANCEL"
)

// BalanceHistory is an append-only audit record. Exactly one row exists per
// successful balance mutation; rows are never updated or deleted.
type BalanceHistory struct {
	ID               string
	UserID           string
	OrderID          string // empty when the mutation is not tied to an order
	Kind             HistoryKind
	Amount           int // signed: negative for USE, positive for CHARGE/CANCEL
	ResultingBalance int
	CreatedAt        time.Time
}

func NewBalanceHistory(userID, orderID string, kind HistoryKind, amount, resultingBalance int) *BalanceHistory {
	return &BalanceHistory{
		ID:               uuid.New().String(),
		UserID:           userID,
		OrderID:          orderID,
		Kind:             kind,
		Amount:           amount,
		ResultingBalance: resultingBalance,
		CreatedAt:        time.Now(),
	}
}
