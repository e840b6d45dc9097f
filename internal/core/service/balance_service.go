package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
	"github.com/Obsessive-Curiosity/commerce-core/internal/port"
)

// BalanceService mutates a user's Balance under the same optimistic loop as
// StockService, and records one immutable history row per successful
// mutation. The repository writes the balance and the history atomically, so
// a version conflict leaves no orphaned audit record.
type BalanceService struct {
	balances port.BalanceRepository
}

func NewBalanceService(balances port.BalanceRepository) *BalanceService {
	return &BalanceService{balances: balances}
}

// Charge adds funds to the user's balance.
func (s *BalanceService) Charge(ctx context.Context, userID string, amount int) (*domain.Balance, error) {
	return s.mutate(ctx, userID, func(b *domain.Balance) (*domain.BalanceHistory, error) {
		if err := b.Charge(amount); err != nil {
			return nil, err
		}
		return domain.NewBalanceHistory(userID, "", domain.HistoryKindCharge, amount, b.Amount), nil
	})
}

// Use debits the user's balance for an order.
func (s *BalanceService) Use(ctx context.Context, userID, orderID string, amount int) (*domain.Balance, error) {
	return s.mutate(ctx, userID, func(b *domain.Balance) (*domain.BalanceHistory, error) {
		if err := b.Use(amount); err != nil {
			return nil, err
		}
		return domain.NewBalanceHistory(userID, orderID, domain.HistoryKindUse, -amount, b.Amount), nil
	})
}

// Refund credits back a previously debited amount, e.g. as saga compensation.
func (s *BalanceService) Refund(ctx context.Context, userID, orderID string, amount int) (*domain.Balance, error) {
	return s.mutate(ctx, userID, func(b *domain.Balance) (*domain.BalanceHistory, error) {
		if err := b.Refund(amount); err != nil {
			return nil, err
		}
		return domain.NewBalanceHistory(userID, orderID, domain.HistoryKindCancel, amount, b.Amount), nil
	})
}

func (s *BalanceService) mutate(ctx context.Context, userID string, apply func(*domain.Balance) (*domain.BalanceHistory, error)) (*domain.Balance, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		balance, err := s.balances.Get(ctx, userID)
		if err != nil {
			return nil, err
		}

		expected := balance.Version
		history, err := apply(balance)
		if err != nil {
			return nil, err
		}

		err = s.balances.Update(ctx, balance, expected, history)
		if err == nil {
			return balance, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}

		log.Debug().
			Str("user_id", userID).
			Int("attempt", attempt).
			Msg("balance version conflict, retrying")
		time.Sleep(backoff(attempt))
	}

	return nil, fmt.Errorf("balance update for user %s: %w", userID, domain.ErrRetryExhausted)
}
