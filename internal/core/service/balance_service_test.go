package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
)

func TestBalanceServiceUse(t *testing.T) {
	repo := newFakeBalanceRepo()
	repo.seed("user-1", 1000)
	svc := NewBalanceService(repo)

	balance, err := svc.Use(context.Background(), "user-1", "order-1", 300)
	if err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	if balance.Amount != 700 {
		t.Errorf("expected amount 700, got %d", balance.Amount)
	}

	if repo.historyCount() != 1 {
		t.Fatalf("expected 1 history record, got %d", repo.historyCount())
	}
	h := repo.history[0]
	if h.Kind != domain.HistoryKindUse {
		t.Errorf("expected kind USE, got %s", h.Kind)
	}
	if h.Amount != -300 {
		t.Errorf("expected signed amount -300, got %d", h.Amount)
	}
	if h.ResultingBalance != 700 {
		t.Errorf("expected resulting balance 700, got %d", h.ResultingBalance)
	}
	if h.OrderID != "order-1" {
		t.Errorf("expected order-1, got %s", h.OrderID)
	}
}

func TestBalanceServiceUse_InsufficientNoHistory(t *testing.T) {
	repo := newFakeBalanceRepo()
	repo.seed("user-1", 100)
	svc := NewBalanceService(repo)

	_, err := svc.Use(context.Background(), "user-1", "order-1", 500)

	var insufficient *domain.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if repo.historyCount() != 0 {
		t.Errorf("failed mutation must not write history, got %d records", repo.historyCount())
	}
	if repo.amount("user-1") != 100 {
		t.Errorf("expected amount unchanged at 100, got %d", repo.amount("user-1"))
	}
}

func TestBalanceServiceUse_ConflictWritesOneHistory(t *testing.T) {
	repo := newFakeBalanceRepo()
	repo.seed("user-1", 1000)
	repo.conflictsLeft = 2
	svc := NewBalanceService(repo)

	if _, err := svc.Use(context.Background(), "user-1", "order-1", 100); err != nil {
		t.Fatalf("Use failed: %v", err)
	}
	// Two conflicted attempts, then one success: exactly one audit row.
	if repo.historyCount() != 1 {
		t.Errorf("expected 1 history record, got %d", repo.historyCount())
	}
	if repo.amount("user-1") != 900 {
		t.Errorf("expected amount 900, got %d", repo.amount("user-1"))
	}
}

func TestBalanceServiceCharge(t *testing.T) {
	repo := newFakeBalanceRepo()
	repo.seed("user-1", 0)
	svc := NewBalanceService(repo)

	balance, err := svc.Charge(context.Background(), "user-1", 500)
	if err != nil {
		t.Fatalf("Charge failed: %v", err)
	}
	if balance.Amount != 500 {
		t.Errorf("expected amount 500, got %d", balance.Amount)
	}

	h := repo.history[0]
	if h.Kind != domain.HistoryKindCharge {
		t.Errorf("expected kind CHARGE, got %s", h.Kind)
	}
	if h.Amount != 500 {
		t.Errorf("expected signed amount 500, got %d", h.Amount)
	}
	if h.OrderID != "" {
		t.Errorf("charge outside an order should have empty order id, got %s", h.OrderID)
	}
}

func TestBalanceServiceRefund(t *testing.T) {
	repo := newFakeBalanceRepo()
	repo.seed("user-1", 200)
	svc := NewBalanceService(repo)

	balance, err := svc.Refund(context.Background(), "user-1", "order-1", 300)
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if balance.Amount != 500 {
		t.Errorf("expected amount 500, got %d", balance.Amount)
	}
	if repo.history[0].Kind != domain.HistoryKindCancel {
		t.Errorf("expected kind CANCEL, got %s", repo.history[0].Kind)
	}
}

func TestBalanceServiceUse_RetryExhaustion(t *testing.T) {
	repo := newFakeBalanceRepo()
	repo.seed("user-1", 1000)
	repo.conflictsLeft = maxAttempts
	svc := NewBalanceService(repo)

	_, err := svc.Use(context.Background(), "user-1", "order-1", 100)
	if !errors.Is(err, domain.ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if repo.historyCount() != 0 {
		t.Errorf("exhausted retries must leave no history, got %d", repo.historyCount())
	}
}

func TestBalanceServiceUse_UnknownUser(t *testing.T) {
	svc := NewBalanceService(newFakeBalanceRepo())

	_, err := svc.Use(context.Background(), "ghost", "order-1", 100)
	if !errors.Is(err, domain.ErrBalanceNotFound) {
		t.Errorf("expected ErrBalanceNotFound, got %v", err)
	}
}
