package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
	"github.com/Obsessive-Curiosity/commerce-core/internal/port"
)

// PaymentResult is the outcome of a completed checkout.
type PaymentResult struct {
	OrderID       string
	PaymentAmount int
}

// PaymentService orchestrates checkout as a saga: debit balance, deduct
// stock, transition the order to PAID, clear the cart. Each committed step
// pushes an undo closure; any later failure runs the stack in reverse so the
// user-visible outcome is always "payment failed, nothing was consumed".
type PaymentService struct {
	orders    port.OrderRepository
	balances  *BalanceService
	inventory *InventoryService
	cart      port.CartRepository
}

func NewPaymentService(orders port.OrderRepository, balances *BalanceService, inventory *InventoryService, cart port.CartRepository) *PaymentService {
	return &PaymentService{
		orders:    orders,
		balances:  balances,
		inventory: inventory,
		cart:      cart,
	}
}

// compensations is a stack of undo closures, run in reverse push order.
// Compensation failures are logged, not propagated: at that point the saga is
// already failing and the log line is the trigger for manual reconciliation
// against the balance history.
type compensations []func(ctx context.Context)

func (c *compensations) push(fn func(ctx context.Context)) {
	*c = append(compensations{fn}, *c...)
}

func (c *compensations) run(ctx context.Context) {
	for _, fn := range *c {
		fn(ctx)
	}
}

// ProcessPayment executes the checkout saga for the given order on behalf of
// userID. Steps 1-2 mutate nothing; from the balance debit onward every
// failure compensates committed steps before surfacing.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID, userID string) (*PaymentResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderOwnership
	}
	if order.Status != domain.OrderStatusPending {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusPaid}
	}

	items, err := s.orders.Items(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	var undo compensations

	// Step 3: debit the balance. A permanent failure here aborts with
	// nothing yet mutated.
	if _, err := s.balances.Use(ctx, userID, orderID, order.PaymentAmount); err != nil {
		return nil, s.failed(ctx, order, err)
	}
	undo.push(func(ctx context.Context) {
		if _, err := s.balances.Refund(ctx, userID, orderID, order.PaymentAmount); err != nil {
			log.Error().Err(err).
				Str("order_id", orderID).
				Str("user_id", userID).
				Msg("compensation failed: balance refund")
		}
	})

	// Step 4: deduct stock for every line item.
	requests := make([]ItemRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	result, err := s.inventory.DeductStock(ctx, requests)
	if err != nil {
		undo.run(ctx)
		return nil, err
	}
	if len(result.Failed) > 0 {
		// Restore whatever was already deducted before unwinding the debit.
		deducted := make([]ItemRequest, 0, len(result.Succeeded))
		for _, item := range result.Succeeded {
			deducted = append(deducted, ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if len(deducted) > 0 {
			if _, restoreErr := s.inventory.RestoreStock(ctx, deducted); restoreErr != nil {
				log.Error().Err(restoreErr).
					Str("order_id", orderID).
					Msg("compensation failed: stock restore")
			}
		}
		undo.run(ctx)
		return nil, s.failed(ctx, order, fmt.Errorf("deduct stock: %w", result.Failed[0].Reason))
	}
	undo.push(func(ctx context.Context) {
		if _, err := s.inventory.RestoreStock(ctx, requests); err != nil {
			log.Error().Err(err).
				Str("order_id", orderID).
				Msg("compensation failed: stock restore")
		}
	})

	// Step 5: transition the order. Validate through the state machine, then
	// apply with a status-guarded update so a concurrent transition loses.
	if err := order.Pay(); err != nil {
		undo.run(ctx)
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusPaid); err != nil {
		undo.run(ctx)
		return nil, err
	}

	// Step 6: clear the cart. Best-effort; a failure here never rolls back
	// the financial steps.
	if err := s.cart.Clear(ctx, userID); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("order_id", orderID).
			Msg("cart clear failed after payment")
	}

	log.Info().
		Str("order_id", orderID).
		Str("user_id", userID).
		Int("payment_amount", order.PaymentAmount).
		Msg("payment processed")

	return &PaymentResult{OrderID: orderID, PaymentAmount: order.PaymentAmount}, nil
}

// failed marks the order FAILED after a compensated business failure and
// passes err through. Infrastructure failures skip the mark so the order
// stays PENDING and can be retried once the outage clears.
func (s *PaymentService) failed(ctx context.Context, order *domain.Order, err error) error {
	if !domain.IsBusinessError(err) {
		return err
	}
	if markErr := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusFailed); markErr != nil {
		log.Warn().Err(markErr).
			Str("order_id", order.ID).
			Msg("could not mark order failed")
	}
	return err
}
