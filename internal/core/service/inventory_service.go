package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
	"github.com/Obsessive-Curiosity/commerce-core/internal/port"
)

// ItemRequest addresses one product in a multi-item stock operation.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// ItemResult is one successfully mutated line item.
type ItemResult struct {
	ProductID string
	Quantity  int
	Remaining int
}

// ItemFailure records a per-item business failure in a partial-success batch.
type ItemFailure struct {
	ProductID string
	Quantity  int
	Reason    error
}

// DeductResult accumulates per-item outcomes. A single out-of-stock line does
// not forfeit the rest of the batch; the caller decides whether partial
// success is acceptable.
type DeductResult struct {
	Succeeded []ItemResult
	Failed    []ItemFailure
}

// InventoryService coordinates stock mutations across an order's line items.
// Items are always processed in ascending productID order, so two concurrent
// multi-item operations acquire their shared locks in the same relative order
// and can never form a cycle of waiters.
type InventoryService struct {
	stocks *StockService
	locker port.Locker
}

func NewInventoryService(stocks *StockService, locker port.Locker) *InventoryService {
	return &InventoryService{stocks: stocks, locker: locker}
}

func lockKey(productID string) string {
	return "stock:" + productID
}

// sortedCopy returns the items in canonical lock order without mutating the
// caller's slice.
func sortedCopy(items []ItemRequest) []ItemRequest {
	sorted := make([]ItemRequest, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})
	return sorted
}

// DeductStock decreases stock for every item, each under its own lock.
// Business failures (insufficient stock, bad quantity) are recorded per item;
// concurrency and infrastructure failures abort the whole operation because
// they void the batch's consistency assumptions.
func (s *InventoryService) DeductStock(ctx context.Context, items []ItemRequest) (*DeductResult, error) {
	result := &DeductResult{}

	for _, item := range sortedCopy(items) {
		stock, err := s.withStockLock(ctx, item.ProductID, func(ctx context.Context) (*domain.Stock, error) {
			return s.stocks.Deduct(ctx, item.ProductID, item.Quantity)
		})
		if err != nil {
			if domain.IsBusinessError(err) {
				result.Failed = append(result.Failed, ItemFailure{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Reason:    err,
				})
				continue
			}
			return nil, fmt.Errorf("deduct stock for product %s: %w", item.ProductID, err)
		}
		result.Succeeded = append(result.Succeeded, ItemResult{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Remaining: stock.Quantity,
		})
	}

	return result, nil
}

// RestoreStock is the compensating mirror of DeductStock: same canonical
// order, same per-item lock scope, applied to previously deducted items.
func (s *InventoryService) RestoreStock(ctx context.Context, items []ItemRequest) ([]ItemResult, error) {
	var restored []ItemResult

	for _, item := range sortedCopy(items) {
		stock, err := s.withStockLock(ctx, item.ProductID, func(ctx context.Context) (*domain.Stock, error) {
			return s.stocks.Restock(ctx, item.ProductID, item.Quantity)
		})
		if err != nil {
			return restored, fmt.Errorf("restore stock for product %s: %w", item.ProductID, err)
		}
		restored = append(restored, ItemResult{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Remaining: stock.Quantity,
		})
	}

	return restored, nil
}

// withStockLock runs fn under the product's lock, retrying acquisition with
// the shared backoff when the lease is held elsewhere. This outer loop
// retries lock contention only; version conflicts are handled inside
// StockService.
func (s *InventoryService) withStockLock(ctx context.Context, productID string, fn func(ctx context.Context) (*domain.Stock, error)) (*domain.Stock, error) {
	var stock *domain.Stock

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.locker.WithLock(ctx, lockKey(productID), func(ctx context.Context) error {
			var fnErr error
			stock, fnErr = fn(ctx)
			return fnErr
		})
		if err == nil {
			return stock, nil
		}
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			return nil, err
		}

		log.Debug().
			Str("product_id", productID).
			Int("attempt", attempt).
			Msg("stock lock contended, retrying")
		time.Sleep(backoff(attempt))
	}

	return nil, fmt.Errorf("lock on %s: %w", lockKey(productID), domain.ErrRetryExhausted)
}
