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

// StockService mutates a single Stock aggregate under optimistic concurrency
// control: read, apply the pure domain mutation, then conditionally persist
// against the pre-mutation version. Version conflicts re-read and retry;
// business failures return immediately without a write attempt.
type StockService struct {
	stocks port.StockRepository
}

func NewStockService(stocks port.StockRepository) *StockService {
	return &StockService{stocks: stocks}
}

// Deduct decreases the product's stock by qty.
func (s *StockService) Deduct(ctx context.Context, productID string, qty int) (*domain.Stock, error) {
	return s.mutate(ctx, productID, func(stock *domain.Stock) error {
		return stock.Decrease(qty)
	})
}

// Restock increases the product's stock by qty.
func (s *StockService) Restock(ctx context.Context, productID string, qty int) (*domain.Stock, error) {
	return s.mutate(ctx, productID, func(stock *domain.Stock) error {
		return stock.Increase(qty)
	})
}

func (s *StockService) mutate(ctx context.Context, productID string, apply func(*domain.Stock) error) (*domain.Stock, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		stock, err := s.stocks.Get(ctx, productID)
		if err != nil {
			return nil, err
		}

		expected := stock.Version
		if err := apply(stock); err != nil {
			// Validation or business-rule failure: deterministic, so a
			// retry could never succeed.
			return nil, err
		}

		err = s.stocks.Update(ctx, stock, expected)
		if err == nil {
			return stock, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}

		log.Debug().
			Str("product_id", productID).
			Int("attempt", attempt).
			Msg("stock version conflict, retrying")
		time.Sleep(backoff(attempt))
	}

	return nil, fmt.Errorf("stock update for product %s: %w", productID, domain.ErrRetryExhausted)
}
