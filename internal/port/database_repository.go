package port

import (
	"context"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
)

// StockRepository persists the Stock aggregate with conditional updates.
type StockRepository interface {
	// Get retrieves stock by product ID; domain.ErrStockNotFound if absent.
	Get(ctx context.Context, productID string) (*domain.Stock, error)

	// Create inserts a new stock row.
	Create(ctx context.Context, stock *domain.Stock) error

	// Update writes quantity and version only when the stored version still
	// equals expectedVersion; domain.ErrVersionConflict otherwise. The
	// aggregate has already incremented its own version - this layer only
	// checks the expected value.
	Update(ctx context.Context, stock *domain.Stock, expectedVersion int) error
}

// BalanceRepository persists the Balance aggregate and its audit trail.
type BalanceRepository interface {
	// Get retrieves a balance by user ID; domain.ErrBalanceNotFound if absent.
	Get(ctx context.Context, userID string) (*domain.Balance, error)

	// Create inserts a new balance row.
	Create(ctx context.Context, balance *domain.Balance) error

	// Update conditionally writes the balance and appends the history record
	// in the same database transaction. domain.ErrVersionConflict when the
	// version check fails; in that case no history row is written.
	Update(ctx context.Context, balance *domain.Balance, expectedVersion int, history *domain.BalanceHistory) error
}

// OrderRepository persists orders and their line items.
type OrderRepository interface {
	// Get retrieves an order by ID; domain.ErrOrderNotFound if absent.
	Get(ctx context.Context, orderID string) (*domain.Order, error)

	// Create inserts the order and its items in one transaction.
	Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error

	// Items returns the line items of an order.
	Items(ctx context.Context, orderID string) ([]*domain.OrderItem, error)

	// UpdateStatus transitions the order only when its stored status still
	// equals from; domain.ErrVersionConflict when another writer got there
	// first.
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) error
}
