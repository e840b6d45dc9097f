package service

import (
	"context"
	"sync"

	"github.com/Obsessive-Curiosity/commerce-core/internal/core/domain"
)

// In-memory fakes implementing the ports with real conditional-update
// semantics, so the retry loops are exercised against honest CAS behavior.

type fakeStockRepo struct {
	mu     sync.Mutex
	stocks map[string]domain.Stock

	gets    int
	updates int

	// conflictsLeft forces the next N updates to report a version conflict
	// regardless of the stored version.
	conflictsLeft int
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[string]domain.Stock)}
}

func (r *fakeStockRepo) seed(productID string, quantity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[productID] = domain.Stock{ProductID: productID, Quantity: quantity}
}

func (r *fakeStockRepo) Get(ctx context.Context, productID string) (*domain.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	stock, ok := r.stocks[productID]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	copied := stock
	return &copied, nil
}

func (r *fakeStockRepo) Create(ctx context.Context, stock *domain.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[stock.ProductID] = *stock
	return nil
}

func (r *fakeStockRepo) Update(ctx context.Context, stock *domain.Stock, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return domain.ErrVersionConflict
	}
	stored, ok := r.stocks[stock.ProductID]
	if !ok {
		return domain.ErrStockNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.stocks[stock.ProductID] = *stock
	return nil
}

func (r *fakeStockRepo) quantity(productID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stocks[productID].Quantity
}

type fakeBalanceRepo struct {
	mu       sync.Mutex
	balances map[string]domain.Balance
	history  []*domain.BalanceHistory

	conflictsLeft int
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[string]domain.Balance)}
}

func (r *fakeBalanceRepo) seed(userID string, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = domain.Balance{UserID: userID, Amount: amount}
}

func (r *fakeBalanceRepo) Get(ctx context.Context, userID string) (*domain.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance, ok := r.balances[userID]
	if !ok {
		return nil, domain.ErrBalanceNotFound
	}
	copied := balance
	return &copied, nil
}

func (r *fakeBalanceRepo) Create(ctx context.Context, balance *domain.Balance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[balance.UserID] = *balance
	return nil
}

func (r *fakeBalanceRepo) Update(ctx context.Context, balance *domain.Balance, expectedVersion int, history *domain.BalanceHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return domain.ErrVersionConflict
	}
	stored, ok := r.balances[balance.UserID]
	if !ok {
		return domain.ErrBalanceNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.balances[balance.UserID] = *balance
	r.history = append(r.history, history)
	return nil
}

func (r *fakeBalanceRepo) amount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID].Amount
}

func (r *fakeBalanceRepo) historyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
	items  map[string][]*domain.OrderItem

	statusUpdateErr error // injected failure for UpdateStatus
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[string]domain.Order),
		items:  make(map[string][]*domain.OrderItem),
	}
}

func (r *fakeOrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copied := order
	return &copied, nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *domain.Order, items []*domain.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	r.items[order.ID] = items
	return nil
}

func (r *fakeOrderRepo) Items(ctx context.Context, orderID string) ([]*domain.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusUpdateErr != nil && to == domain.OrderStatusPaid {
		return r.statusUpdateErr
	}
	order, ok := r.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if order.Status != from {
		return domain.ErrVersionConflict
	}
	order.Status = to
	r.orders[orderID] = order
	return nil
}

func (r *fakeOrderRepo) status(orderID string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderID].Status
}

type fakeCartRepo struct {
	mu        sync.Mutex
	cleared   []string
	clearErr  error
	items     map[string]map[string]int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{items: make(map[string]map[string]int)}
}

func (r *fakeCartRepo) Add(ctx context.Context, userID, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items[userID] == nil {
		r.items[userID] = make(map[string]int)
	}
	r.items[userID][productID] += quantity
	return nil
}

func (r *fakeCartRepo) Items(ctx context.Context, userID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[userID], nil
}

func (r *fakeCartRepo) Clear(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clearErr != nil {
		return r.clearErr
	}
	delete(r.items, userID)
	r.cleared = append(r.cleared, userID)
	return nil
}

func (r *fakeCartRepo) clearedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cleared)
}

// fakeLocker serializes callers per key with a real mutex, blocking like a
// healthy coordination store under moderate contention.
type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	// denialsLeft makes the next N acquisitions fail across all keys,
	// simulating a contended lease.
	denialsLeft int
	attempts    int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	l.attempts++
	if l.denialsLeft > 0 {
		l.denialsLeft--
		l.mu.Unlock()
		return domain.ErrLockNotAcquired
	}
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}
