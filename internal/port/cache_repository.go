package port

import "context"

// Locker is a distributed mutual-exclusion lease. Implementations may back it
// with a key-value store's set-if-absent primitive or an advisory lock; the
// core only depends on the scoped-acquisition contract.
type Locker interface {
	// WithLock acquires a TTL-bounded exclusive lease on key, runs fn, and
	// releases the lease on every exit path. domain.ErrLockNotAcquired when
	// the lease is held elsewhere; fn's error is returned unchanged.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// CartRepository holds a user's cart in the coordination store. Cart state is
// not financially critical; clearing it after checkout is best-effort.
type CartRepository interface {
	// Add increments the quantity of a product in the user's cart.
	Add(ctx context.Context, userID, productID string, quantity int) error

	// Items returns productID -> quantity for the user's cart.
	Items(ctx context.Context, userID string) (map[string]int, error)

	// Clear removes the user's cart entirely.
	Clear(ctx context.Context, userID string) error
}
