package domain

import "time"

// Stock is the inventory aggregate for a single product. Version is the
// optimistic locking counter: it is incremented only here, inside the pure
// mutation methods, and the persistence layer merely checks it.
type Stock struct {
	ProductID string
	Quantity  int
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewStock(productID string, quantity int) (*Stock, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now()
	return &Stock{
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Decrease removes qty units. It validates before mutating, so a failed call
// leaves the aggregate untouched. No I/O happens here.
func (s *Stock) Decrease(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > s.Quantity {
		return &InsufficientStockError{
			ProductID: s.ProductID,
			Requested: qty,
			Available: s.Quantity,
		}
	}
	s.Quantity -= qty
	s.Version++
	s.UpdatedAt = time.Now()
	return nil
}

// Increase adds qty units.
func (s *Stock) Increase(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	s.Quantity += qty
	s.Version++
	s.UpdatedAt = time.Now()
	return nil
}

// HasStock reports whether qty units could be decreased right now.
func (s *Stock) HasStock(qty int) bool {
	return qty > 0 && qty <= s.Quantity
}
