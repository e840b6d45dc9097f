package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// validTransitions is the full order lifecycle. Absence means the transition
// is rejected; DELIVERED, CANCELLED and FAILED are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled, OrderStatusFailed},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is the order aggregate root. It never holds references to Stock or
// Balance; cross-aggregate coordination happens in the service layer.
type Order struct {
	ID             string
	UserID         string
	Status         OrderStatus
	BasePrice      int
	DiscountAmount int
	PaymentAmount  int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewOrder(userID string, basePrice, discountAmount int) (*Order, error) {
	if basePrice < 0 || discountAmount < 0 || discountAmount > basePrice {
		return nil, ErrInvalidAmount
	}
	now := time.Now()
	return &Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Status:         OrderStatusPending,
		BasePrice:      basePrice,
		DiscountAmount: discountAmount,
		PaymentAmount:  basePrice - discountAmount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// TransitionTo validates the status change against the lifecycle table and
// mutates nothing on rejection.
func (o *Order) TransitionTo(to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return &InvalidTransitionError{From: o.Status, To: to}
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}

func (o *Order) Pay() error {
	return o.TransitionTo(OrderStatusPaid)
}

// Cancel is only legal from PENDING or PAID; the table enforces that.
func (o *Order) Cancel() error {
	return o.TransitionTo(OrderStatusCancelled)
}

func (o *Order) Fail() error {
	return o.TransitionTo(OrderStatusFailed)
}

func (o *Order) Ship() error {
	return o.TransitionTo(OrderStatusShipped)
}

func (o *Order) Deliver() error {
	return o.TransitionTo(OrderStatusDelivered)
}

// OrderItem is a line item. Immutable after creation.
type OrderItem struct {
	ID             string
	OrderID        string
	ProductID      string
	Quantity       int
	UnitPrice      int
	DiscountAmount int
	PaymentAmount  int
	CreatedAt      time.Time
}

func NewOrderItem(orderID, productID string, quantity, unitPrice, discountAmount int) (*OrderItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if unitPrice < 0 || discountAmount < 0 || discountAmount > quantity*unitPrice {
		return nil, ErrInvalidAmount
	}
	return &OrderItem{
		ID:             uuid.New().String(),
		OrderID:        orderID,
		ProductID:      productID,
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		DiscountAmount: discountAmount,
		PaymentAmount:  quantity*unitPrice - discountAmount,
		CreatedAt:      time.Now(),
	}, nil
}
