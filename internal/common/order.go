package common

import (
	"errors"
	"fmt"
)

// ErrOverfill marks an attempt to fill an order past its remaining quantity.
// It is only ever raised through a panic: it means the matcher is broken, not
// that the caller sent something bad.
var ErrOverfill = errors.New("fill exceeds remaining quantity")

type Order struct {
	ID              OrderID   // Caller assigned, unique per live order
	Type            OrderType //
	Side            Side      // Order side
	Price           Price     // Limiting price
	InitialQuantity Quantity  // Total volume requested
	remaining       Quantity  // Remaining quantity, only lowered by Fill
}

func NewOrder(orderType OrderType, id OrderID, side Side, price Price, quantity Quantity) Order {
	return Order{
		ID:              id,
		Type:            orderType,
		Side:            side,
		Price:           price,
		InitialQuantity: quantity,
		remaining:       quantity,
	}
}

func (order *Order) RemainingQuantity() Quantity { return order.remaining }

func (order *Order) FilledQuantity() Quantity {
	return order.InitialQuantity - order.remaining
}

// IsFilled reports whether nothing is left to execute.
func (order *Order) IsFilled() bool { return order.remaining == 0 }

// Fill takes quantity off the remaining amount. Filling more than what remains
// panics.
func (order *Order) Fill(quantity Quantity) {
	if quantity > order.remaining {
		panic(fmt.Errorf("order %d: %w (remaining %d, fill %d)",
			order.ID, ErrOverfill, order.remaining, quantity))
	}
	order.remaining -= quantity
}

func (order Order) String() string {
	return fmt.Sprintf("%d %v %v %d@%d (filled %d/%d)",
		order.ID,
		order.Type,
		order.Side,
		order.remaining,
		order.Price,
		order.FilledQuantity(),
		order.InitialQuantity,
	)
}

// OrderModify carries the replacement details for an existing order. The
// order type is not part of it; a modification keeps the original type.
type OrderModify struct {
	ID       OrderID
	Side     Side
	Price    Price
	Quantity Quantity
}

func (m OrderModify) ToOrder(orderType OrderType) Order {
	return NewOrder(orderType, m.ID, m.Side, m.Price, m.Quantity)
}
