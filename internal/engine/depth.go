package engine

import . "orderbook/internal/common"

// FlatPriceLevel is a detached copy of a price level and its orders, oldest
// first. Mutating it has no effect on the book.
type FlatPriceLevel struct {
	PriceLevel Price
	Orders     []Order
}

// FlattenLevels copies levels out in the order given.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		orders := make([]Order, 0, level.orders.Len())
		for e := level.orders.Front(); e != nil; e = e.Next() {
			orders = append(orders, *e.Value.(*Order))
		}
		flat = append(flat, FlatPriceLevel{PriceLevel: level.price, Orders: orders})
	}
	return flat
}

// Depth returns both sides of the book order by order, each side in priority
// order.
func (book *OrderBook) Depth() (bids, asks []FlatPriceLevel) {
	return FlattenLevels(book.bids.Items()), FlattenLevels(book.asks.Items())
}
