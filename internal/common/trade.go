package common

import "fmt"

// TradeInfo is one leg of a trade, reported at the order's own book price.
type TradeInfo struct {
	OrderID  OrderID
	Price    Price
	Quantity Quantity
}

// Trade accounts for the two parties who matched.
type Trade struct {
	Bid TradeInfo
	Ask TradeInfo
}

func (t Trade) String() string {
	return fmt.Sprintf("bid %d %d@%d / ask %d %d@%d",
		t.Bid.OrderID, t.Bid.Quantity, t.Bid.Price,
		t.Ask.OrderID, t.Ask.Quantity, t.Ask.Price,
	)
}

// LevelInfo is the aggregate remaining quantity resting at one price.
type LevelInfo struct {
	Price    Price
	Quantity uint64
}

// LevelInfos holds both sides of the book, each in priority order.
type LevelInfos struct {
	Bids []LevelInfo
	Asks []LevelInfo
}
