package engine

import (
	"container/list"
	"errors"
	"fmt"

	. "orderbook/internal/common"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrInvalidSide      = errors.New("invalid side")
	ErrInvalidOrderType = errors.New("invalid order type")
)

// PriceLevel is every order resting at one price, oldest at the front.
// A level only exists while it holds at least one order.
type PriceLevel struct {
	price  Price
	orders *list.List // of *Order
}

func newPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{price: price, orders: list.New()}
}

func (level *PriceLevel) head() *Order {
	return level.orders.Front().Value.(*Order)
}

func (level *PriceLevel) quantity() uint64 {
	var total uint64
	for e := level.orders.Front(); e != nil; e = e.Next() {
		total += uint64(e.Value.(*Order).RemainingQuantity())
	}
	return total
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// orderEntry is where a live order sits. location stays valid until the
// element is removed from level, at which point the entry is deleted too.
type orderEntry struct {
	order    *Order
	level    *PriceLevel
	location *list.Element
}

// OrderBook is a single instrument limit order book matching under
// price-time priority. It is not safe for concurrent use; see Engine.
type OrderBook struct {
	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd.
	bids *PriceLevels
	asks *PriceLevels

	orders map[OrderID]orderEntry

	logger zerolog.Logger
}

func NewOrderBook() *OrderBook {
	return NewOrderBookWithLogger(log.Logger)
}

func NewOrderBookWithLogger(logger zerolog.Logger) *OrderBook {
	opts := btree.Options{NoLocks: true}
	// Sorted greatest first.
	bids := btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
		return a.price > b.price
	}, opts)
	// Sorted least first.
	asks := btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
		return a.price < b.price
	}, opts)
	return &OrderBook{
		bids:   bids,
		asks:   asks,
		orders: make(map[OrderID]orderEntry),
		logger: logger,
	}
}

func (book *OrderBook) levels(side Side) *PriceLevels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

func validate(order *Order) error {
	if !order.Side.Valid() {
		return fmt.Errorf("order %d: %w %d", order.ID, ErrInvalidSide, order.Side)
	}
	if !order.Type.Valid() {
		return fmt.Errorf("order %d: %w %d", order.ID, ErrInvalidOrderType, order.Type)
	}
	if order.InitialQuantity == 0 || order.RemainingQuantity() == 0 {
		return fmt.Errorf("order %d: %w", order.ID, ErrInvalidQuantity)
	}
	return nil
}

// canMatch reports whether an order on side at price would cross the best
// price on the other side.
func (book *OrderBook) canMatch(side Side, price Price) bool {
	if side == Buy {
		bestAsk, ok := book.asks.Min()
		return ok && price >= bestAsk.price
	}
	bestBid, ok := book.bids.Min()
	return ok && price <= bestBid.price
}

// Submit admits an order and runs matching, returning the trades produced.
//
// Malformed orders return an error. A duplicate id, or a fill and kill order
// with nothing to cross against, is dropped silently with no trades.
func (book *OrderBook) Submit(order Order) ([]Trade, error) {
	if err := validate(&order); err != nil {
		return nil, err
	}

	if _, ok := book.orders[order.ID]; ok {
		book.logger.Debug().Uint64("order_id", order.ID).Msg("duplicate order id ignored")
		return nil, nil
	}
	if order.Type == FillAndKill && !book.canMatch(order.Side, order.Price) {
		book.logger.Debug().Uint64("order_id", order.ID).Msg("fill and kill order has no cross")
		return nil, nil
	}

	levels := book.levels(order.Side)
	level, ok := levels.GetMut(&PriceLevel{price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		levels.Set(level)
	}

	resting := &order
	book.orders[order.ID] = orderEntry{
		order:    resting,
		level:    level,
		location: level.orders.PushBack(resting),
	}
	book.logger.Debug().
		Uint64("order_id", order.ID).
		Stringer("side", order.Side).
		Stringer("type", order.Type).
		Int32("price", order.Price).
		Uint32("quantity", order.InitialQuantity).
		Msg("order admitted")

	return book.match(), nil
}

// Cancel removes a resting order. Unknown ids are ignored.
func (book *OrderBook) Cancel(id OrderID) {
	entry, ok := book.orders[id]
	if !ok {
		return
	}
	delete(book.orders, id)

	entry.level.orders.Remove(entry.location)
	if entry.level.orders.Len() == 0 {
		book.levels(entry.order.Side).Delete(entry.level)
	}
	book.logger.Debug().Uint64("order_id", id).Msg("order cancelled")
}

// Modify replaces an order with one carrying the same id and type but the new
// side, price and quantity. The replacement always joins the back of its
// level. Unknown ids are ignored.
func (book *OrderBook) Modify(modify OrderModify) ([]Trade, error) {
	entry, ok := book.orders[modify.ID]
	if !ok {
		return nil, nil
	}

	// Validate before cancelling so a bad modify leaves the order untouched.
	replacement := modify.ToOrder(entry.order.Type)
	if err := validate(&replacement); err != nil {
		return nil, err
	}

	book.Cancel(modify.ID)
	return book.Submit(replacement)
}

// match consumes the top of book price levels while they cross (i.e. bid >=
// ask), matching orders in price-time priority.
func (book *OrderBook) match() []Trade {
	var trades []Trade
	for {
		bestBid, bidOk := book.bids.MinMut()
		bestAsk, askOk := book.asks.MinMut()

		// If either side is empty, or prices don't cross, we are done.
		if !bidOk || !askOk || bestBid.price < bestAsk.price {
			break
		}

		for bestBid.orders.Len() > 0 && bestAsk.orders.Len() > 0 {
			bid := bestBid.head()
			ask := bestAsk.head()

			quantity := min(bid.RemainingQuantity(), ask.RemainingQuantity())
			bid.Fill(quantity)
			ask.Fill(quantity)

			trades = append(trades, Trade{
				Bid: TradeInfo{OrderID: bid.ID, Price: bid.Price, Quantity: quantity},
				Ask: TradeInfo{OrderID: ask.ID, Price: ask.Price, Quantity: quantity},
			})
			book.logger.Debug().
				Uint64("bid_id", bid.ID).
				Uint64("ask_id", ask.ID).
				Int32("bid_price", bid.Price).
				Int32("ask_price", ask.Price).
				Uint32("quantity", quantity).
				Msg("trade")

			if bid.IsFilled() {
				bestBid.orders.Remove(bestBid.orders.Front())
				delete(book.orders, bid.ID)
			}
			if ask.IsFilled() {
				bestAsk.orders.Remove(bestAsk.orders.Front())
				delete(book.orders, ask.ID)
			}
		}

		// Full consumption cases (i.e. empty levels).
		if bestBid.orders.Len() == 0 {
			book.bids.Delete(bestBid)
		}
		if bestAsk.orders.Len() == 0 {
			book.asks.Delete(bestAsk)
		}
	}

	// Only the new top of each side is inspected. A fill and kill order sat
	// there could not be filled any further and must not rest.
	book.purgeFillAndKill(book.bids)
	book.purgeFillAndKill(book.asks)

	return trades
}

func (book *OrderBook) purgeFillAndKill(levels *PriceLevels) {
	level, ok := levels.Min()
	if !ok {
		return
	}
	if order := level.head(); order.Type == FillAndKill {
		book.logger.Debug().
			Uint64("order_id", order.ID).
			Uint32("remaining", order.RemainingQuantity()).
			Msg("fill and kill remainder purged")
		book.Cancel(order.ID)
	}
}

// Size is the number of resting orders on both sides.
func (book *OrderBook) Size() int {
	return len(book.orders)
}

// BestBid returns the highest resting buy price.
func (book *OrderBook) BestBid() (Price, bool) {
	level, ok := book.bids.Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

// BestAsk returns the lowest resting sell price.
func (book *OrderBook) BestAsk() (Price, bool) {
	level, ok := book.asks.Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

// Levels aggregates the remaining quantity per price on each side, in
// priority order. It is recomputed on every call.
func (book *OrderBook) Levels() LevelInfos {
	collect := func(levels *PriceLevels) []LevelInfo {
		infos := make([]LevelInfo, 0, levels.Len())
		levels.Scan(func(level *PriceLevel) bool {
			infos = append(infos, LevelInfo{Price: level.price, Quantity: level.quantity()})
			return true
		})
		return infos
	}
	return LevelInfos{Bids: collect(book.bids), Asks: collect(book.asks)}
}
