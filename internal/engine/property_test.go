package engine_test

import (
	"testing"

	. "orderbook/internal/common"
	"orderbook/internal/engine"

	"github.com/rs/zerolog"
	"pgregory.net/rapid"
)

// restingOrders indexes every order in the book by id.
func restingOrders(book *engine.OrderBook) map[OrderID]Order {
	orders := make(map[OrderID]Order)
	bids, asks := book.Depth()
	for _, level := range append(bids, asks...) {
		for _, order := range level.Orders {
			orders[order.ID] = order
		}
	}
	return orders
}

func totalRemaining(book *engine.OrderBook) uint64 {
	var total uint64
	levels := book.Levels()
	for _, level := range append(levels.Bids, levels.Asks...) {
		total += level.Quantity
	}
	return total
}

func checkBook(t *rapid.T, book *engine.OrderBook) {
	bid, bidOk := book.BestBid()
	ask, askOk := book.BestAsk()
	if bidOk && askOk && bid >= ask {
		t.Fatalf("book is crossed: best bid %d >= best ask %d", bid, ask)
	}

	orders := restingOrders(book)
	if len(orders) != book.Size() {
		t.Fatalf("size %d but %d orders rest in levels", book.Size(), len(orders))
	}
	for _, order := range orders {
		if order.Type == FillAndKill {
			t.Fatalf("fill and kill order %d is resting", order.ID)
		}
		if order.IsFilled() {
			t.Fatalf("filled order %d is resting", order.ID)
		}
	}

	levels := book.Levels()
	for _, level := range append(levels.Bids, levels.Asks...) {
		if level.Quantity == 0 {
			t.Fatalf("empty level at %d", level.Price)
		}
	}
}

func checkTrades(t *rapid.T, trades []Trade) uint64 {
	var traded uint64
	for _, trade := range trades {
		if trade.Bid.Quantity == 0 || trade.Bid.Quantity != trade.Ask.Quantity {
			t.Fatalf("unbalanced trade %v", trade)
		}
		if trade.Bid.Price < trade.Ask.Price {
			t.Fatalf("trade below the bid: %v", trade)
		}
		traded += uint64(trade.Bid.Quantity)
	}
	return traded
}

func TestProperty_BookInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		book := engine.NewOrderBookWithLogger(zerolog.Nop())
		steps := rapid.IntRange(1, 150).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			id := OrderID(rapid.IntRange(1, 30).Draw(t, "id"))
			side := rapid.SampledFrom([]Side{Buy, Sell}).Draw(t, "side")
			price := Price(rapid.IntRange(95, 105).Draw(t, "price"))
			qty := Quantity(rapid.IntRange(1, 50).Draw(t, "qty"))

			before := totalRemaining(book)
			existing, known := restingOrders(book)[id]

			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0, 1, 2, 3:
				trades, err := book.Submit(NewOrder(GoodTillCancel, id, side, price, qty))
				if err != nil {
					t.Fatalf("submit: %v", err)
				}
				traded := checkTrades(t, trades)
				want := before + uint64(qty) - 2*traded
				if known {
					want = before
				}
				if got := totalRemaining(book); got != want {
					t.Fatalf("quantity not conserved: want %d got %d", want, got)
				}
			case 4, 5:
				trades, err := book.Submit(NewOrder(FillAndKill, id, side, price, qty))
				if err != nil {
					t.Fatalf("submit: %v", err)
				}
				traded := checkTrades(t, trades)
				// The unfilled remainder never rests.
				if got := totalRemaining(book); got != before-traded {
					t.Fatalf("quantity not conserved: want %d got %d", before-traded, got)
				}
			case 6, 7:
				book.Cancel(id)
				book.Cancel(id)
				want := before
				if known {
					want -= uint64(existing.RemainingQuantity())
				}
				if got := totalRemaining(book); got != want {
					t.Fatalf("cancel: want %d got %d", want, got)
				}
				if _, ok := restingOrders(book)[id]; ok {
					t.Fatalf("order %d survived cancel", id)
				}
			default:
				trades, err := book.Modify(OrderModify{ID: id, Side: side, Price: price, Quantity: qty})
				if err != nil {
					t.Fatalf("modify: %v", err)
				}
				traded := checkTrades(t, trades)
				want := before
				if known {
					want = before - uint64(existing.RemainingQuantity()) + uint64(qty) - 2*traded
				} else if len(trades) > 0 {
					t.Fatalf("modify of unknown order %d traded", id)
				}
				if got := totalRemaining(book); got != want {
					t.Fatalf("modify: want %d got %d", want, got)
				}
			}

			checkBook(t, book)
		}
	})
}

func TestProperty_TimePriority(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		book := engine.NewOrderBookWithLogger(zerolog.Nop())
		quantities := rapid.SliceOfN(rapid.Uint32Range(1, 20), 1, 20).Draw(t, "quantities")

		var total Quantity
		for i, qty := range quantities {
			if _, err := book.Submit(NewOrder(GoodTillCancel, OrderID(i+1), Sell, 100, qty)); err != nil {
				t.Fatalf("submit: %v", err)
			}
			total += qty
		}

		take := Quantity(rapid.IntRange(1, int(total)).Draw(t, "take"))
		trades, err := book.Submit(NewOrder(GoodTillCancel, 1000, Buy, 100, take))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		// Orders are consumed oldest first, each fully before the next.
		left := take
		for i, trade := range trades {
			if trade.Ask.OrderID != OrderID(i+1) {
				t.Fatalf("trade %d hit order %d", i, trade.Ask.OrderID)
			}
			want := min(left, quantities[i])
			if trade.Ask.Quantity != want {
				t.Fatalf("trade %d: want %d got %d", i, want, trade.Ask.Quantity)
			}
			left -= want
		}
		if left != 0 {
			t.Fatalf("%d left unmatched", left)
		}
	})
}
