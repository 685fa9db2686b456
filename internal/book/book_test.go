package book

import (
	"testing"

	"github.com/ndrandal/venue-sim/internal/market"
)

var tkr = market.ParseTicker("AAAA")

func newBook(limit int) *Book {
	return New(tkr, limit, nil)
}

func order(id market.OrderID, side market.Side, qty market.Quantity, price market.Price) market.Order {
	return market.Order{
		TraderID: market.TraderID(uint32(id) + 1000),
		ID:       id,
		Ticker:   tkr,
		Quantity: qty,
		Price:    price,
		Side:     side,
	}
}

func TestSingleCross(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{
		order(1, market.Buy, 10, 100),
		order(2, market.Sell, 10, 90),
	})
	fills := b.Match()

	if len(fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(fills))
	}
	for _, f := range fills {
		if f.FillQuantity != 10 {
			t.Fatalf("fill quantity = %d, want 10", f.FillQuantity)
		}
		if f.FillPrice != 90 {
			t.Fatalf("fill price = %d, want 90 (resting ask)", f.FillPrice)
		}
		if f.State != market.Full {
			t.Fatalf("state = %v, want full", f.State)
		}
	}
	if fills[0].OrderID != 1 || fills[1].OrderID != 2 {
		t.Fatalf("fill order ids = %d,%d, want 1,2", fills[0].OrderID, fills[1].OrderID)
	}
	if b.BidLevels() != 0 || b.AskLevels() != 0 {
		t.Fatalf("book not empty: %d bid levels, %d ask levels", b.BidLevels(), b.AskLevels())
	}
}

func TestPartialFill(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{
		order(1, market.Buy, 10, 100),
		order(2, market.Sell, 4, 95),
	})
	fills := b.Match()

	if len(fills) != 2 {
		t.Fatalf("fills = %d, want 2", len(fills))
	}
	if fills[0].OrderID != 1 || fills[0].State != market.Partial || fills[0].FillQuantity != 4 || fills[0].FillPrice != 95 {
		t.Fatalf("bid fill = %+v, want id=1 partial 4 @ 95", fills[0])
	}
	if fills[1].OrderID != 2 || fills[1].State != market.Full || fills[1].FillQuantity != 4 || fills[1].FillPrice != 95 {
		t.Fatalf("ask fill = %+v, want id=2 full 4 @ 95", fills[1])
	}

	rest := b.RestingBids()
	if len(rest) != 1 || rest[0].ID != 1 || rest[0].Quantity != 6 || rest[0].Price != 100 {
		t.Fatalf("resting bids = %+v, want one order id=1 q=6 p=100", rest)
	}
	if b.AskLevels() != 0 {
		t.Fatalf("ask levels = %d, want 0", b.AskLevels())
	}
}

func TestNoCross(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{
		order(1, market.Buy, 5, 90),
		order(2, market.Sell, 5, 100),
	})
	fills := b.Match()

	if len(fills) != 0 {
		t.Fatalf("fills = %d, want 0", len(fills))
	}
	if len(b.RestingBids()) != 1 || len(b.RestingAsks()) != 1 {
		t.Fatal("both orders should remain resting")
	}
}

func TestLevelLimit(t *testing.T) {
	b := newBook(4)
	for i := 0; i < 5; i++ {
		b.Add([]market.Order{order(market.OrderID(i+1), market.Buy, 10, market.Price(100+i))})
	}
	if b.BidLevels() != 4 {
		t.Fatalf("bid levels = %d, want 4", b.BidLevels())
	}
	// The rejected order must not rest anywhere.
	for _, o := range b.RestingBids() {
		if o.Price == 104 {
			t.Fatal("order beyond the level limit was filed")
		}
	}
}

func TestLevelLimitAllowsExistingLevel(t *testing.T) {
	b := newBook(2)
	b.Add([]market.Order{
		order(1, market.Buy, 10, 100),
		order(2, market.Buy, 10, 101),
		order(3, market.Buy, 10, 100), // existing level, not a new one
	})
	if b.BidLevels() != 2 {
		t.Fatalf("bid levels = %d, want 2", b.BidLevels())
	}
	if got := len(b.RestingBids()); got != 3 {
		t.Fatalf("resting bids = %d, want 3", got)
	}
}

func TestRestingOrdersTradeSilently(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{order(1, market.Buy, 10, 100)})
	if fills := b.Match(); len(fills) != 0 {
		t.Fatalf("fills = %d, want 0", len(fills))
	}

	// Order 1 now rests from a previous cycle; only the incoming ask is in
	// the last-added set.
	b.Add([]market.Order{order(2, market.Sell, 10, 90)})
	fills := b.Match()
	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1 (resting bid is silent)", len(fills))
	}
	if fills[0].OrderID != 2 {
		t.Fatalf("fill order id = %d, want 2", fills[0].OrderID)
	}
}

func TestOneFillPerCounterpartyTrade(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{
		order(1, market.Sell, 4, 90),
		order(2, market.Sell, 6, 90),
		order(3, market.Buy, 10, 100),
	})
	fills := b.Match()

	// The bid trades against two asks: two fills for the bid, one each for
	// the asks.
	var bidFills, askFills int
	var bidQty market.Quantity
	for _, f := range fills {
		switch f.OrderID {
		case 3:
			bidFills++
			bidQty += f.FillQuantity
		default:
			askFills++
			if f.State != market.Full {
				t.Fatalf("ask fill state = %v, want full", f.State)
			}
		}
		if f.FillPrice != 90 {
			t.Fatalf("fill price = %d, want 90", f.FillPrice)
		}
		if f.FillQuantity == 0 {
			t.Fatal("zero-quantity fill emitted")
		}
	}
	if bidFills != 2 || askFills != 2 {
		t.Fatalf("bid fills = %d, ask fills = %d, want 2 and 2", bidFills, askFills)
	}
	if bidQty != 10 {
		t.Fatalf("bid filled quantity = %d, want 10", bidQty)
	}
	if b.BidLevels() != 0 || b.AskLevels() != 0 {
		t.Fatal("book should be empty after the sweep")
	}
}

func TestTailOfLevelTradesFirst(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{
		order(1, market.Buy, 5, 100),
		order(2, market.Buy, 5, 100),
		order(3, market.Sell, 5, 100),
	})
	fills := b.Match()

	for _, f := range fills {
		if f.OrderID == 1 {
			t.Fatal("head of the level traded; the newest order should trade first")
		}
	}
	rest := b.RestingBids()
	if len(rest) != 1 || rest[0].ID != 1 {
		t.Fatalf("resting bids = %+v, want only order 1", rest)
	}
}

func TestMatchClearsLastAdded(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{order(1, market.Buy, 5, 100)})
	b.Match()
	// Nothing new since the last cycle: a cross now produces only the ask's
	// fill, proving order 1 left the last-added set.
	b.Add([]market.Order{order(2, market.Sell, 5, 100)})
	fills := b.Match()
	if len(fills) != 1 || fills[0].OrderID != 2 {
		t.Fatalf("fills = %+v, want only order 2", fills)
	}
}

func TestLaddersStayOrdered(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{
		order(1, market.Buy, 1, 95),
		order(2, market.Buy, 1, 99),
		order(3, market.Buy, 1, 97),
		order(4, market.Sell, 1, 120),
		order(5, market.Sell, 1, 110),
		order(6, market.Sell, 1, 115),
	})
	if best, _ := b.BestBid(); best != 99 {
		t.Fatalf("best bid = %d, want 99", best)
	}
	if best, _ := b.BestAsk(); best != 110 {
		t.Fatalf("best ask = %d, want 110", best)
	}
	if fills := b.Match(); len(fills) != 0 {
		t.Fatalf("fills = %d, want 0", len(fills))
	}
	// At rest no crossing pair may exist.
	bb, _ := b.BestBid()
	ba, _ := b.BestAsk()
	if bb >= ba {
		t.Fatalf("book at rest is crossed: best bid %d >= best ask %d", bb, ba)
	}
}

func TestZeroQuantityOrderDropped(t *testing.T) {
	b := newBook(16)
	b.Add([]market.Order{order(1, market.Buy, 0, 100)})
	if b.BidLevels() != 0 {
		t.Fatal("zero-quantity order was filed")
	}
}

func TestTryAcquire(t *testing.T) {
	b := newBook(16)
	if !b.TryAcquire() {
		t.Fatal("first TryAcquire failed")
	}
	if b.TryAcquire() {
		t.Fatal("second TryAcquire succeeded while held")
	}
	b.Release()
	if !b.TryAcquire() {
		t.Fatal("TryAcquire after Release failed")
	}
	b.Release()
}

func TestFillCountBoundedByCrossings(t *testing.T) {
	b := newBook(16)
	var orders []market.Order
	for i := 0; i < 6; i++ {
		orders = append(orders, order(market.OrderID(i+1), market.Buy, 1, 100))
		orders = append(orders, order(market.OrderID(i+100), market.Sell, 1, 100))
	}
	b.Add(orders)
	fills := b.Match()
	// 6 crossings, all participants freshly added: at most two fills each.
	if len(fills) > 12 {
		t.Fatalf("fills = %d, want <= 12", len(fills))
	}
	if len(fills) != 12 {
		t.Fatalf("fills = %d, want 12 (every participant notified)", len(fills))
	}
}
