// Package book implements the per-ticker order book: price-level ladders,
// the match loop, and the busy-flag concurrency discipline.
package book

import (
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/ndrandal/venue-sim/internal/market"
)

// level holds the resting orders at one price in insertion order; Match
// trades from the tail, newest first.
type level struct {
	price  market.Price
	orders []market.Order
}

// Book is the order book for a single instrument. Bids are kept best-first
// (descending price), asks best-first (ascending price). All mutation must
// happen between a successful TryAcquire and its Release.
type Book struct {
	ticker market.Ticker
	limit  int
	log    *slog.Logger

	busy atomic.Bool

	bids []level
	asks []level

	// lastAdded holds ids filed since the previous Match call. Only these
	// orders produce fill notifications; resting liquidity from earlier
	// batches trades silently.
	lastAdded map[market.OrderID]struct{}
}

// New creates an empty book. limit caps the number of price levels per side.
func New(ticker market.Ticker, limit int, log *slog.Logger) *Book {
	if log == nil {
		log = slog.Default()
	}
	return &Book{
		ticker:    ticker,
		limit:     limit,
		log:       log,
		lastAdded: make(map[market.OrderID]struct{}),
	}
}

// Ticker returns the instrument this book trades.
func (b *Book) Ticker() market.Ticker {
	return b.ticker
}

// TryAcquire claims the book for exclusive mutation. It never blocks; a
// false return means another task holds the book and the caller must defer.
func (b *Book) TryAcquire() bool {
	return b.busy.CompareAndSwap(false, true)
}

// Release returns the book after a successful TryAcquire.
func (b *Book) Release() {
	b.busy.Store(false)
}

// Add files a batch of orders into their price levels. An order that would
// create a level beyond the per-side limit is rejected: logged, dropped,
// and never visible to the client. Zero-quantity orders are likewise
// dropped; they could never leave the match loop.
func (b *Book) Add(orders []market.Order) {
	for i := range orders {
		b.add(orders[i])
	}
}

func (b *Book) add(o market.Order) {
	if o.Quantity == 0 {
		b.log.Error("zero quantity order dropped", "ticker", b.ticker.String(), "order", uint32(o.ID))
		return
	}
	side := &b.bids
	descending := true
	if o.Side == market.Sell {
		side = &b.asks
		descending = false
	}

	idx, found := findLevel(*side, o.Price, descending)
	if !found {
		if len(*side) >= b.limit {
			b.log.Error("book limit reached", "ticker", b.ticker.String(), "order", uint32(o.ID))
			return
		}
		lvl := level{price: o.Price, orders: make([]market.Order, 0, b.limit)}
		*side = append(*side, level{})
		copy((*side)[idx+1:], (*side)[idx:])
		(*side)[idx] = lvl
	}
	(*side)[idx].orders = append((*side)[idx].orders, o)
	b.lastAdded[o.ID] = struct{}{}
}

// findLevel locates the ladder slot for price, returning the insertion
// index and whether the level already exists.
func findLevel(side []level, price market.Price, descending bool) (int, bool) {
	idx := sort.Search(len(side), func(i int) bool {
		if descending {
			return side[i].price <= price
		}
		return side[i].price >= price
	})
	return idx, idx < len(side) && side[idx].price == price
}

// Match crosses the book while the best bid meets the best ask. Within a
// level the newest order trades first (tail pop). The fill price is the
// resting ask's price. Each participant in the last-added set receives one
// OrderStatus per counterparty trade; all other participants trade
// silently. The last-added set is cleared before returning.
func (b *Book) Match() []market.OrderStatus {
	var fills []market.OrderStatus
	for len(b.bids) > 0 && len(b.asks) > 0 {
		bidLvl := &b.bids[0]
		askLvl := &b.asks[0]
		bid := &bidLvl.orders[len(bidLvl.orders)-1]
		ask := &askLvl.orders[len(askLvl.orders)-1]

		if bid.Price < ask.Price {
			break
		}

		q := min(bid.Quantity, ask.Quantity)
		bid.Quantity -= q
		ask.Quantity -= q

		if _, ok := b.lastAdded[bid.ID]; ok {
			fills = append(fills, fill(*bid, q, ask.Price))
		}
		if _, ok := b.lastAdded[ask.ID]; ok {
			fills = append(fills, fill(*ask, q, ask.Price))
		}

		if bid.Quantity == 0 {
			bidLvl.orders = bidLvl.orders[:len(bidLvl.orders)-1]
			if len(bidLvl.orders) == 0 {
				b.bids = append(b.bids[:0], b.bids[1:]...)
			}
		}
		if ask.Quantity == 0 {
			askLvl.orders = askLvl.orders[:len(askLvl.orders)-1]
			if len(askLvl.orders) == 0 {
				b.asks = append(b.asks[:0], b.asks[1:]...)
			}
		}
	}
	clear(b.lastAdded)
	return fills
}

// fill builds the notification for one trade. The order's quantity has
// already been decremented, so zero remaining means the fill completed it.
func fill(o market.Order, q market.Quantity, price market.Price) market.OrderStatus {
	state := market.Partial
	if o.Quantity == 0 {
		state = market.Full
	}
	return market.OrderStatus{
		OrderID:      o.ID,
		TraderID:     o.TraderID,
		Ticker:       o.Ticker,
		Side:         o.Side,
		FillPrice:    price,
		FillQuantity: q,
		State:        state,
	}
}

// BidLevels returns the number of bid price levels.
func (b *Book) BidLevels() int {
	return len(b.bids)
}

// AskLevels returns the number of ask price levels.
func (b *Book) AskLevels() int {
	return len(b.asks)
}

// BestBid returns the highest bid price, if any bids rest.
func (b *Book) BestBid() (market.Price, bool) {
	if len(b.bids) == 0 {
		return 0, false
	}
	return b.bids[0].price, true
}

// BestAsk returns the lowest ask price, if any asks rest.
func (b *Book) BestAsk() (market.Price, bool) {
	if len(b.asks) == 0 {
		return 0, false
	}
	return b.asks[0].price, true
}

// RestingBids returns a snapshot of all resting bids, best level first.
func (b *Book) RestingBids() []market.Order {
	return flatten(b.bids)
}

// RestingAsks returns a snapshot of all resting asks, best level first.
func (b *Book) RestingAsks() []market.Order {
	return flatten(b.asks)
}

func flatten(side []level) []market.Order {
	var out []market.Order
	for i := range side {
		out = append(out, side[i].orders...)
	}
	return out
}
