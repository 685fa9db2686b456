package server

import (
	"log/slog"
	"runtime"

	"github.com/ndrandal/venue-sim/internal/book"
	"github.com/ndrandal/venue-sim/internal/market"
)

// FillSink consumes the fills produced by one routed batch.
type FillSink func(fills []market.OrderStatus)

// Router owns the ticker → book map, fixed at startup from the instrument
// universe, and drives each inbound batch through the matching cycle.
type Router struct {
	books map[market.Ticker]*book.Book
	sink  FillSink
	log   *slog.Logger
}

// NewRouter builds one book per instrument.
func NewRouter(universe []market.Instrument, bookLimit int, sink FillSink, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	books := make(map[market.Ticker]*book.Book, len(universe))
	for _, ins := range universe {
		books[ins.Ticker] = book.New(ins.Ticker, bookLimit, log)
	}
	return &Router{books: books, sink: sink, log: log}
}

// Book returns the book for a ticker.
func (r *Router) Book(t market.Ticker) (*book.Book, bool) {
	b, ok := r.books[t]
	return b, ok
}

// Route buckets a batch by ticker, runs add+match on each target book
// under its busy flag, and forwards the concatenated fills to the sink.
// Orders for tickers outside the universe are logged and dropped.
func (r *Router) Route(orders []market.Order) {
	buckets := make(map[market.Ticker][]market.Order)
	for i := range orders {
		buckets[orders[i].Ticker] = append(buckets[orders[i].Ticker], orders[i])
	}

	var fills []market.OrderStatus
	for ticker, bucket := range buckets {
		b, ok := r.books[ticker]
		if !ok {
			r.log.Error("unknown ticker", "ticker", ticker.String(), "orders", len(bucket))
			continue
		}
		// Books are effectively uncontended: each session's batch is routed
		// from its own read loop and books are held only for one add+match
		// cycle. Spin rather than block on the rare collision.
		for !b.TryAcquire() {
			runtime.Gosched()
		}
		b.Add(bucket)
		fills = append(fills, b.Match()...)
		b.Release()
	}

	if len(fills) > 0 && r.sink != nil {
		r.sink(fills)
	}
}
