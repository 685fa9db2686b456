package market

import (
	"log/slog"
	"sync/atomic"
)

// PricesView is a read-write handle onto the per-ticker current price. The
// instrument set is fixed at construction; the only mutable field is the
// current price, stored as a word-sized atomic so readers may observe a
// stale value but never a torn one.
type PricesView struct {
	prices map[Ticker]*atomic.Uint32
	order  []Ticker
	log    *slog.Logger
}

// NewPricesView seeds a view from the instrument universe, with each current
// price starting at the instrument's base price.
func NewPricesView(instruments []Instrument, log *slog.Logger) *PricesView {
	if log == nil {
		log = slog.Default()
	}
	v := &PricesView{
		prices: make(map[Ticker]*atomic.Uint32, len(instruments)),
		order:  make([]Ticker, 0, len(instruments)),
		log:    log,
	}
	for _, ins := range instruments {
		p := new(atomic.Uint32)
		p.Store(uint32(ins.BasePrice))
		v.prices[ins.Ticker] = p
		v.order = append(v.order, ins.Ticker)
	}
	return v
}

// Price returns the current price for a ticker. The second return is false
// when the ticker is not part of the universe.
func (v *PricesView) Price(t Ticker) (Price, bool) {
	p, ok := v.prices[t]
	if !ok {
		v.log.Error("ticker not found", "ticker", t.String())
		return 0, false
	}
	return Price(p.Load()), true
}

// SetPrice updates the current price for a ticker. Updates for unknown
// tickers are logged and ignored.
func (v *PricesView) SetPrice(tp TickerPrice) {
	p, ok := v.prices[tp.Ticker]
	if !ok {
		v.log.Error("ticker not found", "ticker", tp.Ticker.String())
		return
	}
	p.Store(uint32(tp.Price))
}

// Len returns the number of tickers in the view.
func (v *PricesView) Len() int {
	return len(v.order)
}

// Iterator returns a restartable cursor over (ticker, current price) pairs
// in a stable order.
func (v *PricesView) Iterator() *PriceIterator {
	return &PriceIterator{view: v}
}

// PriceIterator walks the prices view one ticker at a time. The cursor
// persists across calls and is reset explicitly by the caller on wrap.
type PriceIterator struct {
	view   *PricesView
	cursor int
}

// Reset moves the cursor back to the first ticker.
func (it *PriceIterator) Reset() {
	it.cursor = 0
}

// End reports whether the cursor has passed the last ticker.
func (it *PriceIterator) End() bool {
	return it.cursor >= len(it.view.order)
}

// Next yields the pair under the cursor and advances. Calling Next at the
// end returns a zero TickerPrice.
func (it *PriceIterator) Next() TickerPrice {
	if it.End() {
		return TickerPrice{}
	}
	t := it.view.order[it.cursor]
	it.cursor++
	return TickerPrice{Ticker: t, Price: Price(it.view.prices[t].Load())}
}
