// Package feed drives the synthetic price feed: a timer that walks the
// prices view a few tickers at a time, draws new prices, and hands the
// batch to the broadcast transport.
package feed

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ndrandal/venue-sim/internal/control"
	"github.com/ndrandal/venue-sim/internal/market"
	"github.com/ndrandal/venue-sim/internal/rng"
)

const (
	// tickersPerUpdate is how far the cursor advances on each expiry.
	tickersPerUpdate = 5
	// priceSpan bounds drawn prices to [0, priceSpan).
	priceSpan = 900
)

// Publisher fans a price batch out to subscribers.
type Publisher interface {
	Publish(prices []market.TickerPrice) error
}

// Feed is the price-feed scheduler. The cursor into the ticker universe
// persists across ticks and wraps at the end.
type Feed struct {
	view *market.PricesView
	out  Publisher
	rng  *rng.RNG
	rate time.Duration
	log  *slog.Logger

	enabled atomic.Bool

	mu     sync.Mutex
	timer  *time.Timer
	cursor *market.PriceIterator
}

// New creates a stopped feed ticking every rate once started.
func New(view *market.PricesView, out Publisher, r *rng.RNG, rate time.Duration, log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{
		view:   view,
		out:    out,
		rng:    r,
		rate:   rate,
		log:    log,
		cursor: view.Iterator(),
	}
}

// Register subscribes the feed to its start/stop commands.
func (f *Feed) Register(registry *control.Registry) {
	registry.Handle([]control.Command{control.PriceFeedStart, control.PriceFeedStop}, func(cmd control.Command) {
		switch cmd {
		case control.PriceFeedStart:
			f.Start()
		case control.PriceFeedStop:
			f.Stop()
		}
	})
}

// Start enables the feed and arms the timer. Starting a running feed is a
// no-op.
func (f *Feed) Start() {
	if f.enabled.Swap(true) {
		return
	}
	f.log.Info("price feed started", "rate", f.rate)
	f.schedule()
}

// Stop disables the feed and cancels the timer. An expiry already in
// flight observes the disabled flag and does nothing.
func (f *Feed) Stop() {
	if !f.enabled.Swap(false) {
		return
	}
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.mu.Unlock()
	f.log.Info("price feed stopped")
}

// Enabled reports whether the feed is running.
func (f *Feed) Enabled() bool {
	return f.enabled.Load()
}

func (f *Feed) schedule() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled.Load() {
		return
	}
	f.timer = time.AfterFunc(f.rate, f.expire)
}

func (f *Feed) expire() {
	if !f.enabled.Load() {
		return
	}
	f.tick()
	f.schedule()
}

// tick advances the cursor by tickersPerUpdate tickers, wrapping to the
// first ticker at the end, draws a new price for each, updates the view,
// and publishes the batch. A universe smaller than tickersPerUpdate repeats
// tickers within one batch.
func (f *Feed) tick() {
	updates := make([]market.TickerPrice, 0, tickersPerUpdate)
	f.mu.Lock()
	for i := 0; i < tickersPerUpdate; i++ {
		if f.cursor.End() {
			f.cursor.Reset()
		}
		tp := f.cursor.Next()
		tp.Price = market.Price(f.rng.Uint32n(priceSpan))
		f.view.SetPrice(tp)
		updates = append(updates, tp)
	}
	f.mu.Unlock()

	if err := f.out.Publish(updates); err != nil {
		f.log.Error("price broadcast failed", "err", err)
	}
}
