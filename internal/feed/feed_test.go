package feed

import (
	"testing"
	"time"

	"github.com/ndrandal/venue-sim/internal/market"
	"github.com/ndrandal/venue-sim/internal/rng"
)

type capturePublisher struct {
	batches [][]market.TickerPrice
}

func (p *capturePublisher) Publish(prices []market.TickerPrice) error {
	batch := make([]market.TickerPrice, len(prices))
	copy(batch, prices)
	p.batches = append(p.batches, batch)
	return nil
}

func testView() *market.PricesView {
	return market.NewPricesView([]market.Instrument{
		{Ticker: market.ParseTicker("AAAA"), BasePrice: 100},
		{Ticker: market.ParseTicker("BBBB"), BasePrice: 200},
		{Ticker: market.ParseTicker("CCCC"), BasePrice: 300},
	}, nil)
}

func TestTickDrawsBoundedPrices(t *testing.T) {
	view := testView()
	pub := &capturePublisher{}
	f := New(view, pub, rng.New(1), time.Millisecond, nil)

	f.tick()

	if len(pub.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(pub.batches))
	}
	batch := pub.batches[0]
	if len(batch) != tickersPerUpdate {
		t.Fatalf("batch size = %d, want %d", len(batch), tickersPerUpdate)
	}
	// Three tickers, five updates: the cursor wraps mid-tick, so a ticker can
	// be drawn twice in one batch and the view holds its last draw.
	last := make(map[market.Ticker]market.Price)
	for _, tp := range batch {
		if tp.Price >= priceSpan {
			t.Fatalf("price %d for %s outside [0, %d)", tp.Price, tp.Ticker.String(), priceSpan)
		}
		last[tp.Ticker] = tp.Price
	}
	for tk, want := range last {
		if got, ok := view.Price(tk); !ok || got != want {
			t.Fatalf("view price for %s = %d, want %d", tk.String(), got, want)
		}
	}
}

func TestCursorWrapsAcrossTicks(t *testing.T) {
	view := testView()
	pub := &capturePublisher{}
	f := New(view, pub, rng.New(1), time.Millisecond, nil)

	// Three tickers, five updates per tick: every tick walks the full
	// universe and wraps.
	f.tick()
	f.tick()

	seen := make(map[string]int)
	for _, batch := range pub.batches {
		for _, tp := range batch {
			seen[tp.Ticker.String()]++
		}
	}
	for _, name := range []string{"AAAA", "BBBB", "CCCC"} {
		if seen[name] < 2 {
			t.Fatalf("ticker %s updated %d times over two ticks, want >= 2", name, seen[name])
		}
	}
}

func TestStartStop(t *testing.T) {
	view := testView()
	pub := &capturePublisher{}
	f := New(view, pub, rng.New(1), time.Hour, nil)

	if f.Enabled() {
		t.Fatal("feed enabled before Start")
	}
	f.Start()
	if !f.Enabled() {
		t.Fatal("feed not enabled after Start")
	}
	f.Start() // idempotent
	f.Stop()
	if f.Enabled() {
		t.Fatal("feed still enabled after Stop")
	}
	f.Stop() // idempotent

	// A racing expiry after Stop observes the disabled flag and does
	// nothing.
	f.expire()
	if len(pub.batches) != 0 {
		t.Fatalf("batches after stop = %d, want 0", len(pub.batches))
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	f := New(testView(), &capturePublisher{}, rng.New(1), time.Millisecond, nil)
	f.Stop()
}
