// Package market defines the core entities of the venue: tickers, orders,
// fills and price updates. Values here are what travel on the wire and what
// the books operate on.
package market

import (
	"fmt"
	"strings"
	"time"
)

// TickerSize is the fixed width of a ticker symbol, in bytes.
const TickerSize = 8

// Ticker is a fixed-width, space-padded ASCII instrument symbol.
// It is a value type: hashable as a map key and orderable by byte sequence.
type Ticker [TickerSize]byte

// ParseTicker builds a Ticker from a string, right-padding with spaces.
// Strings longer than TickerSize are truncated.
func ParseTicker(s string) Ticker {
	var t Ticker
	n := copy(t[:], s)
	for i := n; i < TickerSize; i++ {
		t[i] = ' '
	}
	return t
}

// String returns the symbol with trailing padding removed.
func (t Ticker) String() string {
	return strings.TrimRight(string(t[:]), " ")
}

// TraderID identifies one live trader session. It is derived once per
// session from the client's remote address.
type TraderID uint32

// OrderID is a monotonic nanosecond timestamp assigned at order creation.
type OrderID uint32

// Price is an instrument price in integer ticks.
type Price uint32

// Quantity is an order size in units.
type Quantity uint32

// NewOrderID returns an order id from the current wall-clock time in
// nanoseconds, truncated to 32 bits.
func NewOrderID() OrderID {
	return OrderID(uint32(time.Now().UnixNano()))
}

// Side is the direction of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// OrderState reports how much of an order a fill completed.
type OrderState uint8

const (
	Partial OrderState = iota
	Full
)

func (s OrderState) String() string {
	switch s {
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Order is a limit order. Once filed into a book the book owns it until the
// quantity reaches zero.
type Order struct {
	TraderID TraderID
	ID       OrderID
	Ticker   Ticker
	Quantity Quantity
	Price    Price
	Side     Side
}

// SetTraderID stamps the order with the session it arrived on.
func (o *Order) SetTraderID(id TraderID) {
	o.TraderID = id
}

// OrderStatus is a fill notification: a partial or complete execution of an
// order against a counterparty.
type OrderStatus struct {
	OrderID      OrderID
	TraderID     TraderID
	Ticker       Ticker
	Side         Side
	FillPrice    Price
	FillQuantity Quantity
	State        OrderState
}

// SetTraderID stamps the status with the session it arrived on.
func (s *OrderStatus) SetTraderID(id TraderID) {
	s.TraderID = id
}

// TickerPrice is a broadcast price update. It carries no trader context.
type TickerPrice struct {
	Ticker Ticker
	Price  Price
}
