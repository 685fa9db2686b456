package wire

import (
	"errors"
	"testing"

	"github.com/ndrandal/venue-sim/internal/market"
)

func TestOrderRoundTrip(t *testing.T) {
	o := market.Order{
		TraderID: 7,
		ID:       42,
		Ticker:   market.ParseTicker("NEXO"),
		Quantity: 250,
		Price:    1850,
		Side:     market.Sell,
	}
	body := AppendOrder(nil, o)
	if len(body) != OrderSize {
		t.Fatalf("encoded size = %d, want %d", len(body), OrderSize)
	}
	if len(body) > MaxMessageSize {
		t.Fatalf("encoded size = %d exceeds MaxMessageSize", len(body))
	}
	got, err := DecodeOrder(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != o {
		t.Fatalf("round trip = %+v, want %+v", got, o)
	}
}

func TestOrderStatusRoundTrip(t *testing.T) {
	s := market.OrderStatus{
		OrderID:      42,
		TraderID:     7,
		Ticker:       market.ParseTicker("FLUX"),
		Side:         market.Buy,
		FillPrice:    310,
		FillQuantity: 90,
		State:        market.Partial,
	}
	body := AppendOrderStatus(nil, s)
	if len(body) != OrderStatusSize {
		t.Fatalf("encoded size = %d, want %d", len(body), OrderStatusSize)
	}
	got, err := DecodeOrderStatus(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != s {
		t.Fatalf("round trip = %+v, want %+v", got, s)
	}
}

func TestTickerPriceRoundTrip(t *testing.T) {
	tp := market.TickerPrice{Ticker: market.ParseTicker("MKTS"), Price: 899}
	body := AppendTickerPrice(nil, tp)
	if len(body) != TickerPriceSize {
		t.Fatalf("encoded size = %d, want %d", len(body), TickerPriceSize)
	}
	got, err := DecodeTickerPrice(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != tp {
		t.Fatalf("round trip = %+v, want %+v", got, tp)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	body := AppendOrder(nil, market.Order{Ticker: market.ParseTicker("AAAA"), Quantity: 1})
	if _, err := DecodeOrder(body[:len(body)-1]); !errors.Is(err, ErrBadLength) {
		t.Fatalf("short body error = %v, want ErrBadLength", err)
	}
	if _, err := DecodeOrder(append(body, 0)); !errors.Is(err, ErrBadLength) {
		t.Fatalf("long body error = %v, want ErrBadLength", err)
	}
}

func TestDecodeRejectsWrongType(t *testing.T) {
	body := AppendTickerPrice(nil, market.TickerPrice{Ticker: market.ParseTicker("AAAA")})
	if _, err := DecodeTickerPrice(body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	body[0] = TypeOrder
	if _, err := DecodeTickerPrice(body); !errors.Is(err, ErrBadType) {
		t.Fatalf("wrong tag error = %v, want ErrBadType", err)
	}
}

func TestDecodeRejectsBadEnums(t *testing.T) {
	body := AppendOrder(nil, market.Order{Ticker: market.ParseTicker("AAAA"), Quantity: 1})
	body[len(body)-1] = 9 // side
	if _, err := DecodeOrder(body); !errors.Is(err, ErrBadField) {
		t.Fatalf("bad side error = %v, want ErrBadField", err)
	}

	sb := AppendOrderStatus(nil, market.OrderStatus{Ticker: market.ParseTicker("AAAA")})
	sb[len(sb)-1] = 9 // state
	if _, err := DecodeOrderStatus(sb); !errors.Is(err, ErrBadField) {
		t.Fatalf("bad state error = %v, want ErrBadField", err)
	}
}
