// Package wire implements the binary message codec. Each encoded body is a
// 1-byte type tag followed by fixed-width little-endian fields; framing (the
// 2-byte length prefix) is the transport layer's job, not the codec's.
//
// Body layouts:
//
//	Order       (26): Type(1) + TraderID(4) + OrderID(4) + Ticker(8) + Quantity(4) + Price(4) + Side(1)
//	OrderStatus (27): Type(1) + OrderID(4) + TraderID(4) + Ticker(8) + Side(1) + FillPrice(4) + FillQuantity(4) + State(1)
//	TickerPrice (13): Type(1) + Ticker(8) + Price(4)
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ndrandal/venue-sim/internal/market"
)

// Message type tags.
const (
	TypeOrder       byte = 'O'
	TypeOrderStatus byte = 'F'
	TypeTickerPrice byte = 'P'
)

// Encoded body sizes.
const (
	OrderSize       = 1 + 4 + 4 + market.TickerSize + 4 + 4 + 1
	OrderStatusSize = 1 + 4 + 4 + market.TickerSize + 1 + 4 + 4 + 1
	TickerPriceSize = 1 + market.TickerSize + 4
)

// MaxMessageSize is the upper bound on any encoded message body.
const MaxMessageSize = 64

var (
	ErrBadLength = errors.New("wire: bad body length")
	ErrBadType   = errors.New("wire: unexpected message type")
	ErrBadField  = errors.New("wire: field out of range")
)

// AppendOrder appends the encoded order body to dst and returns the
// extended slice.
func AppendOrder(dst []byte, o market.Order) []byte {
	dst = append(dst, TypeOrder)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(o.TraderID))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(o.ID))
	dst = append(dst, o.Ticker[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(o.Quantity))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(o.Price))
	return append(dst, byte(o.Side))
}

// DecodeOrder decodes an order body. It never reads past the supplied slice
// and rejects bodies whose tag, length, or enum fields do not validate.
func DecodeOrder(body []byte) (market.Order, error) {
	var o market.Order
	if len(body) != OrderSize {
		return o, fmt.Errorf("%w: order body %d bytes", ErrBadLength, len(body))
	}
	if body[0] != TypeOrder {
		return o, fmt.Errorf("%w: 0x%02x", ErrBadType, body[0])
	}
	o.TraderID = market.TraderID(binary.LittleEndian.Uint32(body[1:5]))
	o.ID = market.OrderID(binary.LittleEndian.Uint32(body[5:9]))
	copy(o.Ticker[:], body[9:9+market.TickerSize])
	o.Quantity = market.Quantity(binary.LittleEndian.Uint32(body[17:21]))
	o.Price = market.Price(binary.LittleEndian.Uint32(body[21:25]))
	if body[25] > byte(market.Sell) {
		return market.Order{}, fmt.Errorf("%w: side 0x%02x", ErrBadField, body[25])
	}
	o.Side = market.Side(body[25])
	return o, nil
}

// AppendOrderStatus appends the encoded fill body to dst and returns the
// extended slice.
func AppendOrderStatus(dst []byte, s market.OrderStatus) []byte {
	dst = append(dst, TypeOrderStatus)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(s.OrderID))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(s.TraderID))
	dst = append(dst, s.Ticker[:]...)
	dst = append(dst, byte(s.Side))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(s.FillPrice))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(s.FillQuantity))
	return append(dst, byte(s.State))
}

// DecodeOrderStatus decodes a fill body.
func DecodeOrderStatus(body []byte) (market.OrderStatus, error) {
	var s market.OrderStatus
	if len(body) != OrderStatusSize {
		return s, fmt.Errorf("%w: status body %d bytes", ErrBadLength, len(body))
	}
	if body[0] != TypeOrderStatus {
		return s, fmt.Errorf("%w: 0x%02x", ErrBadType, body[0])
	}
	s.OrderID = market.OrderID(binary.LittleEndian.Uint32(body[1:5]))
	s.TraderID = market.TraderID(binary.LittleEndian.Uint32(body[5:9]))
	copy(s.Ticker[:], body[9:9+market.TickerSize])
	if body[17] > byte(market.Sell) {
		return market.OrderStatus{}, fmt.Errorf("%w: side 0x%02x", ErrBadField, body[17])
	}
	s.Side = market.Side(body[17])
	s.FillPrice = market.Price(binary.LittleEndian.Uint32(body[18:22]))
	s.FillQuantity = market.Quantity(binary.LittleEndian.Uint32(body[22:26]))
	if body[26] > byte(market.Full) {
		return market.OrderStatus{}, fmt.Errorf("%w: state 0x%02x", ErrBadField, body[26])
	}
	s.State = market.OrderState(body[26])
	return s, nil
}

// AppendTickerPrice appends the encoded price update body to dst and
// returns the extended slice.
func AppendTickerPrice(dst []byte, tp market.TickerPrice) []byte {
	dst = append(dst, TypeTickerPrice)
	dst = append(dst, tp.Ticker[:]...)
	return binary.LittleEndian.AppendUint32(dst, uint32(tp.Price))
}

// DecodeTickerPrice decodes a price update body.
func DecodeTickerPrice(body []byte) (market.TickerPrice, error) {
	var tp market.TickerPrice
	if len(body) != TickerPriceSize {
		return tp, fmt.Errorf("%w: price body %d bytes", ErrBadLength, len(body))
	}
	if body[0] != TypeTickerPrice {
		return tp, fmt.Errorf("%w: 0x%02x", ErrBadType, body[0])
	}
	copy(tp.Ticker[:], body[1:1+market.TickerSize])
	tp.Price = market.Price(binary.LittleEndian.Uint32(body[9:13]))
	return tp, nil
}
