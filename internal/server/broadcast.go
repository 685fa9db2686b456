package server

import (
	"log/slog"

	"github.com/ndrandal/venue-sim/internal/market"
	"github.com/ndrandal/venue-sim/internal/netio"
	"github.com/ndrandal/venue-sim/internal/wire"
)

// Broadcaster fans price updates out over the IPv4 broadcast address.
// Delivery is best-effort: late or lost datagrams are acceptable.
type Broadcaster struct {
	ep *netio.Endpoint[market.TickerPrice, market.TickerPrice]
}

// NewBroadcaster opens the broadcast socket on the given UDP port.
func NewBroadcaster(port int, cfg EndpointConfig, log *slog.Logger) (*Broadcaster, error) {
	conn, err := netio.DialBroadcast(port)
	if err != nil {
		return nil, err
	}
	ep := netio.NewDatagram[market.TickerPrice, market.TickerPrice](conn, wire.DecodeTickerPrice, wire.AppendTickerPrice, netio.Options{
		BufferSize:     cfg.BufferSize,
		MaxMessageSize: cfg.MaxMessageSize,
		Logger:         log,
	})
	return &Broadcaster{ep: ep}, nil
}

// Publish sends one datagram carrying the whole batch.
func (b *Broadcaster) Publish(prices []market.TickerPrice) error {
	return b.ep.Write(prices)
}

// Close releases the socket.
func (b *Broadcaster) Close() error {
	return b.ep.Close()
}
