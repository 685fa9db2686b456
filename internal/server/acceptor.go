package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/cespare/xxhash/v2"

	"github.com/ndrandal/venue-sim/internal/market"
	"github.com/ndrandal/venue-sim/internal/netio"
	"github.com/ndrandal/venue-sim/internal/wire"
)

// DeriveTraderID hashes the textual remote address (host only, so the
// ingress and egress connections of one client map to the same trader).
func DeriveTraderID(addr net.Addr) market.TraderID {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	return market.TraderID(uint32(xxhash.Sum64String(host)))
}

// EndpointConfig carries the transport tuning shared by both acceptors.
type EndpointConfig struct {
	BufferSize     int
	MaxMessageSize int
}

// IngressAcceptor accepts order-flow connections and feeds decoded batches
// into the router.
type IngressAcceptor struct {
	ln     net.Listener
	router *Router
	cfg    EndpointConfig
	log    *slog.Logger
}

// ListenIngress binds the order ingress listener.
func ListenIngress(port int, router *Router, cfg EndpointConfig, log *slog.Logger) (*IngressAcceptor, error) {
	if log == nil {
		log = slog.Default()
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen ingress :%d: %w", port, err)
	}
	return &IngressAcceptor{ln: ln, router: router, cfg: cfg, log: log}, nil
}

// Serve accepts connections until the listener closes. A single failed
// accept is logged and the loop re-armed.
func (a *IngressAcceptor) Serve(ctx context.Context) error {
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.log.Error("accept failed", "err", err)
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		id := DeriveTraderID(conn.RemoteAddr())
		a.log.Debug("trader connected", "trader", uint32(id), "remote", conn.RemoteAddr().String())

		ep := netio.NewStream[market.Order, market.OrderStatus](conn, wire.DecodeOrder, wire.AppendOrderStatus, netio.Options{
			BufferSize:     a.cfg.BufferSize,
			MaxMessageSize: a.cfg.MaxMessageSize,
			TraderID:       id,
			Logger:         a.log,
		})
		go a.serveConn(ctx, conn, ep, id)
	}
}

func (a *IngressAcceptor) serveConn(ctx context.Context, conn net.Conn, ep *netio.Endpoint[market.Order, market.OrderStatus], id market.TraderID) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	err := ep.ReadLoop(func(batch []market.Order) {
		a.router.Route(batch)
	})
	a.log.Debug("ingress closed", "trader", uint32(id), "err", err)
}

// Addr returns the bound listen address.
func (a *IngressAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// Close shuts the listener down, unblocking Serve.
func (a *IngressAcceptor) Close() error {
	return a.ln.Close()
}

// EgressAcceptor accepts reply connections, registers the session in the
// registry, and tears it down when the trader disconnects.
type EgressAcceptor struct {
	ln       net.Listener
	registry *Registry
	cfg      EndpointConfig
	log      *slog.Logger
}

// ListenEgress binds the reply egress listener.
func ListenEgress(port int, registry *Registry, cfg EndpointConfig, log *slog.Logger) (*EgressAcceptor, error) {
	if log == nil {
		log = slog.Default()
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen egress :%d: %w", port, err)
	}
	return &EgressAcceptor{ln: ln, registry: registry, cfg: cfg, log: log}, nil
}

// Serve accepts connections until the listener closes.
func (a *EgressAcceptor) Serve(ctx context.Context) error {
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			a.log.Error("accept failed", "err", err)
			continue
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
		}
		id := DeriveTraderID(conn.RemoteAddr())

		ep := netio.NewStream[market.Order, market.OrderStatus](conn, wire.DecodeOrder, wire.AppendOrderStatus, netio.Options{
			BufferSize:     a.cfg.BufferSize,
			MaxMessageSize: a.cfg.MaxMessageSize,
			TraderID:       id,
			Logger:         a.log,
		})
		sess := NewSession(id, ep)
		if prev := a.registry.Register(sess); prev != nil {
			a.log.Warn("trader reconnected, replacing session", "trader", uint32(id))
		}
		a.log.Info("session registered", "trader", uint32(id), "remote", conn.RemoteAddr().String())

		go a.serveConn(ctx, conn, ep, sess)
	}
}

// serveConn runs a read loop solely to observe the disconnect; traders do
// not send on the egress stream.
func (a *EgressAcceptor) serveConn(ctx context.Context, conn net.Conn, ep *netio.Endpoint[market.Order, market.OrderStatus], sess *Session) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	err := ep.ReadLoop(func([]market.Order) {})
	a.registry.Remove(sess)
	a.log.Info("session removed", "trader", uint32(sess.TraderID), "err", err)
}

// Addr returns the bound listen address.
func (a *EgressAcceptor) Addr() net.Addr {
	return a.ln.Addr()
}

// Close shuts the listener down, unblocking Serve.
func (a *EgressAcceptor) Close() error {
	return a.ln.Close()
}
