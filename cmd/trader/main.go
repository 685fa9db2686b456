// Command trader is the venue's test client. It connects to the order
// ingress and reply egress ports, listens for the UDP price broadcast, and
// generates random order flow over the instrument universe while printing
// every fill and price update it receives.
//
// Usage:
//
//	trader                              # defaults from configs/venue.yaml
//	trader -config my.yaml              # custom config
//	trader -quiet-prices                # suppress price update output
//	trader -stats 10                    # print message rate stats every N seconds
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ndrandal/venue-sim/internal/config"
	"github.com/ndrandal/venue-sim/internal/market"
	"github.com/ndrandal/venue-sim/internal/netio"
	"github.com/ndrandal/venue-sim/internal/rng"
	"github.com/ndrandal/venue-sim/internal/wire"
)

func main() {
	cfgPath := flag.String("config", "configs/venue.yaml", "Path to the config file")
	quietPrices := flag.Bool("quiet-prices", false, "Do not print price updates")
	statsInterval := flag.Int("stats", 0, "Print message rate stats every N seconds (0 = off)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("shutting down...")
		cancel()
	}()

	opts := netio.Options{BufferSize: cfg.BufferSize, MaxMessageSize: cfg.MaxMessageSize}

	// Order ingress: we only write here.
	inConn, err := netio.Dial(ctx, fmt.Sprintf("%s:%d", cfg.Trader.ServerHost, cfg.PortTCPIn))
	if err != nil {
		slog.Error("ingress connect failed", "err", err)
		os.Exit(1)
	}
	defer inConn.Close()
	ingress := netio.NewStream[market.OrderStatus, market.Order](inConn, wire.DecodeOrderStatus, wire.AppendOrder, opts)

	// Reply egress: fills come back here.
	outConn, err := netio.Dial(ctx, fmt.Sprintf("%s:%d", cfg.Trader.ServerHost, cfg.PortTCPOut))
	if err != nil {
		slog.Error("egress connect failed", "err", err)
		os.Exit(1)
	}
	defer outConn.Close()
	egress := netio.NewStream[market.OrderStatus, market.Order](outConn, wire.DecodeOrderStatus, wire.AppendOrder, opts)

	// Price broadcast.
	udpConn, err := netio.ListenBroadcast(cfg.PortUDP)
	if err != nil {
		slog.Error("broadcast listen failed", "err", err)
		os.Exit(1)
	}
	defer udpConn.Close()
	prices := netio.NewDatagram[market.TickerPrice, market.TickerPrice](udpConn, wire.DecodeTickerPrice, wire.AppendTickerPrice, opts)

	fmt.Printf("connected to %s (orders :%d, fills :%d, prices :%d)\n",
		cfg.Trader.ServerHost, cfg.PortTCPIn, cfg.PortTCPOut, cfg.PortUDP)

	var msgCount uint64
	if *statsInterval > 0 {
		go reportStats(ctx, &msgCount, *statsInterval)
	}

	go func() {
		err := egress.ReadLoop(func(fills []market.OrderStatus) {
			atomic.AddUint64(&msgCount, uint64(len(fills)))
			for i := range fills {
				printFill(fills[i])
			}
		})
		slog.Error("fill stream closed", "err", err)
		cancel()
	}()

	go func() {
		err := prices.ReadLoop(func(updates []market.TickerPrice) {
			atomic.AddUint64(&msgCount, uint64(len(updates)))
			if *quietPrices {
				return
			}
			for i := range updates {
				fmt.Printf("PRICE  %-8s %6d\n", updates[i].Ticker.String(), updates[i].Price)
			}
		})
		slog.Error("price stream closed", "err", err)
		cancel()
	}()

	generate(ctx, ingress, cfg, rng.New(cfg.Seed))
}

// generate emits a burst of random orders over the universe on every tick
// until the context is cancelled.
func generate(ctx context.Context, ingress *netio.Endpoint[market.OrderStatus, market.Order], cfg *config.Config, random *rng.RNG) {
	universe := market.Universe()
	ticker := time.NewTicker(time.Duration(cfg.Trader.OrderRateMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			burst := make([]market.Order, 0, cfg.Trader.OrdersPerBurst)
			for i := 0; i < cfg.Trader.OrdersPerBurst; i++ {
				burst = append(burst, randomOrder(random, universe))
			}
			if err := ingress.Write(burst); err != nil {
				slog.Error("order send failed", "err", err)
				return
			}
			for i := range burst {
				printOrder(burst[i])
			}
		}
	}
}

// randomOrder draws one synthetic order: a random instrument, side, price
// and quantity. The venue stamps the trader id on arrival.
func randomOrder(random *rng.RNG, universe []market.Instrument) market.Order {
	ins := universe[random.Intn(len(universe))]
	side := market.Buy
	if random.Intn(2) == 1 {
		side = market.Sell
	}
	return market.Order{
		ID:       market.NewOrderID(),
		Ticker:   ins.Ticker,
		Quantity: market.Quantity(random.IntRange(1, 100)),
		Price:    market.Price(random.Uint32n(7000)),
		Side:     side,
	}
}

func printOrder(o market.Order) {
	fmt.Printf("ORDER  %-8s %4s  %5d @ %d  id=%d\n",
		o.Ticker.String(), o.Side.String(), o.Quantity, o.Price, o.ID)
}

func printFill(s market.OrderStatus) {
	fmt.Printf("FILL   %-8s %4s  %5d @ %d  id=%d  %s\n",
		s.Ticker.String(), s.Side.String(), s.FillQuantity, s.FillPrice, s.OrderID, s.State.String())
}

func reportStats(ctx context.Context, count *uint64, interval int) {
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := atomic.LoadUint64(count)
			rate := float64(cur-last) / float64(interval)
			fmt.Printf("[stats] %d msgs total | %.1f msgs/sec\n", cur, rate)
			last = cur
		}
	}
}
