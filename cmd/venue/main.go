// Command venue runs the simulated trading venue.
//
// Architecture:
//
//	config           — viper-backed YAML + VENUE_* env configuration
//	netio            — length-prefixed framing over TCP/UDP with a rotating read buffer
//	server           — ingress/egress acceptors, session registry, order router, match dispatcher
//	book             — per-ticker price-level ladders and the match loop
//	feed             — timer-driven synthetic price updates over UDP broadcast
//	control          — command registry + websocket admin channel
//	journal          — opt-in MongoDB fill journal
//
// Order flow arrives on the ingress TCP port, is routed into the book for
// its ticker, and the resulting fills travel back over each trader's egress
// TCP connection. Independently, the price feed broadcasts synthetic ticker
// prices over UDP to everyone listening.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndrandal/venue-sim/internal/config"
	"github.com/ndrandal/venue-sim/internal/control"
	"github.com/ndrandal/venue-sim/internal/feed"
	"github.com/ndrandal/venue-sim/internal/journal"
	"github.com/ndrandal/venue-sim/internal/market"
	"github.com/ndrandal/venue-sim/internal/rng"
	"github.com/ndrandal/venue-sim/internal/server"
)

func main() {
	cfgPath := flag.String("config", "configs/venue.yaml", "Path to the config file")
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

	log := newLogger(cfg.Logging)
	slog.SetDefault(log)
	log.Info("venue starting",
		"ingress", cfg.PortTCPIn, "egress", cfg.PortTCPOut,
		"broadcast", cfg.PortUDP, "admin", cfg.PortAdmin)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	universe := market.Universe()
	prices := market.NewPricesView(universe, log)
	log.Info("universe loaded", "instruments", len(universe))

	random := rng.New(cfg.Seed)

	// Control plane.
	registry := control.NewRegistry(16, log)
	go registry.Run(ctx)

	// Sessions, dispatch, routing.
	sessions := server.NewRegistry()

	var fillJournal *journal.Journal
	if cfg.MongoURI != "" {
		fillJournal, err = journal.Open(ctx, cfg.MongoURI, cfg.JournalBuffer, log)
		if err != nil {
			log.Error("fill journal unavailable", "err", err)
			os.Exit(1)
		}
		defer fillJournal.Close(context.Background())
		go fillJournal.Run(ctx)
	}

	dispatcher := server.NewDispatcher(sessions, recorderOrNil(fillJournal), log)
	router := server.NewRouter(universe, cfg.OrderBookLimit, dispatcher.Dispatch, log)

	epCfg := server.EndpointConfig{BufferSize: cfg.BufferSize, MaxMessageSize: cfg.MaxMessageSize}

	ingress, err := server.ListenIngress(cfg.PortTCPIn, router, epCfg, log)
	if err != nil {
		log.Error("ingress bind failed", "err", err)
		os.Exit(1)
	}
	egress, err := server.ListenEgress(cfg.PortTCPOut, sessions, epCfg, log)
	if err != nil {
		log.Error("egress bind failed", "err", err)
		os.Exit(1)
	}
	broadcaster, err := server.NewBroadcaster(cfg.PortUDP, epCfg, log)
	if err != nil {
		log.Error("broadcast bind failed", "err", err)
		os.Exit(1)
	}
	defer broadcaster.Close()

	go ingress.Serve(ctx)
	go egress.Serve(ctx)

	// Price feed.
	priceFeed := feed.New(prices, broadcaster, random, cfg.FeedRate(), log)
	priceFeed.Register(registry)
	if cfg.PriceFeedAutostart {
		registry.Dispatch(control.PriceFeedStart)
	}

	// Admin surface.
	admin := control.NewAdminServer(registry, prices, sessions, log)
	mux := http.NewServeMux()
	admin.Register(mux)
	adminSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.PortAdmin),
		Handler: mux,
	}
	go func() {
		if err := adminSrv.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("admin server error", "err", err)
			cancel()
		}
	}()
	log.Info("admin channel listening", "addr", adminSrv.Addr)

	<-ctx.Done()

	priceFeed.Stop()
	ingress.Close()
	egress.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	adminSrv.Shutdown(shutdownCtx)

	log.Info("venue stopped")
}

// recorderOrNil avoids handing the dispatcher a typed nil interface.
func recorderOrNil(j *journal.Journal) server.FillRecorder {
	if j == nil {
		return nil
	}
	return j
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
