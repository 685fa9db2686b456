package control

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/venue-sim/internal/market"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// commandMessage is one admin → venue control frame.
type commandMessage struct {
	Command string `json:"command"`
}

// ackMessage is the reply to a control frame.
type ackMessage struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// AdminServer exposes the out-of-band control channel: a websocket endpoint
// delivering commands to the registry, a health probe, and a read-only view
// of current prices.
type AdminServer struct {
	registry *Registry
	prices   *market.PricesView
	sessions interface{ Count() int }
	log      *slog.Logger
}

// NewAdminServer wires the admin surface. sessions may be nil when no
// session registry is attached.
func NewAdminServer(registry *Registry, prices *market.PricesView, sessions interface{ Count() int }, log *slog.Logger) *AdminServer {
	if log == nil {
		log = slog.Default()
	}
	return &AdminServer{registry: registry, prices: prices, sessions: sessions, log: log}
}

// Register attaches the admin routes to mux.
func (s *AdminServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("/control", s.handleControl)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /prices", s.handlePrices)
}

// handleControl upgrades the connection and feeds JSON command frames into
// the registry until the client goes away.
func (s *AdminServer) handleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	s.log.Info("admin connected", "remote", conn.RemoteAddr().String())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Error("admin read failed", "err", err)
			}
			return
		}

		var msg commandMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			writeAck(conn, fmt.Errorf("invalid control frame: %w", err))
			continue
		}
		cmd, err := ParseCommand(msg.Command)
		if err != nil {
			writeAck(conn, err)
			continue
		}
		s.registry.Dispatch(cmd)
		s.log.Info("command dispatched", "command", string(cmd))
		writeAck(conn, nil)
	}
}

func writeAck(conn *websocket.Conn, err error) {
	ack := ackMessage{OK: err == nil}
	if err != nil {
		ack.Error = err.Error()
	}
	conn.WriteJSON(ack)
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if s.sessions != nil {
		clients = s.sessions.Count()
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","clients":%d,"tickers":%d}`, clients, s.prices.Len())
}

func (s *AdminServer) handlePrices(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]uint32, s.prices.Len())
	for it := s.prices.Iterator(); !it.End(); {
		tp := it.Next()
		out[tp.Ticker.String()] = uint32(tp.Price)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
