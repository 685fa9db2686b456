// Package server wires the venue's network fabric: the ingress and egress
// acceptors, the session registry, the order router, the match dispatcher,
// and the UDP price broadcaster.
package server

import (
	"sync"

	"github.com/ndrandal/venue-sim/internal/market"
)

// StatusWriter sends a batch of fills to one trader.
type StatusWriter interface {
	Write(fills []market.OrderStatus) error
}

// Session is one live egress connection to a trader.
type Session struct {
	TraderID market.TraderID
	writer   StatusWriter
}

// NewSession builds a session around the egress writer.
func NewSession(id market.TraderID, w StatusWriter) *Session {
	return &Session{TraderID: id, writer: w}
}

// Write forwards fills to the trader.
func (s *Session) Write(fills []market.OrderStatus) error {
	return s.writer.Write(fills)
}

// Registry maps trader ids to live sessions. Writes happen only on connect
// and teardown; lookups are the dispatcher's hot path, so readers take the
// shared lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[market.TraderID]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[market.TraderID]*Session)}
}

// Register inserts a session. A trader id already present is replaced
// (last connection wins) and the previous session is returned.
func (r *Registry) Register(s *Session) (previous *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous = r.sessions[s.TraderID]
	r.sessions[s.TraderID] = s
	return previous
}

// Lookup finds the session for a trader.
func (r *Registry) Lookup(id market.TraderID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes a session, but only if it is still the registered one;
// a session replaced by a newer connection stays untouched.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.TraderID] == s {
		delete(r.sessions, s.TraderID)
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
