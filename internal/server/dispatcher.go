package server

import (
	"log/slog"
	"sort"

	"github.com/ndrandal/venue-sim/internal/market"
)

// FillRecorder receives every fill for out-of-band journalling.
type FillRecorder interface {
	Record(fills []market.OrderStatus)
}

// Dispatcher groups the fills of one match cycle by trader and performs at
// most one write per trader. The sort is stable, so fills delivered to one
// trader preserve match order.
type Dispatcher struct {
	registry *Registry
	journal  FillRecorder
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher. journal may be nil.
func NewDispatcher(registry *Registry, journal FillRecorder, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{registry: registry, journal: journal, log: log}
}

// Dispatch walks the fills front-subspan by front-subspan: the longest
// prefix sharing one trader id becomes a single session write; offline
// traders are skipped. Write failures are logged and the session kept.
func (d *Dispatcher) Dispatch(fills []market.OrderStatus) {
	if len(fills) == 0 {
		return
	}
	sort.SliceStable(fills, func(i, j int) bool {
		return fills[i].TraderID < fills[j].TraderID
	})

	for start := 0; start < len(fills); {
		end := start + 1
		for end < len(fills) && fills[end].TraderID == fills[start].TraderID {
			end++
		}
		sub := fills[start:end]
		if sess, ok := d.registry.Lookup(sub[0].TraderID); ok {
			if err := sess.Write(sub); err != nil {
				d.log.Error("fill delivery failed", "trader", uint32(sub[0].TraderID), "err", err)
			}
		} else {
			d.log.Debug("trader offline", "trader", uint32(sub[0].TraderID), "fills", len(sub))
		}
		start = end
	}

	if d.journal != nil {
		d.journal.Record(fills)
	}
}
