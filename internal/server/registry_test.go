package server

import (
	"net"
	"testing"

	"github.com/ndrandal/venue-sim/internal/market"
)

func TestRegistryRegisterLookup(t *testing.T) {
	reg := NewRegistry()
	s := NewSession(7, &captureWriter{})
	if prev := reg.Register(s); prev != nil {
		t.Fatalf("previous session = %v, want nil", prev)
	}
	got, ok := reg.Lookup(7)
	if !ok || got != s {
		t.Fatal("registered session not found")
	}
	if _, ok := reg.Lookup(8); ok {
		t.Fatal("lookup of unknown trader succeeded")
	}
	if reg.Count() != 1 {
		t.Fatalf("count = %d, want 1", reg.Count())
	}
}

func TestRegistryLastConnectionWins(t *testing.T) {
	reg := NewRegistry()
	first := NewSession(7, &captureWriter{})
	second := NewSession(7, &captureWriter{})

	reg.Register(first)
	if prev := reg.Register(second); prev != first {
		t.Fatal("Register did not return the replaced session")
	}
	got, _ := reg.Lookup(7)
	if got != second {
		t.Fatal("lookup returned the stale session")
	}

	// Tearing down the replaced session must not evict the newer one.
	reg.Remove(first)
	if _, ok := reg.Lookup(7); !ok {
		t.Fatal("newer session evicted by the stale teardown")
	}
	reg.Remove(second)
	if _, ok := reg.Lookup(7); ok {
		t.Fatal("session still present after removal")
	}
}

func TestDeriveTraderIDStablePerHost(t *testing.T) {
	a := &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 1111}
	b := &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 2222}
	c := &net.TCPAddr{IP: net.ParseIP("10.1.2.4"), Port: 1111}

	if DeriveTraderID(a) != DeriveTraderID(b) {
		t.Fatal("same host, different ports should map to one trader id")
	}
	if DeriveTraderID(a) == DeriveTraderID(c) {
		t.Fatal("distinct hosts mapped to the same trader id")
	}
	if DeriveTraderID(a) == 0 {
		t.Fatal("trader id should be non-zero for a real address")
	}
	var _ market.TraderID = DeriveTraderID(a)
}
