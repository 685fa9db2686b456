package rng

import "testing"

func TestSeededSequencesRepeat(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if a.Uint32() != b.Uint32() {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uint32() == b.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("different seeds collided %d/100 times", same)
	}
}

func TestUint32nBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		if v := r.Uint32n(900); v >= 900 {
			t.Fatalf("Uint32n(900) = %d", v)
		}
	}
	if r.Uint32n(0) != 0 {
		t.Fatal("Uint32n(0) should be 0")
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := New(7)
	for i := 0; i < 1000; i++ {
		v := r.IntRange(1, 100)
		if v < 1 || v > 100 {
			t.Fatalf("IntRange(1, 100) = %d", v)
		}
	}
	if r.IntRange(5, 5) != 5 {
		t.Fatal("degenerate range should return min")
	}
}

func TestZeroSeedUsesClock(t *testing.T) {
	r := New(0)
	// Just exercise it; the sequence is unpredictable but must be valid.
	r.Uint32()
	if r.Intn(10) >= 10 {
		t.Fatal("Intn out of bounds")
	}
}
