// Copyright 2026 The Memory-Pool Authors.

package mempool

import "testing"

func TestFALRoundTrip(t *testing.T) {
	p, err := NewFAL(FALConfig{BlockSize: 16, RecycleThreshold: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	a, err := p.Malloc()
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Free(a); err != nil {
		t.Fatal(err)
	}

	b, err := p.Malloc()
	if err != nil {
		t.Fatal(err)
	}
	if ptr(a) != ptr(b) {
		t.Fatal("expected round-trip reuse of the freed block")
	}
}

// TestFALIdleBound is testable property 3: the idle count in the (single)
// bucket never exceeds the configured threshold.
func TestFALIdleBound(t *testing.T) {
	const threshold = 3
	p, err := NewFAL(FALConfig{BlockSize: 16, RecycleThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	var blocks [][]byte
	for i := 0; i < 10; i++ {
		b, err := p.Malloc()
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}

	for _, b := range blocks {
		if err := p.Free(b); err != nil {
			t.Fatal(err)
		}
		if p.idle > threshold {
			t.Fatalf("idle count %d exceeds threshold %d", p.idle, threshold)
		}
	}

	if p.idle != threshold {
		t.Fatalf("expected idle count to settle at threshold %d, got %d", threshold, p.idle)
	}
}

func TestFALZeroThresholdAlwaysReleases(t *testing.T) {
	p, err := NewFAL(FALConfig{BlockSize: 16, RecycleThreshold: 0})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	a, err := p.Malloc()
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Free(a); err != nil {
		t.Fatal(err)
	}
	if p.freeHead != nil {
		t.Fatal("expected zero-threshold pool to never keep a linked block")
	}
}
