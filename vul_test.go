// Copyright 2026 The Memory-Pool Authors.

package mempool

import "testing"

func TestVULRoundTripSameBucket(t *testing.T) {
	p, err := NewVUL(VULConfig{MaxBlockSize: 1024, AlignSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	a, err := p.Malloc(10)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Free(a); err != nil {
		t.Fatal(err)
	}

	b, err := p.Malloc(10)
	if err != nil {
		t.Fatal(err)
	}
	if ptr(a) != ptr(b) {
		t.Fatal("expected same-size reuse of the just-freed block")
	}
}

func TestVULZeroSizeRejected(t *testing.T) {
	p, err := NewVUL(VULConfig{MaxBlockSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	if _, err := p.Malloc(0); err != ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig for a zero-sized request, got %v", err)
	}
}

func TestVULOversizeFallsInTopBucket(t *testing.T) {
	p, err := NewVUL(VULConfig{MaxBlockSize: 64, AlignSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	topBucket := p.bucket(p.maxSize, p.align)

	big, err := p.Malloc(500)
	if err != nil {
		t.Fatal(err)
	}
	if i := p.bucketFor(500); i != topBucket {
		t.Fatalf("expected an oversize request to land in the top bucket %d, got %d", topBucket, i)
	}
	if err := p.Free(big); err != nil {
		t.Fatal(err)
	}
	if p.table[topBucket] == nil {
		t.Fatal("expected the freed oversize block in the top bucket's free list")
	}
}

func TestVULBucketFormula(t *testing.T) {
	// The default formula: ((n + A - 1) / (A - 1)) - 1, non-uniform
	// widths and all.
	align := 8
	cases := map[int]int{
		1:  0,
		7:  1,
		8:  1,
		9:  1,
		14: 2,
		15: 2,
	}
	for n, want := range cases {
		if got := bucketIndex(n, align); got != want {
			t.Errorf("bucketIndex(%d, %d) = %d, want %d", n, align, got, want)
		}
	}
}

func TestVULDestroyReleasesEverything(t *testing.T) {
	p, err := NewVUL(VULConfig{MaxBlockSize: 256})
	if err != nil {
		t.Fatal(err)
	}

	var blocks [][]byte
	for _, sz := range []int{1, 8, 9, 16, 200} {
		b, err := p.Malloc(sz)
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}
	for _, b := range blocks {
		if err := p.Free(b); err != nil {
			t.Fatal(err)
		}
	}

	if err := p.Destroy(); err != nil {
		t.Fatal(err)
	}
	if s := p.Stats(); s.HostRegions != 0 || s.HostBytes != 0 {
		t.Fatalf("expected zero host bytes after Destroy, got %+v", s)
	}
}
