// Copyright 2026 The Memory-Pool Authors.

package mempool

import (
	"testing"
	"unsafe"
)

// TestVALSizeClasses: allocate a spread of sizes, free them all, allocate
// the same sizes again, and each must come back from its own bucket's free
// list (pointer identity within the bucket, not necessarily the exact
// original slot, since sizes 8/9 and 16/17 share a bucket under the frozen
// formula).
func TestVALSizeClasses(t *testing.T) {
	p, err := NewVAL(VALConfig{MaxBlockSize: 1024, RecycleThreshold: 8})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	sizes := []int{1, 8, 9, 16, 17}

	first := make([][]byte, len(sizes))
	byBucket := map[int]map[unsafe.Pointer]bool{}
	for i, sz := range sizes {
		b, err := p.Malloc(sz)
		if err != nil {
			t.Fatal(err)
		}
		first[i] = b
		bi := p.bucket(sz, p.align)
		if byBucket[bi] == nil {
			byBucket[bi] = map[unsafe.Pointer]bool{}
		}
		byBucket[bi][ptr(b)] = true
	}

	for _, b := range first {
		if err := p.Free(b); err != nil {
			t.Fatal(err)
		}
	}

	for i, sz := range sizes {
		b, err := p.Malloc(sz)
		if err != nil {
			t.Fatal(err)
		}
		bi := p.bucket(sz, p.align)
		if !byBucket[bi][ptr(b)] {
			t.Fatalf("size %d (request %d): pointer %p not among first-round bucket %d addresses", sz, i, ptr(b), bi)
		}
	}
}

// TestVALBigBlock: two big blocks, never explicitly freed, must still be
// released by Destroy with no leak.
func TestVALBigBlock(t *testing.T) {
	p, err := NewVAL(VALConfig{MaxBlockSize: 128})
	if err != nil {
		t.Fatal(err)
	}

	p1, err := p.Malloc(4096)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := p.Malloc(4096)
	if err != nil {
		t.Fatal(err)
	}
	if ptr(p1) == ptr(p2) {
		t.Fatal("expected two distinct big-block allocations")
	}

	if len(p.bigByAddr) != 2 {
		t.Fatalf("expected 2 tracked big blocks, got %d", len(p.bigByAddr))
	}

	if err := p.Destroy(); err != nil {
		t.Fatal(err)
	}
	if s := p.Stats(); s.HostRegions != 0 || s.HostBytes != 0 {
		t.Fatalf("expected zero host bytes after Destroy, got %+v", s)
	}
}

func TestVALBigBlockFreedExplicitly(t *testing.T) {
	p, err := NewVAL(VALConfig{MaxBlockSize: 128})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	b, err := p.Malloc(4096)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Free(b); err != nil {
		t.Fatal(err)
	}
	if len(p.bigByAddr) != 0 {
		t.Fatalf("expected the big block to be untracked after an explicit free, got %d", len(p.bigByAddr))
	}
}

// TestVALIdleBound is testable property 3: no bucket's idle count exceeds
// the configured recycle threshold.
func TestVALIdleBound(t *testing.T) {
	const threshold = 2
	p, err := NewVAL(VALConfig{MaxBlockSize: 64, RecycleThreshold: threshold})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Destroy()

	var blocks [][]byte
	for i := 0; i < 8; i++ {
		b, err := p.Malloc(16)
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

	for _, bucket := range p.buckets {
		if bucket.idle > threshold {
			t.Fatalf("bucket idle count %d exceeds threshold %d", bucket.idle, threshold)
		}
	}
}
