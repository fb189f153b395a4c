// Copyright 2026 The Memory-Pool Authors.

package mempool

import (
	"errors"
)

// Sentinel errors returned by the pool operations. Together they replace the
// "distinguishable marker" language used to describe Malloc/Free failures.
var (
	// ErrNoBlock is returned by Malloc when the host allocator failed, or
	// when a block-chunk pool is exhausted and configured not to grow.
	ErrNoBlock = errors.New("mempool: no block available")

	// ErrForeignBlock is returned by a block-chunk pool's Free when the
	// pointer does not belong to any chunk the pool owns.
	ErrForeignBlock = errors.New("mempool: block does not belong to this pool")

	// ErrInvalidConfig is returned by a constructor when the configuration
	// cannot produce a valid pool (zero sizes, non-power-of-two align,
	// header+block arithmetic overflow, and similar).
	ErrInvalidConfig = errors.New("mempool: invalid configuration")

	// ErrDestroyed is returned by Destroy when called on a pool that has
	// already been destroyed. Free after Destroy is handled rather than
	// rejected (see each variant's Free), so this only ever surfaces from a
	// second Destroy call.
	ErrDestroyed = errors.New("mempool: pool already destroyed")
)

// Variant identifies one of the six allocator engines. It carries no
// behavior of its own; it exists for the benchmark harness's reporting and
// for table-driven tests that exercise every engine identically.
type Variant string

const (
	VariantFUL Variant = "FUL"
	VariantFAL Variant = "FAL"
	VariantFUB Variant = "FUB"
	VariantFAB Variant = "FAB"
	VariantVUL Variant = "VUL"
	VariantVAL Variant = "VAL"
)

// Stats is a pool's own bookkeeping of what it currently owns: live
// (caller-held) blocks and bytes still mapped in from the host. It is the
// in-scope counterpart to the out-of-scope "debug-mode allocation counters
// wrapping the host allocator" — this is the pool's own invariant, not an
// external observer's.
type Stats struct {
	LiveBlocks  int // blocks currently held by callers
	IdleBlocks  int // blocks currently on a free list or chunk free chain
	HostRegions int // host regions (mmap'd chunks/pages) currently owned
	HostBytes   int // total bytes currently mapped in from the host
}

// noCopy causes `go vet -copylocks` to flag a pool value copied after first
// use instead of passed by pointer, the compile-time-adjacent approximation
// of "mark pool handles as non-shareable across threads at the type level"
// that Go's type system can actually enforce.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
