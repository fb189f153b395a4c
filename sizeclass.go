// Copyright 2026 The Memory-Pool Authors.
//
// Shared utilities: alignment/size-class math for the variable-length
// variants, and the intrusive free-list node overlay used by every
// list-style variant (FUL, FAL, VUL, VAL).

package mempool

import "unsafe"

const (
	// defaultAlignSize is ALIGN_SIZE's default: a power of two used to
	// round up variable-length requests.
	defaultAlignSize = 8

	// maxBlockLen is the hard cap MALLOC_MAX_LEN clamps to: the largest
	// value a two-byte length prefix can record.
	maxBlockLen = 1<<16 - 1

	// lengthPrefixSize is the width in bytes of the hidden header VUL/VAL
	// write immediately before the pointer they hand back to the caller.
	lengthPrefixSize = 2

	// regionHeaderSize is an internal-only header, invisible to and
	// separate from the two-byte length prefix, that VUL/VAL write at
	// the very start of every host allocation to record its exact
	// mmap'd byte length. A node's logical length prefix changes every
	// time the
	// slot is reused for a different request within the same bucket,
	// but the physical host region backing it never does; Destroy and
	// the oversize-release path need the latter, not the former, to
	// call munmap with the right size.
	regionHeaderSize = 8
)

// roundUp rounds n up to the next multiple of a. a must be a power of two.
func roundUp(n, a int) int { return (n + a - 1) &^ (a - 1) }

// bucketIndex computes the size-class index as
// ((n + A - 1) / (A - 1)) - 1. The divisor is deliberately A-1, not A; this
// produces non-uniform bucket widths, but Malloc and Free must agree on the
// exact formula for allocations and frees to land in the same bucket, so it
// is frozen here rather than "fixed".
func bucketIndex(n, align int) int {
	return (n+align-1)/(align-1) - 1
}

// bucketIndexCorrected is the opt-in, equal-width replacement for
// bucketIndex, offered under CorrectedBucketing on VULConfig/VALConfig but
// never the default.
func bucketIndexCorrected(n, align int) int {
	return (n + align - 1) / align
}

// bucketCount returns the number of bucket slots a table sized for maximum
// block length m needs, using the given bucketing function.
func bucketCount(m, align int, bucket func(int, int) int) int {
	return bucket(m, align) + 1
}

// listNode is the intrusive free-list node overlaid on the first machine
// word of an idle block. Every list-style variant writes one of these
// directly into host memory via unsafe.Pointer; the remainder of the block
// is left untouched and becomes caller payload once handed out again.
type listNode struct {
	next unsafe.Pointer
}

// nodeAt reinterprets the start of a raw memory slice as a listNode.
func nodeAt(p unsafe.Pointer) *listNode {
	return (*listNode)(p)
}

// listPush installs p as the new head of the free list rooted at head,
// writing p's next-pointer slot to the list's previous head. It returns the
// new head value the caller must store back.
func listPush(head unsafe.Pointer, p unsafe.Pointer) unsafe.Pointer {
	nodeAt(p).next = head
	return p
}

// listPop unlinks and returns the current head of the free list, along
// with the list's new head value.
func listPop(head unsafe.Pointer) (block unsafe.Pointer, newHead unsafe.Pointer) {
	if head == nil {
		return nil, nil
	}
	return head, nodeAt(head).next
}

// minBlockSize returns the smallest legal block size for a list-style
// variant: large enough to hold one next-pointer.
func minBlockSize() int {
	return int(unsafe.Sizeof(uintptr(0)))
}

// ptrOf returns the address of a byte slice's backing array. The slice
// must be non-empty.
func ptrOf(b []byte) unsafe.Pointer { return unsafe.Pointer(&b[0]) }

// addPtr offsets a pointer by n bytes.
func addPtr(p unsafe.Pointer, n int) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + uintptr(n))
}

// uintptrOf converts a pointer to its integer address for arithmetic
// comparisons (chunk containment checks and the like).
func uintptrOf(p unsafe.Pointer) uintptr { return uintptr(p) }

// writeRegionHeader stamps a host region's own byte length at its base
// address, once, at creation time.
func writeRegionHeader(base unsafe.Pointer, size int) {
	*(*uint64)(base) = uint64(size)
}

// readRegionHeader recovers the exact byte length a host region was
// mmap'd with, so it can be munmap'd with the same size.
func readRegionHeader(base unsafe.Pointer) int {
	return int(*(*uint64)(base))
}
