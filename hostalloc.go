// Copyright 2026 The Memory-Pool Authors.
//
// Raw, page-aligned memory straight from the operating system. Each pool
// variant owns its own free structure and only calls down to
// hostAlloc/hostFree for fresh regions; there is no shared page table
// between variants.

package mempool

import (
	"fmt"
	"os"
	"unsafe"
)

var (
	osPageSize = os.Getpagesize()
	osPageMask = osPageSize - 1
)

// hostRegion is one page-aligned allocation obtained directly from the
// operating system. Pool engines carve free-list nodes, chunk payload
// slots, and length-prefixed blocks out of a region's Data.
type hostRegion struct {
	Data []byte
}

// hostAlloc requests a zero page-rounded region of at least size bytes from
// the operating system.
func hostAlloc(size int) (*hostRegion, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mempool: invalid host region size %d", size)
	}

	rounded := roundUpInt(size, osPageSize)
	b, err := rawMmap(rounded)
	if err != nil {
		return nil, fmt.Errorf("mempool: host allocator failure: %w", err)
	}

	return &hostRegion{Data: b}, nil
}

// hostFree releases a region back to the operating system. It must only be
// called once per region.
func hostFree(r *hostRegion) error {
	if r == nil || len(r.Data) == 0 {
		return nil
	}

	err := rawMunmap(unsafe.Pointer(&r.Data[0]), len(r.Data))
	r.Data = nil
	return err
}

// roundUpInt rounds n up to the next multiple of m. m must be a power of two.
func roundUpInt(n, m int) int { return (n + m - 1) &^ (m - 1) }

// hostFreePtr releases a single-block, one-region-per-block allocation (as
// used by FUL/FAL) given only the address and the logical size that was originally passed to
// hostAlloc. No per-block metadata is kept for this; the page-rounded mmap
// size is a deterministic function of that logical size, so it is
// recomputed rather than stored. This only works because those variants
// allocate every block at the same fixed size; VUL/VAL instead stamp the
// exact mmap'd length into a region header (see writeRegionHeader) since
// their per-block host-allocation size varies by request.
func hostFreePtr(ptr unsafe.Pointer, logicalSize int) error {
	if ptr == nil {
		return nil
	}
	return rawMunmap(ptr, roundUpInt(logicalSize, osPageSize))
}
