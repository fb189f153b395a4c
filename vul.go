// Copyright 2026 The Memory-Pool Authors.
//
// VUL: Variable block size, Unable to recycle, List-bucketed by size class.
// Each bucket holds its own free list, indexed by the ((n+A-1)/(A-1))-1
// formula rather than equal-width power-of-two classes, and every node
// carries a length prefix immediately ahead of the pointer Malloc hands
// back, so Free can recover the request size without the caller repeating
// it.

package mempool

import (
	"encoding/binary"
	"unsafe"
)

// VULConfig configures a VUL pool.
type VULConfig struct {
	// MaxBlockSize is M, clamped down to the 16-bit unsigned maximum the
	// length prefix can record.
	MaxBlockSize int
	// AlignSize is A, a power of two; zero defaults to 8.
	AlignSize int
	// CorrectedBucketing opts into the equal-width bucket formula
	// instead of the default (n+A-1)/(A-1)-1. Off by default, since the
	// non-uniform formula is what Malloc and Free agree on unless a
	// caller explicitly asks otherwise.
	CorrectedBucketing bool
	Logger             Logger
}

// VULPool is a variable-length, size-classed pool that never returns
// memory to the host allocator until Destroy.
type VULPool struct {
	noCopy noCopy

	maxSize int
	align   int
	bucket  func(int, int) int
	table   []unsafe.Pointer
	stats   Stats
	destroyed bool
	log     Logger
}

// NewVUL creates a VUL pool per cfg.
func NewVUL(cfg VULConfig) (*VULPool, error) {
	align := cfg.AlignSize
	if align == 0 {
		align = defaultAlignSize
	}
	if align < 2 || align&(align-1) != 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.MaxBlockSize <= 0 {
		return nil, ErrInvalidConfig
	}

	maxSize := cfg.MaxBlockSize
	if maxSize > maxBlockLen {
		maxSize = maxBlockLen
	}

	bucketFn := bucketIndex
	if cfg.CorrectedBucketing {
		bucketFn = bucketIndexCorrected
	}

	log := cfg.Logger
	if log == nil {
		log = NopLogger{}
	}

	return &VULPool{
		maxSize: maxSize,
		align:   align,
		bucket:  bucketFn,
		table:   make([]unsafe.Pointer, bucketCount(maxSize, align, bucketFn)),
		log:     log,
	}, nil
}

func (p *VULPool) bucketFor(size int) int {
	if size > p.maxSize {
		// An oversize request still lands in the top bucket, and the
		// block it frees will land there too regardless of its true
		// size. VUL has no separate path for requests above maxSize.
		return p.bucket(p.maxSize, p.align)
	}
	return p.bucket(size, p.align)
}

// Malloc returns a block of at least size bytes. size must be non-zero.
func (p *VULPool) Malloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidConfig
	}

	i := p.bucketFor(size)
	if head := p.table[i]; head != nil {
		node, newHead := listPop(head)
		p.table[i] = newHead
		writePrefix(node, size)
		p.stats.LiveBlocks++
		p.stats.IdleBlocks--
		return unsafe.Slice((*byte)(payloadOf(node)), size), nil
	}

	region, err := hostAlloc(regionHeaderSize + lengthPrefixSize + roundUp(size, p.align))
	if err != nil {
		p.log.Error("mempool: host allocator failure", err, "variant", VariantVUL)
		return nil, ErrNoBlock
	}

	base := ptrOf(region.Data)
	writeRegionHeader(base, len(region.Data))
	node := nodeFromBase(base)
	writePrefix(node, size)

	p.stats.LiveBlocks++
	p.stats.HostRegions++
	p.stats.HostBytes += len(region.Data)
	return unsafe.Slice((*byte)(payloadOf(node)), size), nil
}

// Free pushes block onto the size-class bucket its stored length prefix
// selects.
func (p *VULPool) Free(block []byte) error {
	if len(block) == 0 {
		return nil
	}

	node := nodeFromPayload(ptrOf(block))
	if p.destroyed {
		base := baseFromNode(node)
		size := readRegionHeader(base)
		p.log.Warn("mempool: free after destroy, releasing directly to host", "variant", VariantVUL)
		return rawMunmap(base, size)
	}

	size := int(readPrefix(node))
	i := p.bucketFor(size)
	p.table[i] = listPush(p.table[i], node)
	p.stats.LiveBlocks--
	p.stats.IdleBlocks++
	return nil
}

// Destroy releases every bucketed node's backing host region. Blocks still
// held by callers are not tracked and leak.
func (p *VULPool) Destroy() error {
	if p.destroyed {
		return ErrDestroyed
	}

	var firstErr error
	for i, head := range p.table {
		for head != nil {
			node, next := listPop(head)
			base := baseFromNode(node)
			size := readRegionHeader(base)
			if err := rawMunmap(base, size); err != nil && firstErr == nil {
				firstErr = err
			}
			head = next
		}
		p.table[i] = nil
	}

	p.stats = Stats{}
	p.destroyed = true
	return firstErr
}

// Stats reports the pool's current bookkeeping.
func (p *VULPool) Stats() Stats { return p.stats }

// --- shared VUL/VAL node layout helpers ---
//
// Host allocation layout: [regionHeaderSize bytes: exact mmap length]
// [lengthPrefixSize bytes: logical size, the length prefix]
// [payload...]. "node" addresses the length-prefix start, which is also
// where the free-list next-pointer is written while the block is idle.

func nodeFromBase(base unsafe.Pointer) unsafe.Pointer   { return addPtr(base, regionHeaderSize) }
func baseFromNode(node unsafe.Pointer) unsafe.Pointer    { return addPtr(node, -regionHeaderSize) }
func payloadOf(node unsafe.Pointer) unsafe.Pointer       { return addPtr(node, lengthPrefixSize) }
func nodeFromPayload(payload unsafe.Pointer) unsafe.Pointer {
	return addPtr(payload, -lengthPrefixSize)
}

func writePrefix(node unsafe.Pointer, size int) {
	binary.LittleEndian.PutUint16(unsafe.Slice((*byte)(node), lengthPrefixSize), uint16(size))
}

func readPrefix(node unsafe.Pointer) uint16 {
	return binary.LittleEndian.Uint16(unsafe.Slice((*byte)(node), lengthPrefixSize))
}
