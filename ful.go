// Copyright 2026 The Memory-Pool Authors.
//
// FUL: Fixed block size, Unable to recycle, intrusive List of free blocks.
// A hit on Malloc pops the free-list head; a miss mmaps one fresh,
// single-block host region. Free always pushes back onto the list head;
// nothing is ever returned to the host until Destroy.

package mempool

import (
	"unsafe"
)

// FULConfig configures a FUL pool: every block Malloc hands out is exactly
// BlockSize bytes, clamped up to the size of one machine word so a freed
// block always has room for its free-list next-pointer.
type FULConfig struct {
	BlockSize int
	Logger    Logger
}

// FULPool is a fixed-size, list-based pool that never returns memory to the
// host allocator until Destroy. Blocks a caller still holds at Destroy time
// are not tracked and will leak — this is the documented meaning of
// "unable to recycle".
type FULPool struct {
	noCopy noCopy

	blockSize int
	freeHead  unsafe.Pointer
	stats     Stats
	destroyed bool
	log       Logger
}

// NewFUL creates a FUL pool per cfg.
func NewFUL(cfg FULConfig) (*FULPool, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidConfig
	}

	log := cfg.Logger
	if log == nil {
		log = NopLogger{}
	}

	return &FULPool{
		blockSize: max(cfg.BlockSize, minBlockSize()),
		log:       log,
	}, nil
}

// Malloc returns a block of the pool's configured size. A block recycled
// from the free list is handed back exactly as it was freed; a
// freshly-minted block from the host allocator is uninitialized.
func (p *FULPool) Malloc() ([]byte, error) {
	if p.freeHead != nil {
		block, newHead := listPop(p.freeHead)
		p.freeHead = newHead
		p.stats.LiveBlocks++
		p.stats.IdleBlocks--
		return unsafe.Slice((*byte)(block), p.blockSize), nil
	}

	b, err := hostAlloc(p.blockSize)
	if err != nil {
		p.log.Error("mempool: host allocator failure", err, "variant", VariantFUL)
		return nil, ErrNoBlock
	}

	p.stats.LiveBlocks++
	p.stats.HostRegions++
	p.stats.HostBytes += len(b.Data)
	return b.Data[:p.blockSize], nil
}

// Free returns block to the pool's free list. If the pool has already been
// destroyed, the block is released directly to the host allocator instead,
// with a warning, per the shared "Free after Destroy" contract.
func (p *FULPool) Free(block []byte) error {
	if len(block) == 0 {
		return nil
	}

	ptr := unsafe.Pointer(&block[0])
	if p.destroyed {
		p.log.Warn("mempool: free after destroy, releasing directly to host", "variant", VariantFUL)
		return hostFreePtr(ptr, p.blockSize)
	}

	p.freeHead = listPush(p.freeHead, ptr)
	p.stats.LiveBlocks--
	p.stats.IdleBlocks++
	return nil
}

// Destroy releases every block on the free list to the host allocator and
// marks the pool destroyed. Blocks still held by callers are not tracked
// and leak; that is documented, intentional FUL behavior.
func (p *FULPool) Destroy() error {
	if p.destroyed {
		return ErrDestroyed
	}

	var firstErr error
	for p.freeHead != nil {
		block, next := listPop(p.freeHead)
		if err := hostFreePtr(block, p.blockSize); err != nil && firstErr == nil {
			firstErr = err
		}
		p.freeHead = next
	}

	p.stats = Stats{}
	p.destroyed = true
	return firstErr
}

// Stats reports the pool's current bookkeeping.
func (p *FULPool) Stats() Stats { return p.stats }
