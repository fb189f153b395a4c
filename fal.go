// Copyright 2026 The Memory-Pool Authors.
//
// FAL: Fixed block size, Able to recycle (bounded), intrusive List. FAL
// inherits its recycling policy from VAL: Free releases a block directly
// to the host, instead of linking it, once the idle count would exceed a
// configured high-water mark.

package mempool

import "unsafe"

// FALConfig configures a FAL pool. RecycleThreshold is RECYCLE_IF_MORETHAN_BLOCKS:
// once the pool's idle count would exceed this many blocks, Free releases the
// block to the host instead of keeping it linked.
type FALConfig struct {
	BlockSize        int
	RecycleThreshold int
	Logger           Logger
}

// FALPool is FUL plus a bounded idle count.
type FALPool struct {
	noCopy noCopy

	blockSize int
	threshold int
	idle      int
	freeHead  unsafe.Pointer
	stats     Stats
	destroyed bool
	log       Logger
}

// NewFAL creates a FAL pool per cfg.
func NewFAL(cfg FALConfig) (*FALPool, error) {
	if cfg.BlockSize <= 0 || cfg.RecycleThreshold < 0 {
		return nil, ErrInvalidConfig
	}

	log := cfg.Logger
	if log == nil {
		log = NopLogger{}
	}

	return &FALPool{
		blockSize: max(cfg.BlockSize, minBlockSize()),
		threshold: cfg.RecycleThreshold,
		log:       log,
	}, nil
}

// Malloc behaves exactly as FUL.Malloc, decrementing the idle count on a
// free-list hit.
func (p *FALPool) Malloc() ([]byte, error) {
	if p.freeHead != nil {
		block, newHead := listPop(p.freeHead)
		p.freeHead = newHead
		p.idle--
		p.stats.LiveBlocks++
		p.stats.IdleBlocks--
		return unsafe.Slice((*byte)(block), p.blockSize), nil
	}

	b, err := hostAlloc(p.blockSize)
	if err != nil {
		p.log.Error("mempool: host allocator failure", err, "variant", VariantFAL)
		return nil, ErrNoBlock
	}

	p.stats.LiveBlocks++
	p.stats.HostRegions++
	p.stats.HostBytes += len(b.Data)
	return b.Data[:p.blockSize], nil
}

// Free links the block back onto the free list, unless doing so would push
// the idle count above RecycleThreshold, in which case the block is
// released to the host instead and the idle count is left unchanged.
func (p *FALPool) Free(block []byte) error {
	if len(block) == 0 {
		return nil
	}

	ptr := unsafe.Pointer(&block[0])
	if p.destroyed {
		p.log.Warn("mempool: free after destroy, releasing directly to host", "variant", VariantFAL)
		return hostFreePtr(ptr, p.blockSize)
	}

	p.stats.LiveBlocks--
	if p.idle+1 > p.threshold {
		if err := hostFreePtr(ptr, p.blockSize); err != nil {
			return err
		}
		p.stats.HostRegions--
		p.stats.HostBytes -= roundUpInt(p.blockSize, osPageSize)
		return nil
	}

	p.freeHead = listPush(p.freeHead, ptr)
	p.idle++
	p.stats.IdleBlocks++
	return nil
}

// Destroy releases every still-linked block to the host allocator.
func (p *FALPool) Destroy() error {
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

	p.idle = 0
	p.stats = Stats{}
	p.destroyed = true
	return firstErr
}

// Stats reports the pool's current bookkeeping.
func (p *FALPool) Stats() Stats { return p.stats }
