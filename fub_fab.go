// Copyright 2026 The Memory-Pool Authors.
//
// FUB/FAB: Fixed block size, block-chunk storage. Blocks are carved out of
// contiguous chunks; an idle slot's leading bytes hold the index (not a
// pointer) of the next free slot within the same chunk.
//
// The chunk header (available count, first-free index, block count,
// next-chunk pointer) lives as ordinary struct fields on chunk; the host
// region backing a chunk holds only its payload slots, nothing else.

package mempool

import (
	"encoding/binary"
	"math"
)

const indexSize = 4 // bytes per in-slot free-chain index (uint32)

// ChunkConfig configures a FUB or FAB pool.
type ChunkConfig struct {
	// BlockSize is forced up to at least indexSize bytes.
	BlockSize int
	// FirstChunkBlocks is the block count of the chunk built on the first
	// Malloc call.
	FirstChunkBlocks int
	// GrowChunkBlocks is the block count of each chunk built once every
	// existing chunk is full. Zero disables growth: once all chunks are
	// full, Malloc returns ErrNoBlock.
	GrowChunkBlocks int
	Logger           Logger
}

type chunk struct {
	payload    []byte
	region     *hostRegion
	blockCount uint32
	available  uint32
	firstFree  uint32 // sentinel: firstFree == blockCount means "no free slot"
	next       *chunk
}

// ChunkPool is the shared FUB/FAB engine. recycle selects the "able to
// recycle" chunk-release policy (FAB only): see DESIGN.md for why FAB
// releases fully-idle, non-bootstrap chunks back to the host on Free.
type ChunkPool struct {
	noCopy noCopy

	blockSize   int
	firstBlocks uint32
	growBlocks  uint32
	recycle     bool
	variant     Variant

	chunks     *chunk
	bootstrap  *chunk
	destroyed  bool
	stats      Stats
	log        Logger
}

// NewFUB creates a block-chunk pool that never releases a chunk back to the
// host until Destroy.
func NewFUB(cfg ChunkConfig) (*ChunkPool, error) { return newChunkPool(cfg, VariantFUB, false) }

// NewFAB creates a block-chunk pool that additionally releases a
// fully-idle, non-bootstrap chunk back to the host as soon as its last
// block is freed.
func NewFAB(cfg ChunkConfig) (*ChunkPool, error) { return newChunkPool(cfg, VariantFAB, true) }

func newChunkPool(cfg ChunkConfig, variant Variant, recycle bool) (*ChunkPool, error) {
	if cfg.FirstChunkBlocks <= 0 || cfg.GrowChunkBlocks < 0 {
		return nil, ErrInvalidConfig
	}

	blockSize := cfg.BlockSize
	if blockSize < indexSize {
		blockSize = indexSize
	}

	if err := checkChunkBytes(cfg.FirstChunkBlocks, blockSize); err != nil {
		return nil, err
	}
	if cfg.GrowChunkBlocks > 0 {
		if err := checkChunkBytes(cfg.GrowChunkBlocks, blockSize); err != nil {
			return nil, err
		}
	}

	log := cfg.Logger
	if log == nil {
		log = NopLogger{}
	}

	return &ChunkPool{
		blockSize:   blockSize,
		firstBlocks: uint32(cfg.FirstChunkBlocks),
		growBlocks:  uint32(cfg.GrowChunkBlocks),
		recycle:     recycle,
		variant:     variant,
		log:         log,
	}, nil
}

// checkChunkBytes rejects a (blocks, blockSize) pair whose total byte size
// would overflow int: a chunk that large can never be constructed, so
// Create fails instead of wrapping or truncating silently.
func checkChunkBytes(blocks, blockSize int) error {
	if blocks <= 0 || blockSize <= 0 {
		return ErrInvalidConfig
	}
	if blocks > math.MaxInt/blockSize {
		return ErrInvalidConfig
	}
	return nil
}

func newChunkOf(blocks uint32, blockSize int) (*chunk, error) {
	region, err := hostAlloc(int(blocks) * blockSize)
	if err != nil {
		return nil, err
	}

	payload := region.Data[:int(blocks)*blockSize]
	for i := uint32(0); i < blocks; i++ {
		binary.LittleEndian.PutUint32(payload[int(i)*blockSize:], i+1)
	}

	return &chunk{
		payload:    payload,
		region:     region,
		blockCount: blocks,
		available:  blocks,
		firstFree:  0,
	}, nil
}

// Malloc serves the head of the free chain (the most recently freed slot,
// or the next unused index of a fresh chunk) of the first chunk in list
// order with room, growing the chunk list if every chunk is full. Chunks
// are linked newest first.
func (p *ChunkPool) Malloc() ([]byte, error) {
	if p.chunks == nil {
		c, err := newChunkOf(p.firstBlocks, p.blockSize)
		if err != nil {
			p.log.Error("mempool: host allocator failure building first chunk", err, "variant", p.variant)
			return nil, ErrNoBlock
		}
		p.chunks = c
		p.bootstrap = c
		p.stats.HostRegions++
		p.stats.HostBytes += len(c.region.Data)
		p.stats.IdleBlocks += int(c.available)
	}

	for c := p.chunks; c != nil; c = c.next {
		if c.available == 0 {
			continue
		}
		return p.serveFrom(c), nil
	}

	if p.growBlocks == 0 {
		p.log.Warn("mempool: pool exhausted, grow size is zero", "variant", p.variant)
		return nil, ErrNoBlock
	}

	c, err := newChunkOf(p.growBlocks, p.blockSize)
	if err != nil {
		p.log.Error("mempool: host allocator failure growing chunk list", err, "variant", p.variant)
		return nil, ErrNoBlock
	}
	c.next = p.chunks
	p.chunks = c
	p.stats.HostRegions++
	p.stats.HostBytes += len(c.region.Data)
	p.stats.IdleBlocks += int(c.available)

	return p.serveFrom(c), nil
}

func (p *ChunkPool) serveFrom(c *chunk) []byte {
	slot := c.payload[int(c.firstFree)*p.blockSize : (int(c.firstFree)+1)*p.blockSize]
	c.firstFree = binary.LittleEndian.Uint32(slot)
	c.available--
	p.stats.LiveBlocks++
	p.stats.IdleBlocks--
	return slot
}

// Free locates the chunk owning block by address-range containment and
// links the slot back onto that chunk's free chain. A pointer that does
// not fall within any known chunk is a no-op: the pool never forwards an
// unrecognized pointer to the host allocator.
func (p *ChunkPool) Free(block []byte) error {
	if len(block) == 0 {
		return nil
	}

	if p.destroyed {
		// Destroy already returned every chunk, and every slot in it, to
		// the host; there is nothing left to release for this block.
		p.log.Warn("mempool: free after destroy, block was released with its chunk", "variant", p.variant)
		return nil
	}

	var prev *chunk
	for c := p.chunks; c != nil; c = c.next {
		lo := ptrOf(c.payload)
		hi := addPtr(lo, len(c.payload))
		bp := ptrOf(block)
		if !(uintptrOf(bp) >= uintptrOf(lo) && uintptrOf(bp) < uintptrOf(hi)) {
			prev = c
			continue
		}

		slotIndex := (uintptrOf(bp) - uintptrOf(lo)) / uintptr(p.blockSize)
		slot := c.payload[int(slotIndex)*p.blockSize : (int(slotIndex)+1)*p.blockSize]
		binary.LittleEndian.PutUint32(slot, c.firstFree)
		c.firstFree = uint32(slotIndex)
		c.available++
		p.stats.LiveBlocks--
		p.stats.IdleBlocks++

		if p.recycle && c != p.bootstrap && c.available == c.blockCount {
			if prev == nil {
				p.chunks = c.next
			} else {
				prev.next = c.next
			}
			p.stats.HostRegions--
			p.stats.HostBytes -= len(c.region.Data)
			p.stats.IdleBlocks -= int(c.available)
			return hostFree(c.region)
		}
		return nil
	}

	p.log.Warn("mempool: free of a block not located in any chunk", "variant", p.variant)
	return ErrForeignBlock
}

// Destroy releases every chunk in order. Callers need not free individual
// blocks first; the chunk carries them, so Destroy is always leak-free
// regardless of caller discipline.
func (p *ChunkPool) Destroy() error {
	if p.destroyed {
		return ErrDestroyed
	}

	var firstErr error
	for c := p.chunks; c != nil; {
		next := c.next
		if err := hostFree(c.region); err != nil && firstErr == nil {
			firstErr = err
		}
		c = next
	}

	p.chunks = nil
	p.bootstrap = nil
	p.stats = Stats{}
	p.destroyed = true
	return firstErr
}

// Stats reports the pool's current bookkeeping.
func (p *ChunkPool) Stats() Stats { return p.stats }
