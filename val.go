// Copyright 2026 The Memory-Pool Authors.
//
// VAL: Variable block size, Able to recycle (bounded), List-bucketed, with
// big-block tracking. Extends VUL with a per-bucket idle-count threshold
// (the policy FAL inherits too) and a doubly-linked big-block list for
// allocations above the configured maximum size class.
//
// The big-block record is kept as an ordinary Go struct reachable from an
// address-keyed map: a side table keyed by the block address, with
// constant-time lookup, recovers a block's bookkeeping on Free without
// packing a doubly-linked list into the raw bytes ahead of the returned
// pointer, and a real *bigBlock is safer under the garbage collector than
// reinterpreting raw memory as a pointer-containing struct via unsafe.

package mempool

import "unsafe"

// VALConfig configures a VAL pool.
type VALConfig struct {
	// MaxBlockSize is M: requests at or below this are served from the
	// bucket table; requests above it are tracked as big blocks.
	MaxBlockSize int
	// AlignSize is A, a power of two; zero defaults to 8.
	AlignSize int
	// RecycleThreshold is R (RECYCLE_IF_MORETHAN_BLOCKS): once a
	// bucket's idle count would exceed this, Free releases the block to
	// the host instead of keeping it linked.
	RecycleThreshold int
	// CorrectedBucketing opts into the equal-width bucket formula.
	CorrectedBucketing bool
	Logger             Logger
}

type valBucket struct {
	head unsafe.Pointer
	idle int
}

// bigBlock tracks one oversize allocation so Destroy can release it
// whether or not the caller ever explicitly freed it.
type bigBlock struct {
	prev, next *bigBlock
	region     *hostRegion
	payload    unsafe.Pointer
}

// VALPool is a variable-length, size-classed pool with bounded per-bucket
// recycling and precise big-block teardown.
type VALPool struct {
	noCopy noCopy

	maxSize   int
	align     int
	threshold int
	bucket    func(int, int) int

	buckets []valBucket

	bigHead   *bigBlock
	bigByAddr map[uintptr]*bigBlock

	stats     Stats
	destroyed bool
	log       Logger
}

// NewVAL creates a VAL pool per cfg.
func NewVAL(cfg VALConfig) (*VALPool, error) {
	align := cfg.AlignSize
	if align == 0 {
		align = defaultAlignSize
	}
	if align < 2 || align&(align-1) != 0 {
		return nil, ErrInvalidConfig
	}
	if cfg.MaxBlockSize <= 0 || cfg.RecycleThreshold < 0 {
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

	return &VALPool{
		maxSize:   maxSize,
		align:     align,
		threshold: cfg.RecycleThreshold,
		bucket:    bucketFn,
		buckets:   make([]valBucket, bucketCount(maxSize, align, bucketFn)),
		bigByAddr: map[uintptr]*bigBlock{},
		log:       log,
	}, nil
}

// Malloc returns a block of at least size bytes, served from a size-class
// bucket when size <= the configured maximum, or tracked as a big block
// otherwise.
func (p *VALPool) Malloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidConfig
	}

	if size <= p.maxSize {
		return p.mallocSmall(size)
	}
	return p.mallocBig(size)
}

func (p *VALPool) mallocSmall(size int) ([]byte, error) {
	i := p.bucket(size, p.align)
	b := &p.buckets[i]

	if b.head != nil {
		node, newHead := listPop(b.head)
		b.head = newHead
		b.idle--
		writePrefix(node, size)
		p.stats.LiveBlocks++
		p.stats.IdleBlocks--
		return unsafe.Slice((*byte)(payloadOf(node)), size), nil
	}

	payloadBytes := roundUp(size, p.align)
	if payloadBytes < minBlockSize() {
		payloadBytes = minBlockSize()
	}

	region, err := hostAlloc(regionHeaderSize + lengthPrefixSize + payloadBytes)
	if err != nil {
		p.log.Error("mempool: host allocator failure", err, "variant", VariantVAL)
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

func (p *VALPool) mallocBig(size int) ([]byte, error) {
	region, err := hostAlloc(regionHeaderSize + lengthPrefixSize + size)
	if err != nil {
		p.log.Error("mempool: host allocator failure", err, "variant", VariantVAL)
		return nil, ErrNoBlock
	}

	base := ptrOf(region.Data)
	writeRegionHeader(base, len(region.Data))
	node := nodeFromBase(base)
	// A sentinel, not the exact size: size may itself exceed what a
	// 16-bit prefix can hold. Free classifies big blocks through the
	// address-keyed side table, not by the prefix's magnitude.
	writePrefix(node, maxBlockLen)
	payload := payloadOf(node)

	bb := &bigBlock{region: region, payload: payload}
	bb.next = p.bigHead
	if p.bigHead != nil {
		p.bigHead.prev = bb
	}
	p.bigHead = bb
	p.bigByAddr[uintptr(payload)] = bb

	p.stats.LiveBlocks++
	p.stats.HostRegions++
	p.stats.HostBytes += len(region.Data)
	return unsafe.Slice((*byte)(payload), size), nil
}

// Free returns block to its bucket, unless the bucket's idle count would
// then exceed RecycleThreshold (release to host instead), or releases a
// tracked big block directly.
func (p *VALPool) Free(block []byte) error {
	if len(block) == 0 {
		return nil
	}

	addr := ptrOf(block)
	if p.destroyed {
		node := nodeFromPayload(addr)
		base := baseFromNode(node)
		size := readRegionHeader(base)
		p.log.Warn("mempool: free after destroy, releasing directly to host", "variant", VariantVAL)
		return rawMunmap(base, size)
	}

	if bb, ok := p.bigByAddr[uintptr(addr)]; ok {
		delete(p.bigByAddr, uintptr(addr))
		p.unlinkBig(bb)
		p.stats.LiveBlocks--
		p.stats.HostRegions--
		p.stats.HostBytes -= len(bb.region.Data)
		return hostFree(bb.region)
	}

	node := nodeFromPayload(addr)
	size := int(readPrefix(node))
	i := p.bucket(size, p.align)
	b := &p.buckets[i]

	p.stats.LiveBlocks--
	if b.idle+1 > p.threshold {
		base := baseFromNode(node)
		regionSize := readRegionHeader(base)
		p.stats.HostRegions--
		p.stats.HostBytes -= regionSize
		return rawMunmap(base, regionSize)
	}

	b.head = listPush(b.head, node)
	b.idle++
	p.stats.IdleBlocks++
	return nil
}

func (p *VALPool) unlinkBig(bb *bigBlock) {
	if bb.prev != nil {
		bb.prev.next = bb.next
	} else {
		p.bigHead = bb.next
	}
	if bb.next != nil {
		bb.next.prev = bb.prev
	}
	bb.prev, bb.next = nil, nil
}

// Destroy releases every bucketed node and every tracked big block,
// including ones the caller never freed.
func (p *VALPool) Destroy() error {
	if p.destroyed {
		return ErrDestroyed
	}

	var firstErr error

	for i := range p.buckets {
		b := &p.buckets[i]
		for b.head != nil {
			node, next := listPop(b.head)
			base := baseFromNode(node)
			size := readRegionHeader(base)
			if err := rawMunmap(base, size); err != nil && firstErr == nil {
				firstErr = err
			}
			b.head = next
		}
		b.idle = 0
	}

	for bb := p.bigHead; bb != nil; {
		next := bb.next
		if err := hostFree(bb.region); err != nil && firstErr == nil {
			firstErr = err
		}
		bb = next
	}

	p.bigHead = nil
	p.bigByAddr = map[uintptr]*bigBlock{}
	p.stats = Stats{}
	p.destroyed = true
	return firstErr
}

// Stats reports the pool's current bookkeeping.
func (p *VALPool) Stats() Stats { return p.stats }
