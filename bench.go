// Copyright 2026 The Memory-Pool Authors.
//
// Benchmark harness: runs the same allocate/write/free pattern against the
// host allocator (baseline) and against a selected pool variant, reporting
// wall-clock duration and the pool's own bookkeeping once the run
// completes. Mixed allocate/free mode drives its decisions off a seeded
// full-cycle generator so two runs sharing a seed issue the identical
// sequence.

package mempool

import (
	"time"

	"github.com/cznic/mathutil"
)

// sizedPool is the common shape the harness drives every variant through,
// regardless of whether that variant's own Malloc takes a size parameter.
type sizedPool interface {
	Malloc(size int) ([]byte, error)
	Free(block []byte) error
	Destroy() error
	Stats() Stats
}

// fixedSizePool adapts a fixed-block-size pool (FUL, FAL, FUB/FAB) whose
// Malloc takes no size argument to sizedPool, so the harness can drive it
// identically to VUL/VAL.
type fixedSizePool struct {
	malloc  func() ([]byte, error)
	free    func([]byte) error
	destroy func() error
	stats   func() Stats
}

func (a fixedSizePool) Malloc(int) ([]byte, error) { return a.malloc() }
func (a fixedSizePool) Free(b []byte) error        { return a.free(b) }
func (a fixedSizePool) Destroy() error             { return a.destroy() }
func (a fixedSizePool) Stats() Stats                { return a.stats() }

// BenchConfig configures one harness run. Fields correspond directly to the
// source's own build-time constants: MaxLen is MALLOC_MAX_LEN,
// InnerIterations is TEST_MALLOC_TIMES, OuterIterations is
// TEST_RETRY_TIMES, FirstChunkBlocks/GrowChunkBlocks are
// FIRST_CHUNK_BLOCKS/GROW_CHUNK_BLOCKS, AlignSize is ALIGN_SIZE, and
// RecycleThreshold is RECYCLE_IF_MORETHAN_BLOCKS.
type BenchConfig struct {
	Variant Variant

	MaxLen          int
	InnerIterations int
	OuterIterations int

	FirstChunkBlocks int
	GrowChunkBlocks  int
	AlignSize        int
	RecycleThreshold int

	// Random selects FAB's mixed allocate/free mode, driven by a seeded
	// full-cycle PRNG so two runs with the same Seed issue the
	// identical sequence. Ignored by every other variant, which always
	// run the fixed allocate-write-free ordering mode.
	Random bool
	Seed   int32

	Logger Logger
}

// BenchResult is one harness run's summary line.
type BenchResult struct {
	Variant    Variant
	Mode       string // "baseline" or "pool"
	Operations int
	Elapsed    time.Duration
	Stats      Stats
}

func newPoolForBench(cfg BenchConfig) (sizedPool, error) {
	switch cfg.Variant {
	case VariantFUL:
		p, err := NewFUL(FULConfig{BlockSize: cfg.MaxLen, Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		return fixedSizePool{p.Malloc, p.Free, p.Destroy, p.Stats}, nil

	case VariantFAL:
		p, err := NewFAL(FALConfig{BlockSize: cfg.MaxLen, RecycleThreshold: cfg.RecycleThreshold, Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		return fixedSizePool{p.Malloc, p.Free, p.Destroy, p.Stats}, nil

	case VariantFUB:
		p, err := NewFUB(ChunkConfig{BlockSize: cfg.MaxLen, FirstChunkBlocks: cfg.FirstChunkBlocks, GrowChunkBlocks: cfg.GrowChunkBlocks, Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		return fixedSizePool{p.Malloc, p.Free, p.Destroy, p.Stats}, nil

	case VariantFAB:
		p, err := NewFAB(ChunkConfig{BlockSize: cfg.MaxLen, FirstChunkBlocks: cfg.FirstChunkBlocks, GrowChunkBlocks: cfg.GrowChunkBlocks, Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		return fixedSizePool{p.Malloc, p.Free, p.Destroy, p.Stats}, nil

	case VariantVUL:
		return NewVUL(VULConfig{MaxBlockSize: cfg.MaxLen, AlignSize: cfg.AlignSize, Logger: cfg.Logger})

	case VariantVAL:
		return NewVAL(VALConfig{MaxBlockSize: cfg.MaxLen, AlignSize: cfg.AlignSize, RecycleThreshold: cfg.RecycleThreshold, Logger: cfg.Logger})

	default:
		return nil, ErrInvalidConfig
	}
}

// RunPool runs the benchmark pattern against the selected pool variant and
// returns its timing. Ordering mode (every variant except a FAB configured
// with Random) allocates one block, writes a terminator byte, frees it,
// InnerIterations times per outer iteration, for OuterIterations outer
// iterations. Random mode (FAB only) replaces that inner loop with a
// reproducible mixed allocate/free sequence.
func RunPool(cfg BenchConfig) (BenchResult, error) {
	pool, err := newPoolForBench(cfg)
	if err != nil {
		return BenchResult{}, err
	}

	log := cfg.Logger
	if log == nil {
		log = NopLogger{}
	}

	start := time.Now()
	var ops int
	if cfg.Random && cfg.Variant == VariantFAB {
		ops, err = runRandomPattern(pool, cfg)
	} else {
		ops, err = runOrderingPattern(pool, cfg)
	}
	elapsed := time.Since(start)
	if err != nil {
		pool.Destroy()
		return BenchResult{}, err
	}

	stats := pool.Stats()
	if derr := pool.Destroy(); derr != nil && err == nil {
		err = derr
	}

	result := BenchResult{Variant: cfg.Variant, Mode: "pool", Operations: ops, Elapsed: elapsed, Stats: stats}
	log.Info("mempool: benchmark summary", "variant", cfg.Variant, "mode", result.Mode, "ops", ops, "elapsed", elapsed.String(), "host_bytes", stats.HostBytes)
	return result, err
}

// RunBaseline runs the identical ordering pattern directly against the host
// (Go runtime) allocator, for comparison.
func RunBaseline(cfg BenchConfig) BenchResult {
	log := cfg.Logger
	if log == nil {
		log = NopLogger{}
	}

	start := time.Now()
	ops := 0
	for i := 0; i < cfg.OuterIterations; i++ {
		for j := 0; j < cfg.InnerIterations; j++ {
			size := 1 + j%cfg.MaxLen
			b := make([]byte, size)
			b[0] = 0
			ops++
		}
	}
	elapsed := time.Since(start)

	result := BenchResult{Variant: cfg.Variant, Mode: "baseline", Operations: ops, Elapsed: elapsed}
	log.Info("mempool: benchmark summary", "variant", cfg.Variant, "mode", result.Mode, "ops", ops, "elapsed", elapsed.String())
	return result
}

func runOrderingPattern(pool sizedPool, cfg BenchConfig) (int, error) {
	ops := 0
	for i := 0; i < cfg.OuterIterations; i++ {
		for j := 0; j < cfg.InnerIterations; j++ {
			size := 1 + j%cfg.MaxLen
			b, err := pool.Malloc(size)
			if err != nil {
				return ops, err
			}
			b[0] = 0
			if err := pool.Free(b); err != nil {
				return ops, err
			}
			ops++
		}
	}
	return ops, nil
}

// runRandomPattern drives mixed allocate/free decisions off a seeded
// full-cycle generator, so the sequence is exactly reproducible across runs
// sharing a seed.
func runRandomPattern(pool sizedPool, cfg BenchConfig) (int, error) {
	rng, err := mathutil.NewFC32(0, cfg.MaxLen, true)
	if err != nil {
		return 0, err
	}
	rng.Seed(cfg.Seed)

	var live [][]byte
	ops := 0
	for i := 0; i < cfg.OuterIterations; i++ {
		for j := 0; j < cfg.InnerIterations; j++ {
			if len(live) == 0 || rng.Next()%3 != 0 {
				size := 1 + rng.Next()%cfg.MaxLen
				b, err := pool.Malloc(size)
				if err != nil {
					return ops, err
				}
				b[0] = 0
				live = append(live, b)
			} else {
				k := rng.Next() % len(live)
				if err := pool.Free(live[k]); err != nil {
					return ops, err
				}
				live[k] = live[len(live)-1]
				live = live[:len(live)-1]
			}
			ops++
		}
	}

	for _, b := range live {
		if err := pool.Free(b); err != nil {
			return ops, err
		}
	}
	return ops, nil
}
