// Copyright 2026 The Memory-Pool Authors.

package mempool

import "testing"

func TestRunPoolEachVariant(t *testing.T) {
	variants := []Variant{VariantFUL, VariantFAL, VariantFUB, VariantFAB, VariantVUL, VariantVAL}
	for _, v := range variants {
		v := v
		t.Run(string(v), func(t *testing.T) {
			cfg := BenchConfig{
				Variant:          v,
				MaxLen:           256,
				InnerIterations:  200,
				OuterIterations:  3,
				FirstChunkBlocks: 16,
				GrowChunkBlocks:  16,
				AlignSize:        8,
				RecycleThreshold: 8,
			}
			res, err := RunPool(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if res.Operations != cfg.InnerIterations*cfg.OuterIterations {
				t.Fatalf("expected %d operations, got %d", cfg.InnerIterations*cfg.OuterIterations, res.Operations)
			}
		})
	}
}

func TestRunBaseline(t *testing.T) {
	res := RunBaseline(BenchConfig{Variant: VariantFUL, MaxLen: 64, InnerIterations: 50, OuterIterations: 2})
	if res.Mode != "baseline" {
		t.Fatalf("expected baseline mode, got %s", res.Mode)
	}
	if res.Operations != 100 {
		t.Fatalf("expected 100 operations, got %d", res.Operations)
	}
}

func TestRunPoolFABRandomMode(t *testing.T) {
	cfg := BenchConfig{
		Variant:          VariantFAB,
		MaxLen:           128,
		InnerIterations:  500,
		OuterIterations:  2,
		FirstChunkBlocks: 32,
		GrowChunkBlocks:  32,
		Random:           true,
		Seed:             42,
	}
	res1, err := RunPool(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res2, err := RunPool(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res1.Operations != res2.Operations {
		t.Fatalf("expected the same seed to produce the same operation count, got %d and %d", res1.Operations, res2.Operations)
	}
}

func BenchmarkMallocFreeFUL(b *testing.B) {
	p, err := NewFUL(FULConfig{BlockSize: 64})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Destroy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blk, err := p.Malloc()
		if err != nil {
			b.Fatal(err)
		}
		if err := p.Free(blk); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMallocFreeVAL(b *testing.B) {
	p, err := NewVAL(VALConfig{MaxBlockSize: 1024})
	if err != nil {
		b.Fatal(err)
	}
	defer p.Destroy()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		blk, err := p.Malloc(64)
		if err != nil {
			b.Fatal(err)
		}
		if err := p.Free(blk); err != nil {
			b.Fatal(err)
		}
	}
}
