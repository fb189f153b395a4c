// Copyright 2026 The Memory-Pool Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mempool implements six fixed-function memory pool allocators —
// FUL, FAL, FUB, FAB, VUL, and VAL — plus a benchmark harness that compares
// each against the host allocator.
//
// Each variant trades a point across three axes: Fixed vs Variable block
// size, Unable vs Able to recycle memory back to the host, and intrusive
// List vs carved Block-chunk storage. None are safe for concurrent use;
// keep one pool per goroutine.
//
// Changelog
//
// 2026-07-31 Initial six-variant implementation plus benchmark harness.
package mempool
