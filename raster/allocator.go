package raster

import (
	"math/bits"
	"sync"
)

// Allocator provides the memory glyph bitmaps are rendered into.
//
// Alloc must return a zeroed slice of length n. Free hands a slice back once
// the caller is done with it; implementations may reuse it.
type Allocator interface {
	Alloc(n int) []byte
	Free(b []byte)
}

// HeapAllocator allocates every bitmap from the Go heap and leaves reclamation
// to the garbage collector.
type HeapAllocator struct{}

// Alloc implements Allocator.
func (HeapAllocator) Alloc(n int) []byte {
	return make([]byte, n)
}

// Free implements Allocator.
func (HeapAllocator) Free([]byte) {}

// PoolAllocator reuses bitmap buffers grouped by power-of-two capacity.
// Glyphs of one font at one size cluster into a handful of classes, so a
// whole atlas build typically touches only a few buffers.
//
// PoolAllocator is safe for concurrent use.
type PoolAllocator struct {
	mu      sync.Mutex
	buckets map[int][][]byte
	maxSize int // max buffers per bucket

	allocs uint64
	frees  uint64
	reused uint64
}

// PoolStats reports PoolAllocator activity.
type PoolStats struct {
	Allocs uint64
	Frees  uint64
	Reused uint64
}

// Outstanding returns the number of buffers handed out and not yet freed.
func (s PoolStats) Outstanding() int {
	return int(s.Allocs - s.Frees) //nolint:gosec // frees never exceed allocs for well-behaved callers
}

// NewPoolAllocator creates a pool retaining at most maxPerBucket buffers per
// capacity class. A maxPerBucket of 0 means unlimited.
func NewPoolAllocator(maxPerBucket int) *PoolAllocator {
	return &PoolAllocator{
		buckets: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

// Alloc implements Allocator.
func (p *PoolAllocator) Alloc(n int) []byte {
	class := sizeClass(n)

	p.mu.Lock()
	p.allocs++
	bucket := p.buckets[class]
	if len(bucket) > 0 {
		b := bucket[len(bucket)-1]
		p.buckets[class] = bucket[:len(bucket)-1]
		p.reused++
		p.mu.Unlock()

		b = b[:n]
		clear(b)
		return b
	}
	p.mu.Unlock()

	return make([]byte, n, class)
}

// Free implements Allocator.
func (p *PoolAllocator) Free(b []byte) {
	if b == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.frees++

	class := cap(b)
	if class != sizeClass(class) {
		// Not one of ours; let the GC have it.
		return
	}
	bucket := p.buckets[class]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[class] = append(bucket, b[:0])
}

// Stats returns a snapshot of pool activity.
func (p *PoolAllocator) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Allocs: p.allocs, Frees: p.frees, Reused: p.reused}
}

// sizeClass rounds n up to a power of two, with a floor of 64 bytes.
func sizeClass(n int) int {
	if n <= 64 {
		return 64
	}
	return 1 << bits.Len(uint(n-1))
}
