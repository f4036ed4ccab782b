// Package pool provides unified object pooling for LazyVec.
// It offers type-safe object recycling built on sync.Pool, reducing
// garbage collection pressure where allocations repeat: compression
// encoders and the scratch buffers state serialization stages through.
//
// Example usage:
//
//	// Using a custom pool
//	encoders := pool.New(
//	    func() *zstd.Encoder { enc, _ := zstd.NewWriter(nil); return enc },
//	    nil,
//	)
//	enc := encoders.Get()
//	defer encoders.Put(enc)
//
//	// Using the bucketed buffer pool
//	buffers := pool.NewBufferPool()
//	buf := buffers.Get(4096)
//	defer buffers.Put(buf)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and automatic reset
// functionality. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		hits      int64
	}
}

// New creates a new typed pool with custom allocation and reset functions.
// The new function is called when the pool is empty. The reset function,
// if non-nil, is called before returning an object to the pool.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   newFn,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.hits, 1)
	return obj
}

// Put returns an object to the pool for reuse, resetting it first when a
// reset function was configured.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns pool usage counters.
func (p *Pool[T]) Stats() (allocated, inUse, hits int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.hits)
}

// BufferPool manages byte slices in size-based buckets so that a request
// is served from the smallest bucket that fits.
type BufferPool struct {
	buckets []*Pool[*[]byte]
	sizes   []int
}

// NewBufferPool creates a buffer pool with power-of-two buckets from 1KB
// to 1MB.
func NewBufferPool() *BufferPool {
	sizes := []int{1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10, 1 << 20}
	bp := &BufferPool{sizes: sizes}
	for _, size := range sizes {
		size := size
		bp.buckets = append(bp.buckets, New(
			func() *[]byte {
				b := make([]byte, 0, size)
				return &b
			},
			func(b *[]byte) { *b = (*b)[:0] },
		))
	}
	return bp
}

// Get returns a buffer with at least the requested capacity. Buffers larger
// than the biggest bucket are allocated directly and not pooled on Put.
func (p *BufferPool) Get(size int) *[]byte {
	for i, s := range p.sizes {
		if size <= s {
			return p.buckets[i].Get()
		}
	}
	b := make([]byte, 0, size)
	return &b
}

// Put returns a buffer to its bucket. Oversized buffers are dropped.
func (p *BufferPool) Put(buf *[]byte) {
	c := cap(*buf)
	for i, s := range p.sizes {
		if c == s {
			p.buckets[i].Put(buf)
			return
		}
	}
}
