// Package spsc implements a wait-free single-producer/single-consumer ring
// buffer over a fixed-capacity array of POD elements. It is the uniform
// cross-context message transport used everywhere the audio callback and the
// control loop need to hand data to each other without a lock.
package spsc

import "sync/atomic"

// Ring is a fixed-capacity SPSC ring buffer over T. Capacity must be a power
// of two; NewRing rounds up if it isn't. Exactly one producer goroutine may
// call Push and exactly one consumer goroutine may call Pop; Size may be
// called from either side as an advisory snapshot.
//
// One slot is always left empty to distinguish a full ring from an empty
// one without a separate counter.
type Ring[T any] struct {
	buf  []T
	mask uint32

	// writeIdx is owned by the producer; readIdx is owned by the consumer.
	// Both sides may read the other's index.
	writeIdx atomic.Uint32
	readIdx  atomic.Uint32
}

// NewRing allocates a ring of capacity slots (rounded up to the next power of
// two, minimum 2). One slot always stays empty, so Capacity() is one less.
func NewRing[T any](capacity int) *Ring[T] {
	c := nextPowerOfTwo(capacity)
	if c < 2 {
		c = 2
	}
	return &Ring[T]{
		buf:  make([]T, c),
		mask: uint32(c - 1),
	}
}

// Push attempts to enqueue item. It returns false, without blocking, if the
// ring is full. The caller (the producer context) owns the decision of what
// to do on failure; per the core's resource-shortage policy, the standard
// response is to drop the item.
func (r *Ring[T]) Push(item T) bool {
	w := r.writeIdx.Load()
	next := w + 1
	if next&r.mask == r.readIdx.Load()&r.mask {
		return false
	}
	r.buf[w&r.mask] = item
	r.writeIdx.Store(next)
	return true
}

// Pop attempts to dequeue one item into out. It returns false, without
// blocking, if the ring is empty.
func (r *Ring[T]) Pop(out *T) bool {
	rd := r.readIdx.Load()
	if rd == r.writeIdx.Load() {
		return false
	}
	*out = r.buf[rd&r.mask]
	r.readIdx.Store(rd + 1)
	return true
}

// Size returns an advisory count of queued items. The snapshot may be stale
// by the time the caller observes it; it must never be used to decide
// whether Push/Pop will succeed.
func (r *Ring[T]) Size() int {
	return int(r.writeIdx.Load() - r.readIdx.Load())
}

// Capacity returns the number of usable slots (one less than the backing
// array, since one slot is always kept empty).
func (r *Ring[T]) Capacity() int {
	return len(r.buf) - 1
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
