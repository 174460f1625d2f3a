package buffer

import "sync/atomic"

// slab is the pooled storage. It is only reachable through one live
// Buffer at a time.
type slab struct {
	data  []float64
	class int
	gen   uint64
}

// Buffer is the lease on one pooled slab. Every Acquire returns a new
// Buffer, so releasing a stale lease never returns storage that has since
// been handed to another holder. Samples is valid until Release.
type Buffer struct {
	slab    atomic.Pointer[slab]
	samples []float64
}

func newBuffer(s *slab, n int) *Buffer {
	b := &Buffer{samples: s.data[:n]}
	b.slab.Store(s)
	return b
}

// Samples returns the scratch slice of the requested length.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Len returns the requested length.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Cap returns the size-class capacity of the backing array.
func (b *Buffer) Cap() int {
	return cap(b.samples)
}

// Zero sets all samples to 0.
func (b *Buffer) Zero() {
	clear(b.samples)
}

// Released reports whether the lease has ended.
func (b *Buffer) Released() bool {
	return b.slab.Load() == nil
}
