package buffer

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-wavelet/dsp/core"
	"go.uber.org/zap"
)

// MaxPooledLength is the largest length Acquire serves (512 MiB of float64).
const MaxPooledLength = 1 << 26

const numClasses = 27 // capacities 1<<0 .. 1<<26

// Stats is a snapshot of pool counters.
type Stats struct {
	Hits       uint64 // Acquire served from a pooled buffer
	Misses     uint64 // Acquire allocated
	Releases   uint64 // buffers returned to the current generation
	Drops      uint64 // buffers released after a Clear, discarded
	Generation uint64
}

type generation struct {
	id    uint64
	pools [numClasses]sync.Pool
}

// Pool hands out power-of-two sized scratch buffers. It is safe for
// concurrent use. The zero value is not usable; call NewPool.
type Pool struct {
	current  atomic.Pointer[generation]
	hits     atomic.Uint64
	misses   atomic.Uint64
	releases atomic.Uint64
	drops    atomic.Uint64
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	p := &Pool{}
	p.current.Store(&generation{})
	return p
}

// classFor returns the size class whose capacity 1<<class holds n.
func classFor(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Acquire returns a buffer of length n. Its contents are unspecified.
func (p *Pool) Acquire(n int) (*Buffer, error) {
	if n < 0 {
		return nil, core.Invalid("buffer.Acquire", "n", n, "must be >= 0")
	}
	if n > MaxPooledLength {
		return nil, fmt.Errorf("buffer: acquire %d floats (max %d): %w", n, MaxPooledLength, core.ErrResourceExhausted)
	}

	gen := p.current.Load()
	class := classFor(n)
	if v := gen.pools[class].Get(); v != nil {
		p.hits.Add(1)
		return newBuffer(v.(*slab), n), nil
	}

	p.misses.Add(1)
	s := &slab{
		data:  make([]float64, core.NextPowerOfTwo(n)),
		class: class,
		gen:   gen.id,
	}
	return newBuffer(s, n), nil
}

// Release ends the lease b and returns its storage to the size class.
// Releasing nil or an already released lease is a no-op, even after the
// storage has been acquired again. Storage acquired before the last Clear
// is dropped.
func (p *Pool) Release(b *Buffer) {
	if b == nil {
		return
	}
	s := b.slab.Swap(nil)
	if s == nil {
		return
	}
	b.samples = nil

	gen := p.current.Load()
	if s.gen != gen.id {
		p.drops.Add(1)
		return
	}
	gen.pools[s.class].Put(s)
	p.releases.Add(1)
}

// Clear discards every pooled buffer by starting a new generation.
func (p *Pool) Clear() {
	for {
		old := p.current.Load()
		next := &generation{id: old.id + 1}
		if p.current.CompareAndSwap(old, next) {
			core.Logger().Debug("buffer pool cleared", zap.Uint64("generation", next.id))
			return
		}
	}
}

// Stats returns a snapshot of the counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Hits:       p.hits.Load(),
		Misses:     p.misses.Load(),
		Releases:   p.releases.Load(),
		Drops:      p.drops.Load(),
		Generation: p.current.Load().id,
	}
}

// WithBuffer runs fn with a scratch slice of length n and releases it on
// every exit path. A nil pool allocates a fresh slice.
func WithBuffer(p *Pool, n int, fn func(scratch []float64) error) error {
	if p == nil {
		if n < 0 {
			return core.Invalid("buffer.WithBuffer", "n", n, "must be >= 0")
		}
		return fn(make([]float64, n))
	}
	b, err := p.Acquire(n)
	if err != nil {
		return err
	}
	defer p.Release(b)
	return fn(b.Samples())
}
