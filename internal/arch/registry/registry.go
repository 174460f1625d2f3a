// Package registry holds the block primitives the vectorized kernels are
// built on, one entry per SIMD level, resolved by priority against the
// detected CPU features.
//
// The SSE2, AVX2 and NEON entries all bind the algo-vecmath block routines,
// which pick their own SIMD implementation at run time. Those entries
// differ only in SIMDLevel and Lanes. Lanes gates the vector path and sets
// the default batch crossover; SIMDLevel picks the cache parameters.
package registry

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// DotFn returns sum(a[i]*b[i]) over equal-length slices.
type DotFn func(a, b []float64) float64

// AxpyFn accumulates dst[i] += scale*src[i]. tmp has len(src) and may be
// clobbered; implementations that do not need it ignore it.
type AxpyFn func(dst, src, tmp []float64, scale float64)

// OpEntry is one registered block-primitive implementation.
type OpEntry struct {
	Name      string
	SIMDLevel cpu.SIMDLevel
	Priority  int
	Lanes     int // float64 lanes per vector register
	Dot       DotFn
	Axpy      AxpyFn
}

// OpRegistry stores available implementations.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the default registry populated by the backend packages' init.
var Global = &OpRegistry{}

// Register adds an implementation entry.
func (r *OpRegistry) Register(entry OpEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by features.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if cpu.Supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// ListEntries returns a copy of entries for tests/debugging.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Reset clears all entries. Intended for tests.
func (r *OpRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}
