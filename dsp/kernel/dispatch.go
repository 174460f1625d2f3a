package kernel

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-wavelet/dsp/buffer"
)

// ForwardFn fills dst[lo:hi] for a single band. dst spans every output.
type ForwardFn func(dst, signal, filter []float64, lo, hi int)

// CombinedFn fills approx[lo:hi] and detail[lo:hi] in one pass.
type CombinedFn func(approx, detail, signal, low, high []float64, lo, hi int)

// SynthesisFn overwrites dst with the reconstruction from both bands.
type SynthesisFn func(dst, approx, detail, low, high []float64)

// Ops is the full operation set of one execution path. Decimated forms
// produce len(signal)/2 outputs, MODWT forms len(signal).
type Ops struct {
	Algorithm       Algorithm
	Forward         ForwardFn
	Combined        CombinedFn
	Synthesize      SynthesisFn
	MODWT           ForwardFn
	MODWTCombined   CombinedFn
	MODWTSynthesize SynthesisFn
}

// Table is the closed dispatch table from Algorithm to Ops.
type Table struct {
	capability Capability
	ops        [algorithmCount]Ops
}

// NewTable builds the dispatch table for a capability. The Vector entry is
// bound to the capability's block primitives.
func NewTable(c Capability) *Table {
	return NewPooledTable(c, nil)
}

// NewPooledTable is NewTable with the Vector scratch (wrap-around windows
// and synthesis accumulators) taken from pool. A nil pool allocates.
func NewPooledTable(c Capability, pool *buffer.Pool) *Table {
	v := newVectorKernels(c, pool)
	return &Table{
		capability: c,
		ops: [algorithmCount]Ops{
			Scalar: {
				Algorithm:       Scalar,
				Forward:         forwardScalar,
				Combined:        combinedScalar,
				Synthesize:      synthesizeScalar,
				MODWT:           modwtScalar,
				MODWTCombined:   modwtCombinedScalar,
				MODWTSynthesize: modwtSynthesizeScalar,
			},
			Vector: {
				Algorithm:       Vector,
				Forward:         v.forward,
				Combined:        v.combined,
				Synthesize:      v.synthesize,
				MODWT:           v.modwt,
				MODWTCombined:   v.modwtCombined,
				MODWTSynthesize: v.modwtSynthesize,
			},
			Specialized: {
				Algorithm:       Specialized,
				Forward:         forwardSpecialized,
				Combined:        combinedSpecialized,
				Synthesize:      synthesizeSpecialized,
				MODWT:           modwtSpecialized,
				MODWTCombined:   modwtCombinedSpecialized,
				MODWTSynthesize: modwtSynthesizeSpecialized,
			},
		},
	}
}

// Ops returns the operations for a. It panics for values outside the
// closed Algorithm set, which can only come from a programming error.
func (t *Table) Ops(a Algorithm) Ops {
	if a < 0 || a >= algorithmCount {
		panic(fmt.Sprintf("kernel: unknown algorithm %d", int(a)))
	}
	return t.ops[a]
}

// Capability returns the capability the table was built for.
func (t *Table) Capability() Capability {
	return t.capability
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the table for the detected capability.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable(DetectCapability())
	})
	return defaultTable
}
