package kernel

import (
	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/internal/arch/registry"
)

// vectorKernels evaluates every output as one dot product over a contiguous
// window. Outputs whose window wraps read from a periodic extension of the
// tail, so the hot loop never branches on the boundary.
type vectorKernels struct {
	dot  registry.DotFn
	axpy registry.AxpyFn
	pool *buffer.Pool
}

func newVectorKernels(c Capability, pool *buffer.Pool) vectorKernels {
	dot, axpy := c.blocks()
	return vectorKernels{dot: dot, axpy: axpy, pool: pool}
}

// withScratch runs fn with n pooled floats. If the pool cannot serve n the
// scratch is allocated instead.
func (v vectorKernels) withScratch(n int, fn func(scratch []float64)) {
	err := buffer.WithBuffer(v.pool, n, func(scratch []float64) error {
		fn(scratch)
		return nil
	})
	if err != nil {
		fn(make([]float64, n))
	}
}

// periodicExtension fills ext with x[(start+j) mod n].
func periodicExtension(ext, x []float64, start int) {
	n := len(x)
	idx := start % n
	for j := range ext {
		ext[j] = x[idx]
		idx++
		if idx == n {
			idx = 0
		}
	}
}

// interiorLimit returns the first output whose window of taps samples,
// starting at stride*i, runs past the end of a length-n signal.
func interiorLimit(n, taps, stride, outputs int) int {
	if taps > n {
		return 0
	}
	limit := (n-taps)/stride + 1
	return min(limit, outputs)
}

func (v vectorKernels) forward(dst, x, f []float64, lo, hi int) {
	taps := len(f)
	split := min(max(interiorLimit(len(x), taps, 2, len(x)/2), lo), hi)
	for i := lo; i < split; i++ {
		dst[i] = v.dot(f, x[2*i:])
	}
	if split >= hi {
		return
	}
	start := 2 * split
	v.withScratch(2*(hi-1)+taps-start, func(ext []float64) {
		periodicExtension(ext, x, start)
		for i := split; i < hi; i++ {
			dst[i] = v.dot(f, ext[2*i-start:])
		}
	})
}

func (v vectorKernels) combined(approx, detail, x, low, high []float64, lo, hi int) {
	taps := len(low)
	split := min(max(interiorLimit(len(x), taps, 2, len(x)/2), lo), hi)
	for i := lo; i < split; i++ {
		w := x[2*i:]
		approx[i] = v.dot(low, w)
		detail[i] = v.dot(high, w)
	}
	if split >= hi {
		return
	}
	start := 2 * split
	v.withScratch(2*(hi-1)+taps-start, func(ext []float64) {
		periodicExtension(ext, x, start)
		for i := split; i < hi; i++ {
			w := ext[2*i-start:]
			approx[i] = v.dot(low, w)
			detail[i] = v.dot(high, w)
		}
	})
}

// synthesize scatters scaled filters into a linear accumulator, then folds
// the overhang back onto the periodic output.
func (v vectorKernels) synthesize(dst, approx, detail, low, high []float64) {
	v.scatter(dst, approx, detail, low, high, 2)
}

func (v vectorKernels) modwt(dst, x, f []float64, lo, hi int) {
	taps := len(f)
	split := min(max(interiorLimit(len(x), taps, 1, len(x)), lo), hi)
	for t := lo; t < split; t++ {
		dst[t] = v.dot(f, x[t:])
	}
	if split >= hi {
		return
	}
	v.withScratch(hi-1+taps-split, func(ext []float64) {
		periodicExtension(ext, x, split)
		for t := split; t < hi; t++ {
			dst[t] = v.dot(f, ext[t-split:])
		}
	})
}

func (v vectorKernels) modwtCombined(approx, detail, x, low, high []float64, lo, hi int) {
	taps := len(low)
	split := min(max(interiorLimit(len(x), taps, 1, len(x)), lo), hi)
	for t := lo; t < split; t++ {
		w := x[t:]
		approx[t] = v.dot(low, w)
		detail[t] = v.dot(high, w)
	}
	if split >= hi {
		return
	}
	v.withScratch(hi-1+taps-split, func(ext []float64) {
		periodicExtension(ext, x, split)
		for t := split; t < hi; t++ {
			w := ext[t-split:]
			approx[t] = v.dot(low, w)
			detail[t] = v.dot(high, w)
		}
	})
}

func (v vectorKernels) modwtSynthesize(dst, approx, detail, low, high []float64) {
	v.scatter(dst, approx, detail, low, high, 1)
}

func (v vectorKernels) scatter(dst, approx, detail, low, high []float64, stride int) {
	n := len(dst)
	taps := len(low)
	width := stride*(len(approx)-1) + taps
	v.withScratch(width+taps, func(scratch []float64) {
		acc, tmp := scratch[:width], scratch[width:]
		core.Zero(acc)
		for i := range approx {
			w := acc[stride*i : stride*i+taps]
			v.axpy(w, low, tmp, approx[i])
			v.axpy(w, high, tmp, detail[i])
		}

		core.Zero(dst)
		for j, s := range acc {
			dst[j%n] += s
		}
	})
}
