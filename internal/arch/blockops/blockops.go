// Package blockops adapts algo-vecmath's SIMD block routines to the
// registry primitive signatures shared by the SIMD backends.
package blockops

import (
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// Dot returns the SIMD dot product of a and b[:len(a)].
func Dot(a, b []float64) float64 {
	return vecmath.DotProduct(a, b[:len(a)])
}

// Axpy computes dst += scale*src as a scale into tmp followed by an
// in-place add, the same two-step form conv uses for direct convolution.
func Axpy(dst, src, tmp []float64, scale float64) {
	n := len(dst)
	tmp = core.EnsureLen(tmp, n)
	vecmath.ScaleBlock(tmp, src[:n], scale)
	vecmath.AddBlockInPlace(dst, tmp)
}

// PairSum computes dst = (a + b) * scale, used by the Haar batch pass.
func PairSum(dst, a, b []float64, scale float64) {
	vecmath.AddMulBlock(dst, a, b, scale)
}
