package generic

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "generic",
		SIMDLevel: cpu.SIMDNone,
		Priority:  0,
		Lanes:     1,
		Dot:       Dot,
		Axpy:      Axpy,
	})
}

// Dot is a 4x-unrolled pure Go dot product.
func Dot(a, b []float64) float64 {
	n := len(a)
	b = b[:n]
	var s0, s1, s2, s3 float64
	i := 0
	for ; i+3 < n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

// Axpy accumulates dst += scale*src without scratch.
func Axpy(dst, src, _ []float64, scale float64) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += scale * src[i]
	}
}
