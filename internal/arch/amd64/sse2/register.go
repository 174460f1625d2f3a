//go:build amd64 && !purego

package sse2

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/internal/arch/blockops"
	"github.com/cwbudde/algo-wavelet/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "sse2",
		SIMDLevel: cpu.SIMDSSE2,
		Priority:  10,
		Lanes:     2,
		Dot:       blockops.Dot,
		Axpy:      blockops.Axpy,
	})
}
