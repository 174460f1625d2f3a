//go:build arm64 && !purego

package neon

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/internal/arch/blockops"
	"github.com/cwbudde/algo-wavelet/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "neon",
		SIMDLevel: cpu.SIMDNEON,
		Priority:  15,
		Lanes:     2,
		Dot:       blockops.Dot,
		Axpy:      blockops.Axpy,
	})
}
