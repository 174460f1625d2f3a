//go:build amd64 && !purego

package avx2

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/internal/arch/blockops"
	"github.com/cwbudde/algo-wavelet/internal/arch/registry"
)

func init() {
	registry.Global.Register(registry.OpEntry{
		Name:      "avx2",
		SIMDLevel: cpu.SIMDAVX2,
		Priority:  20,
		Lanes:     4,
		Dot:       blockops.Dot,
		Axpy:      blockops.Axpy,
	})
}
