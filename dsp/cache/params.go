// Package cache runs filter-bank kernels over output tiles sized to the
// cache hierarchy. It never changes per-output arithmetic: every strategy
// produces the same values as a single direct call.
package cache

import (
	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
)

// Params describes the cache hierarchy the executor blocks for.
//
//   - L1Bytes: working sets at or below this run direct.
//   - L2Bytes: working sets at or below this run blocked.
//   - TileOutputs: outputs per tile, sized so a tile's input span stays in L1.
//   - LineFloats: float64 values per cache line, the prefetch touch stride.
type Params struct {
	L1Bytes     int
	L2Bytes     int
	TileOutputs int
	LineFloats  int
}

// ParamsAVX512 assumes 48KB L1d and 1MB L2 (Ice Lake and later).
func ParamsAVX512() Params {
	return Params{
		L1Bytes:     48 << 10,
		L2Bytes:     1 << 20,
		TileOutputs: 2048, // 2 * 2048 * 8 bytes = 32KB input span
		LineFloats:  8,
	}
}

// ParamsAVX2 assumes 32KB L1d and 256KB L2 (Haswell and later).
func ParamsAVX2() Params {
	return Params{
		L1Bytes:     32 << 10,
		L2Bytes:     256 << 10,
		TileOutputs: 1024, // 2 * 1024 * 8 bytes = 16KB input span
		LineFloats:  8,
	}
}

// ParamsNEON assumes 64KB L1d and 1MB L2 (Cortex-A76 and Apple cores).
func ParamsNEON() Params {
	return Params{
		L1Bytes:     64 << 10,
		L2Bytes:     1 << 20,
		TileOutputs: 2048,
		LineFloats:  8,
	}
}

// ParamsFallback returns conservative parameters for unknown hardware.
func ParamsFallback() Params {
	return Params{
		L1Bytes:     32 << 10,
		L2Bytes:     256 << 10,
		TileOutputs: 512,
		LineFloats:  8,
	}
}

// ParamsFor maps a platform capability to blocking parameters.
func ParamsFor(c kernel.Capability) Params {
	switch c.SIMDLevel {
	case cpu.SIMDAVX512:
		return ParamsAVX512()
	case cpu.SIMDAVX2, cpu.SIMDAVX:
		return ParamsAVX2()
	case cpu.SIMDNEON:
		return ParamsNEON()
	default:
		return ParamsFallback()
	}
}

// Validate reports whether p is usable.
func (p Params) Validate() error {
	const op = "cache.Params"
	switch {
	case p.L1Bytes <= 0:
		return core.Invalid(op, "L1Bytes", p.L1Bytes, "must be > 0")
	case p.L2Bytes < p.L1Bytes:
		return core.Invalid(op, "L2Bytes", p.L2Bytes, "must be >= L1Bytes")
	case p.TileOutputs <= 0:
		return core.Invalid(op, "TileOutputs", p.TileOutputs, "must be > 0")
	case p.LineFloats <= 0:
		return core.Invalid(op, "LineFloats", p.LineFloats, "must be > 0")
	}
	return nil
}
