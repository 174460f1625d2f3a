package kernel

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/internal/arch/generic"
	"github.com/cwbudde/algo-wavelet/internal/arch/registry"
)

// Capability is the read-only platform description the selector and the
// vector kernels work from.
type Capability struct {
	Architecture    string
	SIMDLevel       cpu.SIMDLevel
	Backend         string // name of the registered block-primitive backend
	Lanes           int    // float64 lanes per vector
	VectorAvailable bool

	dot  registry.DotFn
	axpy registry.AxpyFn
}

var (
	detectedCapability Capability
	detectOnce         sync.Once
)

// DetectCapability probes the CPU once and returns the cached result.
func DetectCapability() Capability {
	detectOnce.Do(func() {
		detectedCapability = CapabilityFor(cpu.DetectFeatures())
	})
	return detectedCapability
}

// CapabilityFor resolves a capability for explicit features without caching.
// Tests use it to exercise every backend available on the build target.
func CapabilityFor(features cpu.Features) Capability {
	c := Capability{
		Architecture: features.Architecture,
		Backend:      "generic",
		Lanes:        1,
		dot:          generic.Dot,
		axpy:         generic.Axpy,
	}

	entry := registry.Global.Lookup(features)
	if entry == nil {
		return c
	}

	c.SIMDLevel = entry.SIMDLevel
	c.Backend = entry.Name
	if entry.Lanes > 0 {
		c.Lanes = entry.Lanes
	}
	if entry.Dot != nil && entry.Axpy != nil {
		c.dot = entry.Dot
		c.axpy = entry.Axpy
	}
	c.VectorAvailable = c.Lanes > 1
	return c
}

// blocks returns the block primitives, falling back to the generic loops
// for capabilities built by hand.
func (c Capability) blocks() (registry.DotFn, registry.AxpyFn) {
	if c.dot == nil || c.axpy == nil {
		return generic.Dot, generic.Axpy
	}
	return c.dot, c.axpy
}
