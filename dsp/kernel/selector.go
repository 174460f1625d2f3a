package kernel

import (
	"github.com/cwbudde/algo-wavelet/dsp/core"
)

const (
	// DefaultSmallSignalThreshold is the signal length below which the
	// scalar loops win because vector setup dominates.
	DefaultSmallSignalThreshold = 64

	// DefaultMinVectorTaps is the shortest filter worth a dot product.
	DefaultMinVectorTaps = 4
)

// Request describes one transform call for algorithm selection.
type Request struct {
	SignalLength     int
	FilterLength     int
	Specialization   Specialization
	AllowSpecialized bool
	ForceScalar      bool
	ForceSIMD        bool
}

// Selector chooses an Algorithm. It is a pure function of the request and
// the injected capability; identical inputs always select identically.
type Selector struct {
	capability    Capability
	smallSignal   int
	minVectorTaps int
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithSmallSignalThreshold sets the length below which Scalar is preferred.
func WithSmallSignalThreshold(n int) SelectorOption {
	return func(s *Selector) {
		if n >= 0 {
			s.smallSignal = n
		}
	}
}

// WithMinVectorTaps sets the shortest filter for which Vector is preferred.
func WithMinVectorTaps(n int) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.minVectorTaps = n
		}
	}
}

// NewSelector returns a selector bound to c.
func NewSelector(c Capability, opts ...SelectorOption) Selector {
	s := Selector{
		capability:    c,
		smallSignal:   DefaultSmallSignalThreshold,
		minVectorTaps: DefaultMinVectorTaps,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Capability returns the injected platform capability.
func (s Selector) Capability() Capability {
	return s.capability
}

// Select picks the execution path. Force flags win over every heuristic;
// setting both is a configuration error.
func (s Selector) Select(req Request) (Algorithm, error) {
	const op = "kernel.Select"
	if req.ForceScalar && req.ForceSIMD {
		return Scalar, core.Invalid(op, "force", "scalar+simd", "ForceScalar and ForceSIMD are mutually exclusive")
	}
	switch {
	case req.ForceScalar:
		return Scalar, nil
	case req.ForceSIMD:
		return Vector, nil
	case req.SignalLength < s.smallSignal:
		return Scalar, nil
	case req.AllowSpecialized && req.Specialization != None:
		return Specialized, nil
	case s.capability.VectorAvailable && req.FilterLength >= s.minVectorTaps:
		return Vector, nil
	default:
		return Scalar, nil
	}
}
