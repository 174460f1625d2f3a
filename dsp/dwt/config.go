package dwt

import (
	"fmt"

	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// Boundary selects how samples past either end of the signal are read.
type Boundary int

const (
	// BoundaryPeriodic treats the signal as circular. It is the only
	// supported mode.
	BoundaryPeriodic Boundary = iota
	// BoundarySymmetric mirrors the signal at its ends.
	BoundarySymmetric
	// BoundaryZero pads with zeros.
	BoundaryZero
)

func (b Boundary) String() string {
	switch b {
	case BoundaryPeriodic:
		return "periodic"
	case BoundarySymmetric:
		return "symmetric"
	case BoundaryZero:
		return "zero"
	default:
		return fmt.Sprintf("Boundary(%d)", int(b))
	}
}

// Mode selects the transform family.
type Mode int

const (
	// ModeDWT is the decimated transform: two bands of N/2 coefficients.
	ModeDWT Mode = iota
	// ModeMODWT is the maximal-overlap transform: two bands of N coefficients.
	ModeMODWT
)

func (m Mode) String() string {
	switch m {
	case ModeDWT:
		return "dwt"
	case ModeMODWT:
		return "modwt"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config controls kernel selection for a Transformer.
type Config struct {
	ForceScalar           bool
	ForceSIMD             bool
	Boundary              Boundary
	UseSpecializedKernels bool
	UseCacheBlocking      bool
}

// DefaultConfig returns the automatic configuration: periodic boundaries,
// specialized kernels and cache blocking enabled, no forced path.
func DefaultConfig() Config {
	return Config{
		Boundary:              BoundaryPeriodic,
		UseSpecializedKernels: true,
		UseCacheBlocking:      true,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	const op = "dwt.Config"
	if c.ForceScalar && c.ForceSIMD {
		return core.Invalid(op, "ForceSIMD", true, "ForceScalar and ForceSIMD are mutually exclusive")
	}
	if c.Boundary != BoundaryPeriodic {
		return core.Invalid(op, "Boundary", c.Boundary, "only periodic boundaries are supported")
	}
	return nil
}
