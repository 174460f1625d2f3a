package kernel

import "fmt"

// Algorithm identifies one execution path of the filter bank.
type Algorithm int

const (
	// Scalar is the reference implementation.
	Scalar Algorithm = iota
	// Vector uses SIMD dot-product and axpy block primitives.
	Vector
	// Specialized uses unrolled code for recognised filter lengths.
	Specialized

	algorithmCount
)

// Algorithms lists every execution path.
func Algorithms() []Algorithm {
	return []Algorithm{Scalar, Vector, Specialized}
}

func (a Algorithm) String() string {
	switch a {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	case Specialized:
		return "specialized"
	default:
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
}

// Specialization identifies a filter length with a hand-unrolled kernel.
type Specialization int

const (
	// None means no unrolled kernel exists for the filter.
	None Specialization = iota
	// Taps2 covers 2-tap filters (Haar).
	Taps2
	// Taps8 covers 8-tap filters (DB4, Sym4).
	Taps8
)

func (s Specialization) String() string {
	switch s {
	case None:
		return "none"
	case Taps2:
		return "taps2"
	case Taps8:
		return "taps8"
	default:
		return fmt.Sprintf("Specialization(%d)", int(s))
	}
}

// Recognize maps a filter to its unrolled kernel, if any. The unrolled
// kernels are exact for any taps of the matching length.
func Recognize(filter []float64) Specialization {
	switch len(filter) {
	case 2:
		return Taps2
	case 8:
		return Taps8
	default:
		return None
	}
}
