package dwt

import (
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
)

// Coefficients is a read-only view of one coefficient band. The zero value
// is an empty band.
type Coefficients struct {
	data []float64
}

// OwnCoefficients wraps data without copying. The caller hands over
// ownership and must not modify data afterwards.
func OwnCoefficients(data []float64) Coefficients {
	return Coefficients{data: data}
}

// Len returns the number of coefficients.
func (c Coefficients) Len() int { return len(c.data) }

// At returns coefficient i. It panics if i is out of range.
func (c Coefficients) At(i int) float64 { return c.data[i] }

// CopyTo copies the coefficients into dst and returns the number copied.
func (c Coefficients) CopyTo(dst []float64) int { return copy(dst, c.data) }

// Values returns a copy of the coefficients.
func (c Coefficients) Values() []float64 {
	out := make([]float64, len(c.data))
	copy(out, c.data)
	return out
}

// Energy returns the sum of squared coefficients.
func (c Coefficients) Energy() float64 { return core.Energy(c.data) }

// Result holds the two bands of a single-level transform. It exclusively
// owns its storage and never hands out aliases into it.
type Result struct {
	approx       Coefficients
	detail       Coefficients
	mode         Mode
	signalLength int
	algorithm    kernel.Algorithm
}

// NewResult takes ownership of approx and detail.
func NewResult(approx, detail []float64, mode Mode, signalLength int, alg kernel.Algorithm) *Result {
	return &Result{
		approx:       OwnCoefficients(approx),
		detail:       OwnCoefficients(detail),
		mode:         mode,
		signalLength: signalLength,
		algorithm:    alg,
	}
}

// Approximation returns the low-pass band.
func (r *Result) Approximation() Coefficients { return r.approx }

// Detail returns the high-pass band.
func (r *Result) Detail() Coefficients { return r.detail }

// Mode returns the transform family that produced r.
func (r *Result) Mode() Mode { return r.mode }

// SignalLength returns the length of the analysed signal.
func (r *Result) SignalLength() int { return r.signalLength }

// Algorithm returns the kernel path that produced r.
func (r *Result) Algorithm() kernel.Algorithm { return r.algorithm }

// Energy returns the combined energy of both bands.
func (r *Result) Energy() float64 { return r.approx.Energy() + r.detail.Energy() }
