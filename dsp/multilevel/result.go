package multilevel

import (
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
)

// Result is a multi-level decomposition: one detail band per level,
// finest first, and the coarsest approximation. It exclusively owns its
// coefficients.
type Result struct {
	mode         dwt.Mode
	signalLength int
	details      [][]float64
	approx       []float64
}

// Levels returns the number of decomposition levels.
func (r *Result) Levels() int { return len(r.details) }

// Mode returns the transform family of every level.
func (r *Result) Mode() dwt.Mode { return r.mode }

// SignalLength returns the length of the decomposed signal.
func (r *Result) SignalLength() int { return r.signalLength }

// Detail returns the detail band of a level; level 0 is the finest.
// It panics if level is out of range.
func (r *Result) Detail(level int) dwt.Coefficients {
	return dwt.OwnCoefficients(r.details[level])
}

// Details returns every detail band, finest first.
func (r *Result) Details() []dwt.Coefficients {
	out := make([]dwt.Coefficients, len(r.details))
	for i, d := range r.details {
		out[i] = dwt.OwnCoefficients(d)
	}
	return out
}

// FinalApproximation returns the approximation band of the coarsest level.
func (r *Result) FinalApproximation() dwt.Coefficients {
	return dwt.OwnCoefficients(r.approx)
}

// Energy returns the summed energy of all bands.
func (r *Result) Energy() float64 {
	e := r.FinalApproximation().Energy()
	for _, d := range r.Details() {
		e += d.Energy()
	}
	return e
}
