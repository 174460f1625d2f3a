// Package wavelet defines the filter capability consumed by the transform
// engine, plus the handful of orthogonal wavelets the kernels specialise on.
//
// The engine never inspects a wavelet beyond its taps and metadata; any
// type implementing Wavelet can be transformed.
package wavelet

import (
	"math"

	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// Wavelet exposes finite decomposition and reconstruction taps. Taps are
// returned as copies; implementations must be immutable.
type Wavelet interface {
	Name() string
	VanishingMoments() int
	LowPassDecomposition() []float64
	HighPassDecomposition() []float64
	LowPassReconstruction() []float64
	HighPassReconstruction() []float64
}

// Orthogonal is an orthogonal wavelet defined by its low-pass decomposition
// taps. The high-pass taps follow from the quadrature mirror relation and the
// reconstruction taps equal the decomposition taps.
type Orthogonal struct {
	name    string
	moments int
	low     []float64
	high    []float64
}

// NewOrthogonal builds an orthogonal wavelet from low-pass taps.
func NewOrthogonal(name string, moments int, low []float64) (*Orthogonal, error) {
	const op = "wavelet.NewOrthogonal"
	if err := core.CheckSignal(op, "low", low); err != nil {
		return nil, err
	}
	if moments < 0 {
		return nil, core.Invalid(op, "moments", moments, "must be non-negative")
	}
	return &Orthogonal{
		name:    name,
		moments: moments,
		low:     core.Clone(low),
		high:    QMF(low),
	}, nil
}

// Name returns the wavelet name.
func (w *Orthogonal) Name() string { return w.name }

// VanishingMoments returns the number of vanishing moments.
func (w *Orthogonal) VanishingMoments() int { return w.moments }

// LowPassDecomposition returns a copy of the scaling filter.
func (w *Orthogonal) LowPassDecomposition() []float64 { return core.Clone(w.low) }

// HighPassDecomposition returns a copy of the wavelet filter.
func (w *Orthogonal) HighPassDecomposition() []float64 { return core.Clone(w.high) }

// LowPassReconstruction returns a copy of the synthesis scaling filter.
func (w *Orthogonal) LowPassReconstruction() []float64 { return core.Clone(w.low) }

// HighPassReconstruction returns a copy of the synthesis wavelet filter.
func (w *Orthogonal) HighPassReconstruction() []float64 { return core.Clone(w.high) }

// QMF derives high-pass taps from low-pass taps: g[k] = (-1)^k * h[L-1-k].
func QMF(low []float64) []float64 {
	n := len(low)
	high := make([]float64, n)
	for k := range high {
		v := low[n-1-k]
		if k%2 == 1 {
			v = -v
		}
		high[k] = v
	}
	return high
}

// Validate rejects wavelets whose taps are empty, non-finite, or of unequal
// length between the low and high bands.
func Validate(w Wavelet) error {
	const op = "wavelet.Validate"
	if w == nil {
		return core.Invalid(op, "wavelet", "nil", "must not be nil")
	}
	low := w.LowPassDecomposition()
	high := w.HighPassDecomposition()
	if err := core.CheckSignal(op, "lowPassDecomposition", low); err != nil {
		return err
	}
	if err := core.CheckSignal(op, "highPassDecomposition", high); err != nil {
		return err
	}
	if len(low) != len(high) {
		return core.Invalid(op, "highPassDecomposition", len(high), "length must match low-pass length")
	}
	lowRec := w.LowPassReconstruction()
	highRec := w.HighPassReconstruction()
	if err := core.CheckSignal(op, "lowPassReconstruction", lowRec); err != nil {
		return err
	}
	if err := core.CheckSignal(op, "highPassReconstruction", highRec); err != nil {
		return err
	}
	if len(lowRec) != len(low) || len(highRec) != len(high) {
		return core.Invalid(op, "reconstruction", len(lowRec), "length must match decomposition length")
	}
	return nil
}

// IsOrthonormal reports whether the low-pass taps have unit energy and are
// orthogonal to their even shifts, within tol.
func IsOrthonormal(low []float64, tol float64) bool {
	n := len(low)
	if n == 0 || n%2 != 0 {
		return false
	}
	for shift := 0; shift < n; shift += 2 {
		var sum float64
		for k := 0; k+shift < n; k++ {
			sum += low[k] * low[k+shift]
		}
		want := 0.0
		if shift == 0 {
			want = 1
		}
		if math.Abs(sum-want) > tol {
			return false
		}
	}
	return true
}
