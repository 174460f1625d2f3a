package dwt

import (
	"math"

	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
)

// DefaultTolerance is the relative tolerance within which all kernel paths
// must agree.
const DefaultTolerance = 1e-9

// CheckConsistency runs the forward transforms of signal on every kernel
// path and compares them with the scalar reference. The DWT is checked
// when the length is even, the MODWT always. Divergence beyond tol,
// relative to the largest reference coefficient, is reported as a
// *core.InconsistencyError.
func (t *Transformer) CheckConsistency(signal []float64, tol float64) error {
	const op = "dwt.CheckConsistency"
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return err
	}
	if !(tol >= 0) {
		return core.Invalid(op, "tol", tol, "must be >= 0")
	}

	n := len(signal)
	return buffer.WithBuffer(t.pool, 4*n, func(scratch []float64) error {
		refA, refD := scratch[0:n], scratch[n:2*n]
		gotA, gotD := scratch[2*n:3*n], scratch[3*n:4*n]

		if n%2 == 0 {
			half := n / 2
			t.table.Ops(kernel.Scalar).Combined(refA[:half], refD[:half], signal, t.low, t.high, 0, half)
			for _, alg := range kernel.Algorithms()[1:] {
				ops := t.table.Ops(alg)
				ops.Combined(gotA[:half], gotD[:half], signal, t.low, t.high, 0, half)
				if err := compareBands(op, alg.String()+"/dwt", gotA[:half], gotD[:half], refA[:half], refD[:half], tol); err != nil {
					return err
				}
			}
		}

		t.table.Ops(kernel.Scalar).MODWTCombined(refA, refD, signal, t.mLow, t.mHigh, 0, n)
		for _, alg := range kernel.Algorithms()[1:] {
			t.table.Ops(alg).MODWTCombined(gotA, gotD, signal, t.mLow, t.mHigh, 0, n)
			if err := compareBands(op, alg.String()+"/modwt", gotA, gotD, refA, refD, tol); err != nil {
				return err
			}
		}
		return nil
	})
}

func compareBands(op, path string, gotA, gotD, wantA, wantD []float64, tol float64) error {
	scale := 1.0
	for _, v := range wantA {
		scale = math.Max(scale, math.Abs(v))
	}
	for _, v := range wantD {
		scale = math.Max(scale, math.Abs(v))
	}
	limit := tol * scale

	if i := firstDivergence(gotA, wantA, limit); i >= 0 {
		return &core.InconsistencyError{Op: op, Path: path + "/approximation", Index: i, Got: gotA[i], Want: wantA[i], Tolerance: tol}
	}
	if i := firstDivergence(gotD, wantD, limit); i >= 0 {
		return &core.InconsistencyError{Op: op, Path: path + "/detail", Index: i, Got: gotD[i], Want: wantD[i], Tolerance: tol}
	}
	return nil
}

func firstDivergence(got, want []float64, limit float64) int {
	for i := range want {
		if math.Abs(got[i]-want[i]) > limit {
			return i
		}
	}
	return core.NoIndex
}
