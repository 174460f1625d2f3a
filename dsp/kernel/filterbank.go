package kernel

import (
	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// ForwardDownsample filters signal with filter and keeps every second output:
// coeffs[i] = sum_k signal[(2i+k) mod N] * filter[k], for i in [0, N/2).
// The filter may be longer than the signal.
func ForwardDownsample(signal, filter []float64) ([]float64, error) {
	const op = "kernel.ForwardDownsample"
	if err := checkDecimated(op, signal, filter); err != nil {
		return nil, err
	}
	out := make([]float64, len(signal)/2)
	forwardScalar(out, signal, filter, 0, len(out))
	return out, nil
}

// InverseUpsample inserts a zero after every coefficient and periodically
// convolves the result with filter. It is the adjoint of ForwardDownsample,
// so summing the low and high bands of an orthogonal wavelet reconstructs
// the signal.
func InverseUpsample(coeffs, filter []float64) ([]float64, error) {
	const op = "kernel.InverseUpsample"
	if err := core.CheckSignal(op, "coeffs", coeffs); err != nil {
		return nil, err
	}
	if err := core.CheckSignal(op, "filter", filter); err != nil {
		return nil, err
	}
	out := make([]float64, 2*len(coeffs))
	accumulateUpsampled(out, coeffs, filter, 2)
	return out, nil
}

// CombinedForward computes both analysis bands in a single pass.
func CombinedForward(signal, low, high []float64) (approx, detail []float64, err error) {
	const op = "kernel.CombinedForward"
	if err := checkDecimated(op, signal, low); err != nil {
		return nil, nil, err
	}
	if err := checkPair(op, low, high); err != nil {
		return nil, nil, err
	}
	half := len(signal) / 2
	approx = make([]float64, half)
	detail = make([]float64, half)
	combinedScalar(approx, detail, signal, low, high, 0, half)
	return approx, detail, nil
}

// CircularConvolveMODWT is the non-decimated, shift-invariant filter:
// output[t] = sum_l signal[(t+l) mod N] * filter[l], for t in [0, N).
func CircularConvolveMODWT(signal, filter []float64) ([]float64, error) {
	const op = "kernel.CircularConvolveMODWT"
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return nil, err
	}
	if err := core.CheckSignal(op, "filter", filter); err != nil {
		return nil, err
	}
	out := make([]float64, len(signal))
	modwtScalar(out, signal, filter, 0, len(out))
	return out, nil
}

// CircularCorrelateMODWT is the adjoint of CircularConvolveMODWT:
// output[(t+l) mod N] += coeffs[t] * filter[l].
func CircularCorrelateMODWT(coeffs, filter []float64) ([]float64, error) {
	const op = "kernel.CircularCorrelateMODWT"
	if err := core.CheckSignal(op, "coeffs", coeffs); err != nil {
		return nil, err
	}
	if err := core.CheckSignal(op, "filter", filter); err != nil {
		return nil, err
	}
	out := make([]float64, len(coeffs))
	accumulateUpsampled(out, coeffs, filter, 1)
	return out, nil
}

func checkDecimated(op string, signal, filter []float64) error {
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return err
	}
	if err := core.CheckEvenLength(op, "signal", signal); err != nil {
		return err
	}
	return core.CheckSignal(op, "filter", filter)
}

func checkPair(op string, low, high []float64) error {
	if err := core.CheckSignal(op, "high", high); err != nil {
		return err
	}
	if len(high) != len(low) {
		return core.Invalid(op, "high", len(high), "length must match low-pass length")
	}
	return nil
}
