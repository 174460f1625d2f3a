package batch

import (
	"strconv"

	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// CheckBatch validates a batch and returns the common signal length. Every
// signal must be non-empty, finite and as long as the first one.
func CheckBatch(op string, signals [][]float64) (int, error) {
	if len(signals) == 0 {
		return 0, nil
	}
	n := len(signals[0])
	for s, sig := range signals {
		param := "signals[" + strconv.Itoa(s) + "]"
		if len(sig) == 0 {
			return 0, core.InvalidAt(op, "signals", s, "len 0", "must not be empty")
		}
		if len(sig) != n {
			return 0, core.InvalidAt(op, "signals", s, len(sig), "length differs from signals[0] ("+strconv.Itoa(n)+")")
		}
		if err := core.CheckFinite(op, param, sig); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// ToSoA interleaves the batch so that soa[t*B+s] = signals[s][t].
func ToSoA(signals [][]float64) ([]float64, error) {
	n, err := CheckBatch("batch.ToSoA", signals)
	if err != nil || n == 0 {
		return nil, err
	}
	soa := make([]float64, n*len(signals))
	interleave(soa, signals, n)
	return soa, nil
}

// FromSoA splits an interleaved buffer back into batch signals of length
// samples each.
func FromSoA(soa []float64, batch, length int) ([][]float64, error) {
	const op = "batch.FromSoA"
	if batch <= 0 {
		return nil, core.Invalid(op, "batch", batch, "must be > 0")
	}
	if length <= 0 {
		return nil, core.Invalid(op, "length", length, "must be > 0")
	}
	if err := core.CheckLength(op, "soa", soa, batch*length); err != nil {
		return nil, err
	}
	out := make([][]float64, batch)
	for s := range out {
		out[s] = make([]float64, length)
	}
	deinterleave(out, soa, length)
	return out, nil
}

func interleave(dst []float64, signals [][]float64, n int) {
	b := len(signals)
	for s, sig := range signals {
		for t := range n {
			dst[t*b+s] = sig[t]
		}
	}
}

func deinterleave(dst [][]float64, soa []float64, n int) {
	b := len(dst)
	for t := range n {
		row := soa[t*b : t*b+b]
		for s, v := range row {
			dst[s][t] = v
		}
	}
}
