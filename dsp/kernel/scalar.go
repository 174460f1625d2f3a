package kernel

import (
	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// forwardScalar computes dst[i] = sum_k x[(2i+k) mod n] * f[k] for i in [lo, hi).
func forwardScalar(dst, x, f []float64, lo, hi int) {
	n := len(x)
	taps := len(f)
	for i := lo; i < hi; i++ {
		base := 2 * i
		var sum float64
		if base+taps <= n {
			w := x[base : base+taps]
			for k, c := range f {
				sum += w[k] * c
			}
		} else {
			idx := base % n
			for _, c := range f {
				sum += x[idx] * c
				idx++
				if idx == n {
					idx = 0
				}
			}
		}
		dst[i] = sum
	}
}

// combinedScalar produces both bands in one pass over the shared window.
func combinedScalar(approx, detail, x, low, high []float64, lo, hi int) {
	n := len(x)
	taps := len(low)
	for i := lo; i < hi; i++ {
		base := 2 * i
		var a, d float64
		if base+taps <= n {
			w := x[base : base+taps]
			for k, s := range w {
				a += s * low[k]
				d += s * high[k]
			}
		} else {
			idx := base % n
			for k := range taps {
				s := x[idx]
				a += s * low[k]
				d += s * high[k]
				idx++
				if idx == n {
					idx = 0
				}
			}
		}
		approx[i] = a
		detail[i] = d
	}
}

// synthesizeScalar overwrites dst with the adjoint of the combined forward
// transform: dst[(2i+k) mod n] += approx[i]*low[k] + detail[i]*high[k].
func synthesizeScalar(dst, approx, detail, low, high []float64) {
	n := len(dst)
	core.Zero(dst)
	for i := range approx {
		a, d := approx[i], detail[i]
		idx := (2 * i) % n
		for k := range low {
			dst[idx] += a*low[k] + d*high[k]
			idx++
			if idx == n {
				idx = 0
			}
		}
	}
}

// modwtScalar computes dst[t] = sum_l x[(t+l) mod n] * f[l] for t in [lo, hi).
func modwtScalar(dst, x, f []float64, lo, hi int) {
	n := len(x)
	taps := len(f)
	for t := lo; t < hi; t++ {
		var sum float64
		if t+taps <= n {
			w := x[t : t+taps]
			for l, c := range f {
				sum += w[l] * c
			}
		} else {
			idx := t
			for _, c := range f {
				sum += x[idx] * c
				idx++
				if idx == n {
					idx = 0
				}
			}
		}
		dst[t] = sum
	}
}

func modwtCombinedScalar(approx, detail, x, low, high []float64, lo, hi int) {
	n := len(x)
	taps := len(low)
	for t := lo; t < hi; t++ {
		var a, d float64
		idx := t
		for l := range taps {
			s := x[idx]
			a += s * low[l]
			d += s * high[l]
			idx++
			if idx == n {
				idx = 0
			}
		}
		approx[t] = a
		detail[t] = d
	}
}

// modwtSynthesizeScalar overwrites dst with
// dst[(t+l) mod n] += approx[t]*low[l] + detail[t]*high[l].
func modwtSynthesizeScalar(dst, approx, detail, low, high []float64) {
	n := len(dst)
	core.Zero(dst)
	for t := range approx {
		a, d := approx[t], detail[t]
		idx := t
		for l := range low {
			dst[idx] += a*low[l] + d*high[l]
			idx++
			if idx == n {
				idx = 0
			}
		}
	}
}

// accumulateUpsampled adds the zero-inserted, periodically convolved coeffs
// into dst: dst[(step*i+k) mod n] += coeffs[i]*f[k].
func accumulateUpsampled(dst, coeffs, f []float64, step int) {
	n := len(dst)
	for i, c := range coeffs {
		idx := (step * i) % n
		for _, v := range f {
			dst[idx] += c * v
			idx++
			if idx == n {
				idx = 0
			}
		}
	}
}
