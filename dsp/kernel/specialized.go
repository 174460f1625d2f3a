package kernel

import "github.com/cwbudde/algo-wavelet/dsp/core"

// Unrolled kernels for 2-tap and 8-tap filters. Each falls back to the
// scalar loop for lengths it does not cover, which keeps the Specialized
// table entry total over all inputs.

func forwardSpecialized(dst, x, f []float64, lo, hi int) {
	switch len(f) {
	case 2:
		forward2(dst, x, f, lo, hi)
	case 8:
		forward8(dst, x, f, lo, hi)
	default:
		forwardScalar(dst, x, f, lo, hi)
	}
}

func combinedSpecialized(approx, detail, x, low, high []float64, lo, hi int) {
	switch len(low) {
	case 2:
		combined2(approx, detail, x, low, high, lo, hi)
	case 8:
		forward8(approx, x, low, lo, hi)
		forward8(detail, x, high, lo, hi)
	default:
		combinedScalar(approx, detail, x, low, high, lo, hi)
	}
}

func synthesizeSpecialized(dst, approx, detail, low, high []float64) {
	switch len(low) {
	case 2:
		synthesize2(dst, approx, detail, low, high)
	case 8:
		synthesize8(dst, approx, detail, low, high, 2)
	default:
		synthesizeScalar(dst, approx, detail, low, high)
	}
}

func modwtSpecialized(dst, x, f []float64, lo, hi int) {
	switch len(f) {
	case 2:
		modwt2(dst, x, f, lo, hi)
	case 8:
		modwt8(dst, x, f, lo, hi)
	default:
		modwtScalar(dst, x, f, lo, hi)
	}
}

func modwtCombinedSpecialized(approx, detail, x, low, high []float64, lo, hi int) {
	switch len(low) {
	case 2, 8:
		modwtSpecialized(approx, x, low, lo, hi)
		modwtSpecialized(detail, x, high, lo, hi)
	default:
		modwtCombinedScalar(approx, detail, x, low, high, lo, hi)
	}
}

func modwtSynthesizeSpecialized(dst, approx, detail, low, high []float64) {
	switch len(low) {
	case 2:
		modwtSynthesize2(dst, approx, detail, low, high)
	case 8:
		synthesize8(dst, approx, detail, low, high, 1)
	default:
		modwtSynthesizeScalar(dst, approx, detail, low, high)
	}
}

// Two taps never wrap under decimation: 2i+1 < n for every output when n is even.
func forward2(dst, x, f []float64, lo, hi int) {
	f0, f1 := f[0], f[1]
	i := lo
	for ; i+3 < hi; i += 4 {
		j := 2 * i
		w := x[j : j+8]
		dst[i] = w[0]*f0 + w[1]*f1
		dst[i+1] = w[2]*f0 + w[3]*f1
		dst[i+2] = w[4]*f0 + w[5]*f1
		dst[i+3] = w[6]*f0 + w[7]*f1
	}
	for ; i < hi; i++ {
		j := 2 * i
		dst[i] = x[j]*f0 + x[j+1]*f1
	}
}

func combined2(approx, detail, x, low, high []float64, lo, hi int) {
	l0, l1 := low[0], low[1]
	h0, h1 := high[0], high[1]
	i := lo
	for ; i+1 < hi; i += 2 {
		j := 2 * i
		w := x[j : j+4]
		approx[i] = w[0]*l0 + w[1]*l1
		detail[i] = w[0]*h0 + w[1]*h1
		approx[i+1] = w[2]*l0 + w[3]*l1
		detail[i+1] = w[2]*h0 + w[3]*h1
	}
	for ; i < hi; i++ {
		s0, s1 := x[2*i], x[2*i+1]
		approx[i] = s0*l0 + s1*l1
		detail[i] = s0*h0 + s1*h1
	}
}

func synthesize2(dst, approx, detail, low, high []float64) {
	l0, l1 := low[0], low[1]
	h0, h1 := high[0], high[1]
	for i := range approx {
		a, d := approx[i], detail[i]
		dst[2*i] = a*l0 + d*h0
		dst[2*i+1] = a*l1 + d*h1
	}
}

func modwt2(dst, x, f []float64, lo, hi int) {
	n := len(x)
	f0, f1 := f[0], f[1]
	end := min(hi, n-1)
	for t := lo; t < end; t++ {
		dst[t] = x[t]*f0 + x[t+1]*f1
	}
	if hi == n && lo <= n-1 {
		dst[n-1] = x[n-1]*f0 + x[0]*f1
	}
}

func modwtSynthesize2(dst, approx, detail, low, high []float64) {
	n := len(dst)
	l0, l1 := low[0], low[1]
	h0, h1 := high[0], high[1]
	prev := n - 1
	for t := range n {
		dst[t] = approx[t]*l0 + detail[t]*h0 + approx[prev]*l1 + detail[prev]*h1
		prev = t
	}
}

func forward8(dst, x, f []float64, lo, hi int) {
	n := len(x)
	f0, f1, f2, f3 := f[0], f[1], f[2], f[3]
	f4, f5, f6, f7 := f[4], f[5], f[6], f[7]
	for i := lo; i < hi; i++ {
		j := 2 * i
		if j+8 <= n {
			w := x[j : j+8]
			dst[i] = w[0]*f0 + w[1]*f1 + w[2]*f2 + w[3]*f3 +
				w[4]*f4 + w[5]*f5 + w[6]*f6 + w[7]*f7
			continue
		}
		forwardScalar(dst, x, f, i, i+1)
	}
}

func modwt8(dst, x, f []float64, lo, hi int) {
	n := len(x)
	f0, f1, f2, f3 := f[0], f[1], f[2], f[3]
	f4, f5, f6, f7 := f[4], f[5], f[6], f[7]
	for t := lo; t < hi; t++ {
		if t+8 <= n {
			w := x[t : t+8]
			dst[t] = w[0]*f0 + w[1]*f1 + w[2]*f2 + w[3]*f3 +
				w[4]*f4 + w[5]*f5 + w[6]*f6 + w[7]*f7
			continue
		}
		modwtScalar(dst, x, f, t, t+1)
	}
}

func synthesize8(dst, approx, detail, low, high []float64, stride int) {
	n := len(dst)
	core.Zero(dst)
	for i := range approx {
		a, d := approx[i], detail[i]
		j := stride * i
		if j+8 <= n {
			w := dst[j : j+8]
			w[0] += a*low[0] + d*high[0]
			w[1] += a*low[1] + d*high[1]
			w[2] += a*low[2] + d*high[2]
			w[3] += a*low[3] + d*high[3]
			w[4] += a*low[4] + d*high[4]
			w[5] += a*low[5] + d*high[5]
			w[6] += a*low[6] + d*high[6]
			w[7] += a*low[7] + d*high[7]
			continue
		}
		idx := j % n
		for k := range 8 {
			dst[idx] += a*low[k] + d*high[k]
			idx++
			if idx == n {
				idx = 0
			}
		}
	}
}
