// Package conv provides periodic (circular) correlation and convolution
// of a signal with a short or long filter, as used by the undecimated
// wavelet pyramid.
//
// Two strategies compute the same result:
//
//   - Direct: the filter is folded onto the period and applied as scaled,
//     rotated block additions. Cost O(N*min(N, L)).
//   - FFT: one forward transform of the signal and the folded filter, a
//     spectral product and one inverse transform. Cost O(N log N) and
//     restricted to power-of-two periods.
//
// # Usage
//
//	out, err := conv.CircularCorrelate(signal, filter) // auto-selects
//	out, err := conv.CircularCorrelateFFT(signal, filter)
//
// Correlation computes out[t] = sum_l signal[(t+l) mod N] * filter[l];
// convolution is its adjoint, out[(t+l) mod N] += coeffs[t] * filter[l].
package conv
