// Package dwt performs single-level periodic wavelet transforms of one
// signal: the decimated DWT and the maximal-overlap MODWT, forward and
// inverse.
//
// A Transformer binds a wavelet to an algorithm selector, a dispatch table
// and a cache executor. Every call picks its kernel through the selector,
// so forcing a path or disabling specialization never changes the result
// beyond floating-point reordering.
//
//	tr, err := dwt.New(wavelet.DB4())
//	res, err := tr.Forward(signal)
//	approx := res.Approximation().Values()
//	back, err := tr.Inverse(res)
package dwt
