// Package kernel implements the periodic filter-bank primitives behind every
// wavelet transform, in three interchangeable forms:
//
//   - Scalar: the reference loops. Their indexing defines the transform:
//     forward coefficient i is sum_k signal[(2i+k) mod N] * filter[k].
//   - Vector: dot-product and axpy formulations over contiguous windows,
//     backed by the SIMD block primitives registered for the detected CPU.
//   - Specialized: fully unrolled code for 2-tap (Haar) and 8-tap
//     (DB4, Sym4) filters.
//
// All forms agree to floating-point reordering. A closed dispatch Table maps
// each Algorithm to its Ops, and a Selector picks the Algorithm per call from
// the signal length, filter length, force flags, and the platform
// Capability, which is probed once and passed in explicitly.
//
// # Usage
//
//	approx, detail, err := kernel.CombinedForward(signal, low, high)
//
//	sel := kernel.NewSelector(kernel.DetectCapability())
//	alg, err := sel.Select(kernel.Request{SignalLength: n, FilterLength: len(low)})
//	ops := kernel.Default().Ops(alg)
//	ops.Combined(approx, detail, signal, low, high, 0, n/2)
package kernel
