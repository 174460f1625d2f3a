// Package multilevel builds wavelet pyramids on top of the single-level
// transforms in package dwt.
//
// Decompose feeds each level's approximation into the next DWT level;
// DecomposeMODWT runs the undecimated à trous pyramid, switching to
// FFT-based circular correlation once the upsampled filters become long.
// Levels of one signal are inherently serial, so DecomposeBatch obtains
// parallelism across independent signals only.
//
// The number of levels is bounded by MaxSafeLevels. Requests beyond the
// bound fail with a validation error rather than being clamped.
package multilevel
