// Package buffer provides a size-classed float64 scratch pool for the
// transform hot paths. Lengths are rounded up to a power of two and each
// class is backed by its own sync.Pool, so concurrent workers reuse
// buffers without contending on a shared lock.
//
// Acquired buffers are not zeroed. Callers that need zeros call Zero.
package buffer
