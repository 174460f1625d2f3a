// Package batch transforms many equal-length signals at once.
//
// An Engine runs either a per-signal pipeline (each signal through a
// dwt.Transformer, optionally fanned out over a worker pool) or a
// structure-of-arrays pass: the batch is interleaved once so that sample t
// of every signal is contiguous, each output position becomes a short
// sequence of lane-wide multiply-adds across the whole batch, and the
// bands are de-interleaved back into per-signal results.
//
// Which path wins depends on batch size, signal length and filter length.
// The decision comes from a Calibration table, which can be measured on
// the target machine and exported for reuse.
//
//	eng, err := batch.NewEngine(wavelet.DB4(), batch.DefaultEngineConfig())
//	defer eng.Close()
//	results, err := eng.TransformBatch(signals, dwt.ModeDWT)
package batch
