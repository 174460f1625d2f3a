package batch

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"github.com/cwbudde/algo-wavelet/internal/arch/blockops"
	"go.uber.org/zap"
)

// ErrClosed is returned by TransformBatch after Close.
var ErrClosed = errors.New("batch: engine closed")

// Option configures an Engine beyond its EngineConfig.
type Option func(*engineOptions)

type engineOptions struct {
	workers     *workerpool.Pool
	calibration *Calibration
	pool        *buffer.Pool
	selector    *kernel.Selector
}

// WithWorkerPool supplies the worker pool. The caller keeps ownership and
// must close it; Engine.Close leaves it open.
func WithWorkerPool(p *workerpool.Pool) Option {
	return func(o *engineOptions) { o.workers = p }
}

// WithCalibration supplies the SoA crossover table.
func WithCalibration(c *Calibration) Option {
	return func(o *engineOptions) { o.calibration = c }
}

// WithBufferPool supplies the scratch pool used when UseMemoryPool is set.
func WithBufferPool(p *buffer.Pool) Option {
	return func(o *engineOptions) { o.pool = p }
}

// WithSelector injects the kernel selector for the per-signal path.
func WithSelector(sel kernel.Selector) Option {
	return func(o *engineOptions) { o.selector = &sel }
}

// Engine transforms batches of equal-length signals with one wavelet.
// TransformBatch may be called concurrently; Close must not overlap it.
type Engine struct {
	cfg     EngineConfig
	wavelet wavelet.Wavelet
	tr      *dwt.Transformer

	low, high   []float64
	mLow, mHigh []float64

	calibration *Calibration
	pool        *buffer.Pool
	workers     *workerpool.Pool
	ownsWorkers bool
	closed      atomic.Bool
}

// NewEngine validates cfg and builds an engine for w.
func NewEngine(w wavelet.Wavelet, cfg EngineConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o engineOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	pool := o.pool
	if !cfg.UseMemoryPool {
		pool = nil
	} else if pool == nil {
		pool = buffer.NewPool()
	}

	dwtOpts := []dwt.Option{
		dwt.WithConfig(dwt.Config{
			Boundary:              dwt.BoundaryPeriodic,
			UseSpecializedKernels: cfg.UseSpecializedKernels,
			UseCacheBlocking:      cfg.UseCacheBlocking,
		}),
		dwt.WithPool(pool),
	}
	capability := kernel.DetectCapability()
	if o.selector != nil {
		dwtOpts = append(dwtOpts, dwt.WithSelector(*o.selector))
		capability = o.selector.Capability()
	}
	tr, err := dwt.New(w, dwtOpts...)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		wavelet:     w,
		tr:          tr,
		low:         w.LowPassDecomposition(),
		high:        w.HighPassDecomposition(),
		calibration: o.calibration,
		pool:        pool,
		workers:     o.workers,
	}
	e.mLow = scaled(e.low, 1/math.Sqrt2)
	e.mHigh = scaled(e.high, 1/math.Sqrt2)
	if e.calibration == nil {
		e.calibration = NewCalibration(capability)
	}
	if e.workers == nil && cfg.Parallelism > 1 {
		e.workers = workerpool.New(cfg.Parallelism)
		e.ownsWorkers = true
		core.Logger().Debug("batch worker pool started", zap.Int("workers", cfg.Parallelism))
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig { return e.cfg }

// Calibration returns the crossover table in use.
func (e *Engine) Calibration() *Calibration { return e.calibration }

// Transformer returns the per-signal transformer.
func (e *Engine) Transformer() *dwt.Transformer { return e.tr }

// Close shuts down a worker pool created by the engine. It is idempotent.
func (e *Engine) Close() {
	if e.closed.Swap(true) {
		return
	}
	if e.ownsWorkers {
		e.workers.Close()
	}
}

// UsesSoA reports whether a batch of the given mode and shape takes the
// SoA path.
func (e *Engine) UsesSoA(mode dwt.Mode, batch, n int) bool {
	return e.cfg.UseSoALayout && e.calibration.UseSoA(mode, batch, n, len(e.low))
}

// TransformBatch transforms every signal and returns the results in input
// order. The batch is validated before any work starts; if any signal
// fails, the error of the lowest-indexed failure is returned and no
// results are.
func (e *Engine) TransformBatch(signals [][]float64, mode dwt.Mode) ([]*dwt.Result, error) {
	const op = "batch.TransformBatch"
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if !knownMode(mode) {
		return nil, core.Invalid(op, "mode", mode, "unknown transform mode")
	}
	if len(signals) == 0 {
		return []*dwt.Result{}, nil
	}
	n, err := CheckBatch(op, signals)
	if err != nil {
		return nil, err
	}
	if mode == dwt.ModeDWT && (n < 2 || n%2 != 0) {
		return nil, core.Invalid(op, "length", n, "DWT needs an even length of at least 2")
	}

	soa := e.UsesSoA(mode, len(signals), n)
	core.Logger().Debug("batch strategy",
		zap.Bool("soa", soa),
		zap.Int("batch", len(signals)),
		zap.Int("length", n),
		zap.Stringer("mode", mode),
		zap.Int("parallelism", e.cfg.Parallelism))

	if soa {
		return e.transformSoA(signals, n, mode)
	}
	return e.transformEach(signals, mode)
}

// transformEach runs the per-signal pipeline, fanned out over the workers.
func (e *Engine) transformEach(signals [][]float64, mode dwt.Mode) ([]*dwt.Result, error) {
	results := make([]*dwt.Result, len(signals))
	errs := make([]error, len(signals))

	each := func(i int) {
		defer recoverInto(&errs[i])
		results[i], errs[i] = e.tr.Transform(signals[i], mode)
	}
	if e.workers != nil {
		e.workers.ParallelForAtomic(len(signals), each)
	} else {
		for i := range signals {
			each(i)
		}
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("batch: signal %d: %w", i, err)
		}
	}
	return results, nil
}

// transformSoA interleaves the batch, runs one pass per output position
// across all signals and de-interleaves the bands.
func (e *Engine) transformSoA(signals [][]float64, n int, mode dwt.Mode) ([]*dwt.Result, error) {
	b := len(signals)
	stride, outputs := 2, n/2
	low, high := e.low, e.high
	if mode == dwt.ModeMODWT {
		stride, outputs = 1, n
		low, high = e.mLow, e.mHigh
	}

	var results []*dwt.Result
	err := buffer.WithBuffer(e.pool, n*b+2*outputs*b, func(scratch []float64) error {
		soa := scratch[:n*b]
		soaA := scratch[n*b : n*b+outputs*b]
		soaD := scratch[n*b+outputs*b:]
		interleave(soa, signals, n)

		var (
			mu       sync.Mutex
			firstErr error
			firstAt  = -1
		)
		chunk := func(lo, hi int) {
			var err error
			defer func() {
				if r := recover(); r != nil {
					core.Logger().Warn("batch worker panic", zap.Any("panic", r), zap.Int("output", lo))
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil {
					mu.Lock()
					if firstAt < 0 || lo < firstAt {
						firstErr, firstAt = err, lo
					}
					mu.Unlock()
				}
			}()
			err = buffer.WithBuffer(e.pool, b, func(tmp []float64) error {
				soaPass(soaA, soaD, soa, low, high, b, n, stride, lo, hi, tmp)
				return nil
			})
		}
		if e.workers != nil {
			e.workers.ParallelFor(outputs, chunk)
		} else {
			chunk(0, outputs)
		}
		if firstErr != nil {
			return fmt.Errorf("batch: soa output %d: %w", firstAt, firstErr)
		}

		approx := make([][]float64, b)
		detail := make([][]float64, b)
		for s := range b {
			approx[s] = make([]float64, outputs)
			detail[s] = make([]float64, outputs)
		}
		deinterleave(approx, soaA, outputs)
		deinterleave(detail, soaD, outputs)

		results = make([]*dwt.Result, b)
		for s := range b {
			results[s] = dwt.NewResult(approx[s], detail[s], mode, n, kernel.Vector)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// soaPass computes output rows [lo, hi) of both bands. Row i of a band is
// sum_k f[k] * row((stride*i+k) mod n) of the interleaved input.
func soaPass(soaA, soaD, soa, low, high []float64, b, n, stride, lo, hi int, tmp []float64) {
	haar := len(low) == 2 && low[0] == low[1]
	for i := lo; i < hi; i++ {
		dstA := soaA[i*b : i*b+b]
		dstD := soaD[i*b : i*b+b]

		if haar && stride*i+1 < n {
			r0 := soa[stride*i*b : stride*i*b+b]
			r1 := soa[(stride*i+1)*b : (stride*i+1)*b+b]
			blockops.PairSum(dstA, r0, r1, low[0])
			clear(dstD)
			blockops.Axpy(dstD, r0, tmp, high[0])
			blockops.Axpy(dstD, r1, tmp, high[1])
			continue
		}

		clear(dstA)
		clear(dstD)
		idx := (stride * i) % n
		for k := range low {
			row := soa[idx*b : idx*b+b]
			blockops.Axpy(dstA, row, tmp, low[k])
			blockops.Axpy(dstD, row, tmp, high[k])
			idx++
			if idx == n {
				idx = 0
			}
		}
	}
}

// recoverInto converts a panic into an error stored in *err. It must be
// deferred directly.
func recoverInto(err *error) {
	if r := recover(); r != nil {
		core.Logger().Warn("batch worker panic", zap.Any("panic", r))
		*err = fmt.Errorf("panic: %v", r)
	}
}

func scaled(f []float64, s float64) []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = v * s
	}
	return out
}
