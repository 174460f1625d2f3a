package multilevel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/conv"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"go.uber.org/zap"
)

// ErrClosed is returned by DecomposeBatch after Close.
var ErrClosed = errors.New("multilevel: decomposer closed")

// MaxSafeLevels returns floor(log2 n) - margin, or 0 if no level is safe.
func MaxSafeLevels(n, margin int) int {
	if n < 1 {
		return 0
	}
	return max(0, core.Log2Floor(n)-margin)
}

// Decomposer runs multi-level decompositions for one wavelet. Its methods
// are safe for concurrent use; Close must not overlap DecomposeBatch.
type Decomposer struct {
	tr     *dwt.Transformer
	margin int

	// Level-one MODWT taps, already scaled by 1/sqrt(2).
	mLow, mHigh []float64

	parallelism int
	pool        *buffer.Pool
	preferFFT   func(n, taps int) bool

	mu          sync.Mutex
	workers     *workerpool.Pool
	ownsWorkers bool
	closed      bool
}

// New returns a Decomposer for w. By default it keeps DefaultSafetyMargin
// levels in reserve and parallelizes batches over runtime.GOMAXPROCS(0)
// workers.
func New(w wavelet.Wavelet, opts ...Option) (*Decomposer, error) {
	o := options{
		margin:      DefaultSafetyMargin,
		parallelism: runtime.GOMAXPROCS(0),
		cfg:         dwt.DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	tr, err := dwt.New(w, dwt.WithConfig(o.cfg), dwt.WithPool(o.pool))
	if err != nil {
		return nil, err
	}

	s := 1 / math.Sqrt2
	return &Decomposer{
		tr:          tr,
		margin:      o.margin,
		mLow:        scaled(w.LowPassDecomposition(), s),
		mHigh:       scaled(w.HighPassDecomposition(), s),
		parallelism: o.parallelism,
		pool:        o.pool,
		preferFFT:   conv.PreferFFT,
		workers:     o.workers,
	}, nil
}

// Transformer returns the single-level transformer used for DWT levels.
func (d *Decomposer) Transformer() *dwt.Transformer { return d.tr }

// MaxLevels returns the deepest decomposition allowed for n samples.
func (d *Decomposer) MaxLevels(n int) int { return MaxSafeLevels(n, d.margin) }

// Close shuts down a worker pool the Decomposer created. A pool supplied
// with WithWorkerPool is left open. Close is idempotent.
func (d *Decomposer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.ownsWorkers && d.workers != nil {
		d.workers.Close()
	}
}

// Decompose runs levels of the DWT, each on the previous approximation.
// Every intermediate length must be even; the first level that would
// receive an odd length is reported before any work is done.
func (d *Decomposer) Decompose(signal []float64, levels int) (*Result, error) {
	const op = "multilevel.Decompose"
	if err := d.check(op, signal, levels, dwt.ModeDWT); err != nil {
		return nil, err
	}
	return d.decompose(signal, levels)
}

// DecomposeMODWT runs levels of the undecimated pyramid. Every band keeps
// the signal length.
func (d *Decomposer) DecomposeMODWT(signal []float64, levels int) (*Result, error) {
	const op = "multilevel.DecomposeMODWT"
	if err := d.check(op, signal, levels, dwt.ModeMODWT); err != nil {
		return nil, err
	}
	return d.decomposeMODWT(signal, levels)
}

// Reconstruct inverts a Result produced by this Decomposer's wavelet.
func (d *Decomposer) Reconstruct(r *Result) ([]float64, error) {
	const op = "multilevel.Reconstruct"
	if r == nil {
		return nil, core.Invalid(op, "result", nil, "must not be nil")
	}
	if r.Levels() < 1 {
		return nil, core.Invalid(op, "levels", 0, "result has no levels")
	}
	switch r.mode {
	case dwt.ModeDWT:
		return d.reconstruct(r)
	case dwt.ModeMODWT:
		return d.reconstructMODWT(r)
	default:
		return nil, core.Invalid(op, "mode", r.mode, "unknown transform mode")
	}
}

func (d *Decomposer) check(op string, signal []float64, levels int, mode dwt.Mode) error {
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return err
	}
	n := len(signal)
	maxLevels := d.MaxLevels(n)
	if levels < 1 {
		return core.Invalid(op, "levels", levels, "must be >= 1")
	}
	if levels > maxLevels {
		return core.Invalid(op, "levels", levels,
			fmt.Sprintf("exceeds the maximum of %d for length %d", maxLevels, n))
	}
	if mode == dwt.ModeMODWT {
		return nil
	}
	for j := 1; j <= levels; j++ {
		if n%2 != 0 {
			return core.Invalid(op, "levels", levels,
				fmt.Sprintf("level %d would receive odd length %d", j, n))
		}
		n /= 2
	}
	return nil
}

func (d *Decomposer) decompose(signal []float64, levels int) (*Result, error) {
	r := &Result{
		mode:         dwt.ModeDWT,
		signalLength: len(signal),
		details:      make([][]float64, levels),
	}
	current := signal
	for j := range levels {
		approx, detail, err := d.tr.ForwardBands(current)
		if err != nil {
			return nil, fmt.Errorf("multilevel: level %d: %w", j+1, err)
		}
		r.details[j] = detail
		current = approx
	}
	r.approx = current
	return r, nil
}

func (d *Decomposer) reconstruct(r *Result) ([]float64, error) {
	current := r.approx
	for j := r.Levels() - 1; j >= 0; j-- {
		n := 2 * len(current)
		level := dwt.NewResult(current, r.details[j], dwt.ModeDWT, n, kernel.Scalar)
		out, err := d.tr.Inverse(level)
		if err != nil {
			return nil, fmt.Errorf("multilevel: level %d: %w", j+1, err)
		}
		current = out
	}
	return current, nil
}

// decomposeMODWT filters with the level-one taps upsampled by 2^(j-1):
// V_j[t] = sum_l h[l] V_{j-1}[(t + 2^(j-1) l) mod N], likewise W_j with g.
func (d *Decomposer) decomposeMODWT(signal []float64, levels int) (*Result, error) {
	n := len(signal)
	r := &Result{
		mode:         dwt.ModeMODWT,
		signalLength: n,
		details:      make([][]float64, levels),
	}
	current := signal
	for j := range levels {
		var approx, detail []float64
		err := d.withUpsampled(j, func(low, high []float64) error {
			var err error
			approx, detail, err = d.analyze(current, low, high)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("multilevel: level %d: %w", j+1, err)
		}
		r.details[j] = detail
		current = approx
	}
	r.approx = current
	return r, nil
}

func (d *Decomposer) reconstructMODWT(r *Result) ([]float64, error) {
	const op = "multilevel.Reconstruct"
	n := r.signalLength
	if err := core.CheckLength(op, "approximation", r.approx, n); err != nil {
		return nil, err
	}
	current := r.approx
	for j := r.Levels() - 1; j >= 0; j-- {
		if err := core.CheckLength(op, "detail", r.details[j], n); err != nil {
			return nil, err
		}
		var out []float64
		err := d.withUpsampled(j, func(low, high []float64) error {
			var err error
			out, err = d.synthesize(current, r.details[j], low, high)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("multilevel: level %d: %w", j+1, err)
		}
		current = out
	}
	return current, nil
}

// withUpsampled passes fn the MODWT taps of zero-based level j, with
// 2^j - 1 zeros inserted between neighbours.
func (d *Decomposer) withUpsampled(j int, fn func(low, high []float64) error) error {
	step := 1 << j
	taps := (len(d.mLow)-1)*step + 1
	return buffer.WithBuffer(d.pool, 2*taps, func(scratch []float64) error {
		clear(scratch)
		low, high := scratch[:taps], scratch[taps:]
		for k := range d.mLow {
			low[k*step] = d.mLow[k]
			high[k*step] = d.mHigh[k]
		}
		return fn(low, high)
	})
}

// analyze filters x through both bands. Long filters go through the FFT;
// the rest take the transformer's kernel path.
func (d *Decomposer) analyze(x, low, high []float64) (approx, detail []float64, err error) {
	if !d.preferFFT(len(x), len(low)) {
		return d.tr.AnalyzeMODWT(x, low, high)
	}
	if approx, err = conv.CircularCorrelateFFT(x, low); err != nil {
		return nil, nil, err
	}
	if detail, err = conv.CircularCorrelateFFT(x, high); err != nil {
		return nil, nil, err
	}
	return approx, detail, nil
}

func (d *Decomposer) synthesize(approx, detail, low, high []float64) ([]float64, error) {
	if !d.preferFFT(len(approx), len(low)) {
		return d.tr.SynthesizeMODWT(approx, detail, low, high)
	}
	a, err := conv.CircularConvolveFFT(approx, low)
	if err != nil {
		return nil, err
	}
	w, err := conv.CircularConvolveFFT(detail, high)
	if err != nil {
		return nil, err
	}
	for i := range a {
		a[i] += w[i]
	}
	return a, nil
}

// workerPool returns the batch pool, creating it on first use.
func (d *Decomposer) workerPool() (*workerpool.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.workers == nil && d.parallelism > 1 {
		d.workers = workerpool.New(d.parallelism)
		d.ownsWorkers = true
		core.Logger().Debug("multilevel worker pool started", zap.Int("workers", d.parallelism))
	}
	return d.workers, nil
}

func scaled(f []float64, s float64) []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = v * s
	}
	return out
}
