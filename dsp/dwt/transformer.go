package dwt

import (
	"math"

	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/cache"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
)

// Option configures a Transformer.
type Option func(*options)

type options struct {
	cfg      Config
	selector *kernel.Selector
	exec     *cache.Executor
	pool     *buffer.Pool
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithSelector injects a selector, and with it the platform capability
// whose block primitives the Vector path uses.
func WithSelector(sel kernel.Selector) Option {
	return func(o *options) { o.selector = &sel }
}

// WithExecutor injects the cache executor used when cache blocking is on.
func WithExecutor(e *cache.Executor) Option {
	return func(o *options) { o.exec = e }
}

// WithPool sets the scratch pool for kernel scratch and consistency checks.
func WithPool(p *buffer.Pool) Option {
	return func(o *options) { o.pool = p }
}

// Transformer runs single-level transforms for one wavelet. It holds no
// per-call state and is safe for concurrent use.
type Transformer struct {
	wavelet wavelet.Wavelet
	cfg     Config

	low, high       []float64
	lowRec, highRec []float64

	// MODWT filters are the DWT filters scaled by 1/sqrt(2).
	mLow, mHigh       []float64
	mLowRec, mHighRec []float64

	spec     kernel.Specialization
	selector kernel.Selector
	table    *kernel.Table
	exec     *cache.Executor
	pool     *buffer.Pool
}

// New validates w and the options and returns a Transformer.
func New(w wavelet.Wavelet, opts ...Option) (*Transformer, error) {
	if w == nil {
		return nil, core.Invalid("dwt.New", "wavelet", nil, "must not be nil")
	}
	if err := wavelet.Validate(w); err != nil {
		return nil, err
	}

	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Transformer{
		wavelet: w,
		cfg:     o.cfg,
		low:     w.LowPassDecomposition(),
		high:    w.HighPassDecomposition(),
		lowRec:  w.LowPassReconstruction(),
		highRec: w.HighPassReconstruction(),
		pool:    o.pool,
	}
	t.mLow = scale(t.low, 1/math.Sqrt2)
	t.mHigh = scale(t.high, 1/math.Sqrt2)
	t.mLowRec = scale(t.lowRec, 1/math.Sqrt2)
	t.mHighRec = scale(t.highRec, 1/math.Sqrt2)
	t.spec = kernel.Recognize(t.low)

	if o.selector != nil {
		t.selector = *o.selector
	} else {
		t.selector = kernel.NewSelector(kernel.DetectCapability())
	}
	switch {
	case o.pool != nil:
		t.table = kernel.NewPooledTable(t.selector.Capability(), o.pool)
	case o.selector != nil:
		t.table = kernel.NewTable(t.selector.Capability())
	default:
		t.table = kernel.Default()
	}

	t.exec = o.exec
	if t.exec == nil {
		exec, err := cache.NewExecutor(cache.ParamsFor(t.selector.Capability()))
		if err != nil {
			return nil, err
		}
		t.exec = exec
	}
	return t, nil
}

// Wavelet returns the bound wavelet.
func (t *Transformer) Wavelet() wavelet.Wavelet { return t.wavelet }

// Config returns the transformer configuration.
func (t *Transformer) Config() Config { return t.cfg }

// FilterLength returns the number of taps per band.
func (t *Transformer) FilterLength() int { return len(t.low) }

// Select returns the algorithm the transformer uses for a signal of n samples.
func (t *Transformer) Select(n int) (kernel.Algorithm, error) {
	return t.selector.Select(kernel.Request{
		SignalLength:     n,
		FilterLength:     len(t.low),
		Specialization:   t.spec,
		AllowSpecialized: t.cfg.UseSpecializedKernels,
		ForceScalar:      t.cfg.ForceScalar,
		ForceSIMD:        t.cfg.ForceSIMD,
	})
}

// Transform runs the forward transform of the given mode.
func (t *Transformer) Transform(signal []float64, mode Mode) (*Result, error) {
	switch mode {
	case ModeDWT:
		return t.Forward(signal)
	case ModeMODWT:
		return t.ForwardMODWT(signal)
	default:
		return nil, core.Invalid("dwt.Transform", "mode", mode, "unknown transform mode")
	}
}

// Forward computes the single-level DWT. The signal length must be even.
func (t *Transformer) Forward(signal []float64) (*Result, error) {
	if err := checkDWTSignal("dwt.Forward", signal); err != nil {
		return nil, err
	}
	alg, err := t.Select(len(signal))
	if err != nil {
		return nil, err
	}
	return t.forward(signal, alg), nil
}

// ForwardWith computes the DWT on an explicit kernel path, bypassing the
// selector.
func (t *Transformer) ForwardWith(signal []float64, alg kernel.Algorithm) (*Result, error) {
	const op = "dwt.ForwardWith"
	if err := checkAlgorithm(op, alg); err != nil {
		return nil, err
	}
	if err := checkDWTSignal(op, signal); err != nil {
		return nil, err
	}
	return t.forward(signal, alg), nil
}

// ForwardBands is Forward without the Result wrapper. The caller owns the
// returned bands.
func (t *Transformer) ForwardBands(signal []float64) (approx, detail []float64, err error) {
	if err := checkDWTSignal("dwt.ForwardBands", signal); err != nil {
		return nil, nil, err
	}
	alg, err := t.Select(len(signal))
	if err != nil {
		return nil, nil, err
	}
	approx, detail = t.forwardBands(signal, alg)
	return approx, detail, nil
}

// ForwardMODWT computes the single-level MODWT.
func (t *Transformer) ForwardMODWT(signal []float64) (*Result, error) {
	if err := core.CheckSignal("dwt.ForwardMODWT", "signal", signal); err != nil {
		return nil, err
	}
	alg, err := t.Select(len(signal))
	if err != nil {
		return nil, err
	}
	return t.forwardMODWT(signal, alg), nil
}

// ForwardMODWTWith computes the MODWT on an explicit kernel path.
func (t *Transformer) ForwardMODWTWith(signal []float64, alg kernel.Algorithm) (*Result, error) {
	const op = "dwt.ForwardMODWTWith"
	if err := checkAlgorithm(op, alg); err != nil {
		return nil, err
	}
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return nil, err
	}
	return t.forwardMODWT(signal, alg), nil
}

// Inverse reconstructs the signal from a DWT result.
func (t *Transformer) Inverse(r *Result) ([]float64, error) {
	a, d, err := checkResult("dwt.Inverse", r, ModeDWT)
	if err != nil {
		return nil, err
	}
	n := 2 * len(a)
	alg, err := t.Select(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	t.table.Ops(alg).Synthesize(out, a, d, t.lowRec, t.highRec)
	return out, nil
}

// InverseMODWT reconstructs the signal from a MODWT result.
func (t *Transformer) InverseMODWT(r *Result) ([]float64, error) {
	a, d, err := checkResult("dwt.InverseMODWT", r, ModeMODWT)
	if err != nil {
		return nil, err
	}
	alg, err := t.Select(len(a))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(a))
	t.table.Ops(alg).MODWTSynthesize(out, a, d, t.mLowRec, t.mHighRec)
	return out, nil
}

// AnalyzeMODWT runs the undecimated analysis of signal with explicit band
// filters, such as the upsampled taps of a deeper pyramid level. The path
// is selected for the given filter length under the transformer's Config.
func (t *Transformer) AnalyzeMODWT(signal, low, high []float64) (approx, detail []float64, err error) {
	const op = "dwt.AnalyzeMODWT"
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return nil, nil, err
	}
	if err := checkFilterPair(op, low, high); err != nil {
		return nil, nil, err
	}
	alg, err := t.selectFor(len(signal), low)
	if err != nil {
		return nil, nil, err
	}
	approx, detail = t.analyzeMODWT(signal, low, high, alg)
	return approx, detail, nil
}

// SynthesizeMODWT is the adjoint of AnalyzeMODWT: it returns the sum of
// both bands filtered back through low and high.
func (t *Transformer) SynthesizeMODWT(approx, detail, low, high []float64) ([]float64, error) {
	const op = "dwt.SynthesizeMODWT"
	if err := core.CheckSignal(op, "approximation", approx); err != nil {
		return nil, err
	}
	if err := core.CheckLength(op, "detail", detail, len(approx)); err != nil {
		return nil, err
	}
	if err := core.CheckFinite(op, "detail", detail); err != nil {
		return nil, err
	}
	if err := checkFilterPair(op, low, high); err != nil {
		return nil, err
	}
	alg, err := t.selectFor(len(approx), low)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(approx))
	t.table.Ops(alg).MODWTSynthesize(out, approx, detail, low, high)
	return out, nil
}

// selectFor picks the path for arbitrary filters of the bound wavelet's
// family, recognizing unrolled kernels by the filter at hand.
func (t *Transformer) selectFor(n int, filter []float64) (kernel.Algorithm, error) {
	return t.selector.Select(kernel.Request{
		SignalLength:     n,
		FilterLength:     len(filter),
		Specialization:   kernel.Recognize(filter),
		AllowSpecialized: t.cfg.UseSpecializedKernels,
		ForceScalar:      t.cfg.ForceScalar,
		ForceSIMD:        t.cfg.ForceSIMD,
	})
}

func (t *Transformer) forward(signal []float64, alg kernel.Algorithm) *Result {
	approx, detail := t.forwardBands(signal, alg)
	return NewResult(approx, detail, ModeDWT, len(signal), alg)
}

func (t *Transformer) forwardBands(signal []float64, alg kernel.Algorithm) (approx, detail []float64) {
	half := len(signal) / 2
	approx = make([]float64, half)
	detail = make([]float64, half)
	ops := t.table.Ops(alg)
	if t.cfg.UseCacheBlocking {
		t.exec.Combined(approx, detail, signal, t.low, t.high, ops)
	} else {
		ops.Combined(approx, detail, signal, t.low, t.high, 0, half)
	}
	return approx, detail
}

func (t *Transformer) forwardMODWT(signal []float64, alg kernel.Algorithm) *Result {
	approx, detail := t.analyzeMODWT(signal, t.mLow, t.mHigh, alg)
	return NewResult(approx, detail, ModeMODWT, len(signal), alg)
}

func (t *Transformer) analyzeMODWT(signal, low, high []float64, alg kernel.Algorithm) (approx, detail []float64) {
	n := len(signal)
	approx = make([]float64, n)
	detail = make([]float64, n)
	ops := t.table.Ops(alg)
	if t.cfg.UseCacheBlocking {
		t.exec.MODWTCombined(approx, detail, signal, low, high, ops)
	} else {
		ops.MODWTCombined(approx, detail, signal, low, high, 0, n)
	}
	return approx, detail
}

func checkDWTSignal(op string, signal []float64) error {
	if err := core.CheckSignal(op, "signal", signal); err != nil {
		return err
	}
	return core.CheckEvenLength(op, "signal", signal)
}

func checkFilterPair(op string, low, high []float64) error {
	if err := core.CheckSignal(op, "low", low); err != nil {
		return err
	}
	if len(high) != len(low) {
		return core.Invalid(op, "high", len(high), "length must match low-pass length")
	}
	return core.CheckFinite(op, "high", high)
}

func checkAlgorithm(op string, alg kernel.Algorithm) error {
	for _, a := range kernel.Algorithms() {
		if a == alg {
			return nil
		}
	}
	return core.Invalid(op, "algorithm", alg, "unknown algorithm")
}

// checkResult returns the bands of r after validating them for inversion.
func checkResult(op string, r *Result, mode Mode) (approx, detail []float64, err error) {
	if r == nil {
		return nil, nil, core.Invalid(op, "result", nil, "must not be nil")
	}
	if r.mode != mode {
		return nil, nil, core.Invalid(op, "mode", r.mode, "expected "+mode.String()+" result")
	}
	approx, detail = r.approx.data, r.detail.data
	if err := core.CheckSignal(op, "approximation", approx); err != nil {
		return nil, nil, err
	}
	if err := core.CheckLength(op, "detail", detail, len(approx)); err != nil {
		return nil, nil, err
	}
	if err := core.CheckFinite(op, "detail", detail); err != nil {
		return nil, nil, err
	}
	return approx, detail, nil
}

func scale(f []float64, s float64) []float64 {
	out := make([]float64, len(f))
	for i, v := range f {
		out[i] = v * s
	}
	return out
}
