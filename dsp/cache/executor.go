package cache

import (
	"fmt"
	"runtime"

	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
)

// Strategy is a cache-blocking tier.
type Strategy int

const (
	// Direct runs the kernel over the whole output range at once.
	Direct Strategy = iota
	// Blocked runs the kernel tile by tile.
	Blocked
	// TiledPrefetch runs tile by tile and touches the next tile's input
	// before computing the current one.
	TiledPrefetch
)

func (s Strategy) String() string {
	switch s {
	case Direct:
		return "direct"
	case Blocked:
		return "blocked"
	case TiledPrefetch:
		return "tiled-prefetch"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// SelectStrategy picks the tier for a signal of n samples.
func SelectStrategy(n int, p Params) Strategy {
	bytes := n * 8
	switch {
	case bytes <= p.L1Bytes:
		return Direct
	case bytes <= p.L2Bytes:
		return Blocked
	default:
		return TiledPrefetch
	}
}

// Executor applies kernel ops under a cache strategy. It is stateless after
// construction and safe for concurrent use.
type Executor struct {
	params Params
	forced Strategy
	force  bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithStrategy pins the tier regardless of signal size.
func WithStrategy(s Strategy) Option {
	return func(e *Executor) {
		e.forced = s
		e.force = true
	}
}

// NewExecutor validates p and returns an executor.
func NewExecutor(p Params, opts ...Option) (*Executor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{params: p}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.forced < Direct || e.forced > TiledPrefetch {
		return nil, core.Invalid("cache.NewExecutor", "strategy", e.forced, "unknown strategy")
	}
	return e, nil
}

// Params returns the blocking parameters.
func (e *Executor) Params() Params { return e.params }

// Strategy returns the tier used for a signal of n samples.
func (e *Executor) Strategy(n int) Strategy {
	if e.force {
		return e.forced
	}
	return SelectStrategy(n, e.params)
}

// Forward fills dst with the decimated band ops.Forward produces.
func (e *Executor) Forward(dst, signal, filter []float64, ops kernel.Ops) {
	e.run(signal, len(dst), 2, len(filter), func(lo, hi int) {
		ops.Forward(dst, signal, filter, lo, hi)
	})
}

// Combined fills both decimated bands.
func (e *Executor) Combined(approx, detail, signal, low, high []float64, ops kernel.Ops) {
	e.run(signal, len(approx), 2, len(low), func(lo, hi int) {
		ops.Combined(approx, detail, signal, low, high, lo, hi)
	})
}

// MODWT fills dst with the undecimated band.
func (e *Executor) MODWT(dst, signal, filter []float64, ops kernel.Ops) {
	e.run(signal, len(dst), 1, len(filter), func(lo, hi int) {
		ops.MODWT(dst, signal, filter, lo, hi)
	})
}

// MODWTCombined fills both undecimated bands.
func (e *Executor) MODWTCombined(approx, detail, signal, low, high []float64, ops kernel.Ops) {
	e.run(signal, len(approx), 1, len(low), func(lo, hi int) {
		ops.MODWTCombined(approx, detail, signal, low, high, lo, hi)
	})
}

func (e *Executor) run(signal []float64, outputs, stride, taps int, body func(lo, hi int)) {
	if outputs == 0 {
		return
	}
	strategy := e.Strategy(len(signal))
	if strategy == Direct {
		body(0, outputs)
		return
	}

	tile := e.params.TileOutputs
	var sink float64
	for lo := 0; lo < outputs; lo += tile {
		hi := min(lo+tile, outputs)
		if strategy == TiledPrefetch && hi < outputs {
			next := min(hi+tile, outputs)
			sink += touch(signal, stride*hi, stride*(next-1)+taps, e.params.LineFloats)
		}
		body(lo, hi)
	}
	runtime.KeepAlive(sink)
}

// touch reads one value per cache line of signal[start:end], clamped to
// the signal, so the lines are resident when the next tile runs.
func touch(signal []float64, start, end, line int) float64 {
	end = min(end, len(signal))
	var s float64
	for i := start; i < end; i += line {
		s += signal[i]
	}
	return s
}
