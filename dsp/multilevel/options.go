package multilevel

import (
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
)

// DefaultSafetyMargin is the number of levels kept in reserve below
// floor(log2 N).
const DefaultSafetyMargin = 2

// Option configures a Decomposer.
type Option func(*options)

type options struct {
	margin      int
	parallelism int
	workers     *workerpool.Pool
	cfg         dwt.Config
	pool        *buffer.Pool
}

// WithSafetyMargin sets how many levels below floor(log2 N) stay unused.
func WithSafetyMargin(m int) Option {
	return func(o *options) { o.margin = m }
}

// WithParallelism sets the number of workers DecomposeBatch creates when
// no pool is supplied. Values below 2 run batches sequentially.
func WithParallelism(n int) Option {
	return func(o *options) { o.parallelism = n }
}

// WithWorkerPool supplies the pool used by DecomposeBatch. The caller
// keeps ownership and must close it after the Decomposer.
func WithWorkerPool(p *workerpool.Pool) Option {
	return func(o *options) { o.workers = p }
}

// WithTransformConfig sets the configuration of the per-level transformer.
func WithTransformConfig(cfg dwt.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithPool sets the scratch pool for upsampled MODWT filters and the
// transformer's kernel scratch.
func WithPool(p *buffer.Pool) Option {
	return func(o *options) { o.pool = p }
}

func (o options) validate() error {
	const op = "multilevel.New"
	if o.margin < 0 {
		return core.Invalid(op, "margin", o.margin, "must be >= 0")
	}
	if o.parallelism < 1 {
		return core.Invalid(op, "parallelism", o.parallelism, "must be >= 1")
	}
	return o.cfg.Validate()
}
