package batch

import "github.com/cwbudde/algo-wavelet/dsp/core"

// EngineConfig selects the execution strategy of an Engine.
type EngineConfig struct {
	// Parallelism is the worker count; 1 runs sequentially.
	Parallelism           int
	UseSoALayout          bool
	UseSpecializedKernels bool
	UseCacheBlocking      bool
	UseMemoryPool         bool
}

// EngineOption mutates an EngineConfig.
type EngineOption func(*EngineConfig)

// DefaultEngineConfig returns a sequential configuration with every
// optimisation enabled.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Parallelism:           1,
		UseSoALayout:          true,
		UseSpecializedKernels: true,
		UseCacheBlocking:      true,
		UseMemoryPool:         true,
	}
}

// ApplyEngineOptions applies opts on top of base.
func ApplyEngineOptions(base EngineConfig, opts ...EngineOption) EngineConfig {
	cfg := base
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithParallelism sets the worker count.
func WithParallelism(n int) EngineOption {
	return func(cfg *EngineConfig) { cfg.Parallelism = n }
}

// WithSoALayout toggles the structure-of-arrays path.
func WithSoALayout(enabled bool) EngineOption {
	return func(cfg *EngineConfig) { cfg.UseSoALayout = enabled }
}

// WithSpecializedKernels toggles unrolled kernels on the per-signal path.
func WithSpecializedKernels(enabled bool) EngineOption {
	return func(cfg *EngineConfig) { cfg.UseSpecializedKernels = enabled }
}

// WithCacheBlocking toggles the cache executor on the per-signal path.
func WithCacheBlocking(enabled bool) EngineOption {
	return func(cfg *EngineConfig) { cfg.UseCacheBlocking = enabled }
}

// WithMemoryPool toggles pooled scratch buffers.
func WithMemoryPool(enabled bool) EngineOption {
	return func(cfg *EngineConfig) { cfg.UseMemoryPool = enabled }
}

// Validate reports configuration errors.
func (c EngineConfig) Validate() error {
	if c.Parallelism < 1 {
		return core.Invalid("batch.EngineConfig", "Parallelism", c.Parallelism, "must be >= 1")
	}
	return nil
}
