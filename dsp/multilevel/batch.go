package multilevel

import (
	"fmt"

	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
	"go.uber.org/zap"
)

// DecomposeBatch runs Decompose on every signal, fanning the signals out
// over the worker pool. Signals may differ in length. Every signal is
// validated first; if any fails, the error of the lowest-indexed failure
// is returned and no results are.
func (d *Decomposer) DecomposeBatch(signals [][]float64, levels int) ([]*Result, error) {
	return d.decomposeBatch("multilevel.DecomposeBatch", signals, levels, dwt.ModeDWT)
}

// DecomposeBatchMODWT is DecomposeBatch for the undecimated pyramid.
func (d *Decomposer) DecomposeBatchMODWT(signals [][]float64, levels int) ([]*Result, error) {
	return d.decomposeBatch("multilevel.DecomposeBatchMODWT", signals, levels, dwt.ModeMODWT)
}

func (d *Decomposer) decomposeBatch(op string, signals [][]float64, levels int, mode dwt.Mode) ([]*Result, error) {
	workers, err := d.workerPool()
	if err != nil {
		return nil, err
	}
	if len(signals) == 0 {
		return []*Result{}, nil
	}
	for i, s := range signals {
		if err := d.check(op, s, levels, mode); err != nil {
			return nil, fmt.Errorf("multilevel: signal %d: %w", i, err)
		}
	}

	results := make([]*Result, len(signals))
	errs := make([]error, len(signals))
	each := func(i int) {
		defer recoverInto(&errs[i])
		if mode == dwt.ModeMODWT {
			results[i], errs[i] = d.decomposeMODWT(signals[i], levels)
		} else {
			results[i], errs[i] = d.decompose(signals[i], levels)
		}
	}
	if workers != nil {
		workers.ParallelForAtomic(len(signals), each)
	} else {
		for i := range signals {
			each(i)
		}
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("multilevel: signal %d: %w", i, err)
		}
	}
	return results, nil
}

// recoverInto converts a panic into an error stored in *err. It must be
// deferred directly.
func recoverInto(err *error) {
	if r := recover(); r != nil {
		core.Logger().Warn("multilevel worker panic", zap.Any("panic", r))
		*err = fmt.Errorf("panic: %v", r)
	}
}
