package batch

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"github.com/cwbudde/algo-wavelet/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const tol = 1e-9

// eagerCalibration sends every batch of two or more signals down the SoA path.
func eagerCalibration() *Calibration {
	c := NewCalibration(kernel.Capability{Lanes: 1})
	c.fallback = 2
	return c
}

func referenceResults(t *testing.T, w wavelet.Wavelet, signals [][]float64, mode dwt.Mode) []*dwt.Result {
	t.Helper()
	tr, err := dwt.New(w)
	if err != nil {
		t.Fatalf("dwt.New: %v", err)
	}
	out := make([]*dwt.Result, len(signals))
	for i, s := range signals {
		out[i], err = tr.Transform(s, mode)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
	}
	return out
}

func requireSameResults(t *testing.T, got, want []*dwt.Result) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d results, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Mode() != want[i].Mode() || got[i].SignalLength() != want[i].SignalLength() {
			t.Fatalf("result %d metadata mismatch", i)
		}
		testutil.RequireSliceRelativeEqual(t, got[i].Approximation().Values(), want[i].Approximation().Values(), tol)
		testutil.RequireSliceRelativeEqual(t, got[i].Detail().Values(), want[i].Detail().Values(), tol)
	}
}

func TestSoABatchMatchesSequential(t *testing.T) {
	signals := testutil.NoiseBatch(2024, 16, 1024)
	cfg := ApplyEngineOptions(DefaultEngineConfig(), WithParallelism(1), WithSoALayout(true))

	eng, err := NewEngine(wavelet.Haar(), cfg, WithCalibration(eagerCalibration()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	if !eng.UsesSoA(dwt.ModeDWT, 16, 1024) {
		t.Fatal("expected the SoA path for 16 signals")
	}
	got, err := eng.TransformBatch(signals, dwt.ModeDWT)
	if err != nil {
		t.Fatalf("TransformBatch: %v", err)
	}
	requireSameResults(t, got, referenceResults(t, wavelet.Haar(), signals, dwt.ModeDWT))
	if got[0].Algorithm() != kernel.Vector {
		t.Fatalf("SoA results report %s", got[0].Algorithm())
	}
}

func TestEveryConfigMatchesPerSignal(t *testing.T) {
	modes := []dwt.Mode{dwt.ModeDWT, dwt.ModeMODWT}
	for _, w := range wavelet.Builtin() {
		for _, n := range []int{2, 6, 128} {
			signals := testutil.NoiseBatch(int64(n), 7, n)
			for _, mode := range modes {
				want := referenceResults(t, w, signals, mode)
				for mask := range 32 {
					cfg := EngineConfig{
						Parallelism:           1 + 2*(mask&1),
						UseSoALayout:          mask&2 != 0,
						UseSpecializedKernels: mask&4 != 0,
						UseCacheBlocking:      mask&8 != 0,
						UseMemoryPool:         mask&16 != 0,
					}
					t.Run(fmt.Sprintf("%s/N=%d/%s/%+v", w.Name(), n, mode, cfg), func(t *testing.T) {
						eng, err := NewEngine(w, cfg, WithCalibration(eagerCalibration()))
						if err != nil {
							t.Fatalf("NewEngine: %v", err)
						}
						defer eng.Close()

						got, err := eng.TransformBatch(signals, mode)
						if err != nil {
							t.Fatalf("TransformBatch: %v", err)
						}
						requireSameResults(t, got, want)
					})
				}
			}
		}
	}
}

func TestEmptyBatch(t *testing.T) {
	eng, err := NewEngine(wavelet.DB2(), DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	got, err := eng.TransformBatch(nil, dwt.ModeDWT)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("TransformBatch(nil) = %v, %v", got, err)
	}
}

func TestTransformBatchValidation(t *testing.T) {
	eng, err := NewEngine(wavelet.DB2(), DefaultEngineConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	tests := []struct {
		name    string
		signals [][]float64
		mode    dwt.Mode
	}{
		{"mixed lengths", [][]float64{{1, 2, 3, 4}, {1, 2}}, dwt.ModeDWT},
		{"odd dwt", [][]float64{{1, 2, 3}, {4, 5, 6}}, dwt.ModeDWT},
		{"unknown mode", [][]float64{{1, 2}}, dwt.Mode(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.TransformBatch(tt.signals, tt.mode)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got != nil {
				t.Fatal("no partial results on failure")
			}
		})
	}

	// Odd lengths are fine for the MODWT.
	if _, err := eng.TransformBatch([][]float64{{1, 2, 3}, {4, 5, 6}}, dwt.ModeMODWT); err != nil {
		t.Fatalf("MODWT odd length: %v", err)
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	if _, err := NewEngine(wavelet.Haar(), EngineConfig{}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewEngine(nil, DefaultEngineConfig()); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for nil wavelet, got %v", err)
	}
}

func TestFirstFailingSignalWins(t *testing.T) {
	eng, err := NewEngine(wavelet.Haar(), ApplyEngineOptions(DefaultEngineConfig(), WithParallelism(4)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	signals := testutil.NoiseBatch(1, 8, 16)
	signals[5] = signals[5][:15]
	signals[2] = signals[2][:3]

	_, err = eng.transformEach(signals, dwt.ModeDWT)
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "signal 2") {
		t.Fatalf("error should name signal 2: %v", err)
	}
}

func TestWorkerPanicFailsCall(t *testing.T) {
	eng, err := NewEngine(wavelet.Haar(), ApplyEngineOptions(DefaultEngineConfig(), WithParallelism(2)))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()
	eng.tr = nil

	_, err = eng.transformEach(testutil.NoiseBatch(1, 4, 8), dwt.ModeDWT)
	if err == nil || !strings.Contains(err.Error(), "panic") {
		t.Fatalf("expected recovered panic, got %v", err)
	}
}

func TestCallerOwnedWorkerPool(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	eng, err := NewEngine(wavelet.DB4(), ApplyEngineOptions(DefaultEngineConfig(), WithParallelism(3)), WithWorkerPool(pool))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.Close()
	eng.Close()

	if _, err := eng.TransformBatch(testutil.NoiseBatch(1, 2, 8), dwt.ModeDWT); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed engine: got %v", err)
	}

	// The pool still runs work after the engine is closed.
	other, err := NewEngine(wavelet.DB4(), ApplyEngineOptions(DefaultEngineConfig(), WithParallelism(3), WithSoALayout(false)), WithWorkerPool(pool))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer other.Close()
	signals := testutil.NoiseBatch(3, 9, 64)
	got, err := other.TransformBatch(signals, dwt.ModeDWT)
	if err != nil {
		t.Fatalf("TransformBatch: %v", err)
	}
	requireSameResults(t, got, referenceResults(t, wavelet.DB4(), signals, dwt.ModeDWT))
}

func TestMemoryPoolIsUsed(t *testing.T) {
	pool := buffer.NewPool()
	eng, err := NewEngine(wavelet.Sym4(), DefaultEngineConfig(), WithBufferPool(pool), WithCalibration(eagerCalibration()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	if _, err := eng.TransformBatch(testutil.NoiseBatch(5, 4, 32), dwt.ModeMODWT); err != nil {
		t.Fatalf("TransformBatch: %v", err)
	}
	s := pool.Stats()
	if s.Hits+s.Misses == 0 || s.Releases != s.Hits+s.Misses {
		t.Fatalf("pool stats %+v: every acquire must be released", s)
	}
}

func TestMemoryPoolServesPerSignalKernels(t *testing.T) {
	pool := buffer.NewPool()
	vector := kernel.NewSelector(kernel.Capability{Lanes: 4, VectorAvailable: true})
	cfg := ApplyEngineOptions(DefaultEngineConfig(),
		WithParallelism(4), WithSoALayout(false), WithSpecializedKernels(false))
	eng, err := NewEngine(wavelet.DB4(), cfg, WithBufferPool(pool), WithSelector(vector))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()

	signals := testutil.NoiseBatch(44, 8, 4096)
	for _, mode := range []dwt.Mode{dwt.ModeDWT, dwt.ModeMODWT} {
		got, err := eng.TransformBatch(signals, mode)
		if err != nil {
			t.Fatalf("TransformBatch(%s): %v", mode, err)
		}
		if got[0].Algorithm() != kernel.Vector {
			t.Fatalf("%s ran on %s", mode, got[0].Algorithm())
		}
		requireSameResults(t, got, referenceResults(t, wavelet.DB4(), signals, mode))
	}

	s := pool.Stats()
	if s.Hits+s.Misses < 2*uint64(len(signals)) || s.Releases != s.Hits+s.Misses {
		t.Fatalf("pool stats %+v: per-signal scratch must come from the pool", s)
	}
}

func TestStrategyIsLogged(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	core.SetLogger(zap.New(obs))
	defer core.SetLogger(nil)

	eng, err := NewEngine(wavelet.Haar(), DefaultEngineConfig(), WithCalibration(eagerCalibration()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer eng.Close()
	if _, err := eng.TransformBatch(testutil.NoiseBatch(1, 4, 8), dwt.ModeDWT); err != nil {
		t.Fatalf("TransformBatch: %v", err)
	}

	entries := logs.FilterMessage("batch strategy").All()
	if len(entries) != 1 {
		t.Fatalf("got %d strategy logs, want 1", len(entries))
	}
	if soa, ok := entries[0].ContextMap()["soa"].(bool); !ok || !soa {
		t.Fatalf("strategy log fields %v", entries[0].ContextMap())
	}
}

func BenchmarkTransformBatch(b *testing.B) {
	signals := testutil.NoiseBatch(1, 32, 1024)
	for _, soa := range []bool{false, true} {
		for _, par := range []int{1, 4} {
			cfg := ApplyEngineOptions(DefaultEngineConfig(), WithSoALayout(soa), WithParallelism(par))
			eng, err := NewEngine(wavelet.DB4(), cfg, WithCalibration(eagerCalibration()))
			if err != nil {
				b.Fatal(err)
			}
			b.Run(fmt.Sprintf("soa=%v/par=%d", soa, par), func(b *testing.B) {
				b.SetBytes(int64(32 * 1024 * 8))
				for b.Loop() {
					if _, err := eng.TransformBatch(signals, dwt.ModeDWT); err != nil {
						b.Fatal(err)
					}
				}
			})
			eng.Close()
		}
	}
}
