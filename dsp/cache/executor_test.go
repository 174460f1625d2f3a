package cache

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"github.com/cwbudde/algo-wavelet/internal/testutil"
)

// smallParams forces every tier to appear at test-friendly sizes.
func smallParams() Params {
	return Params{L1Bytes: 256, L2Bytes: 2048, TileOutputs: 7, LineFloats: 8}
}

func TestSelectStrategy(t *testing.T) {
	p := smallParams()
	tests := []struct {
		n    int
		want Strategy
	}{
		{1, Direct},
		{32, Direct},
		{33, Blocked},
		{256, Blocked},
		{257, TiledPrefetch},
		{1 << 20, TiledPrefetch},
	}
	for _, tt := range tests {
		if got := SelectStrategy(tt.n, p); got != tt.want {
			t.Fatalf("SelectStrategy(%d) = %s, want %s", tt.n, got, tt.want)
		}
	}
}

func TestStrategiesMatchDirect(t *testing.T) {
	table := kernel.NewTable(kernel.CapabilityFor(cpu.Features{ForceGeneric: true}))
	direct, err := NewExecutor(smallParams(), WithStrategy(Direct))
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}

	for _, strategy := range []Strategy{Blocked, TiledPrefetch} {
		exec, err := NewExecutor(smallParams(), WithStrategy(strategy))
		if err != nil {
			t.Fatalf("NewExecutor: %v", err)
		}
		for _, w := range wavelet.Builtin() {
			low, high := w.LowPassDecomposition(), w.HighPassDecomposition()
			for _, n := range []int{2, 8, 14, 100, 1024} {
				signal := testutil.DeterministicNoise(int64(n), 1, n)
				for _, alg := range kernel.Algorithms() {
					ops := table.Ops(alg)
					name := fmt.Sprintf("%s/%s/%s/N=%d", strategy, w.Name(), alg, n)

					wantA, wantD := make([]float64, n/2), make([]float64, n/2)
					direct.Combined(wantA, wantD, signal, low, high, ops)
					gotA, gotD := make([]float64, n/2), make([]float64, n/2)
					exec.Combined(gotA, gotD, signal, low, high, ops)
					testutil.RequireSliceNearlyEqual(t, gotA, wantA, 0)
					testutil.RequireSliceNearlyEqual(t, gotD, wantD, 0)

					got := make([]float64, n/2)
					exec.Forward(got, signal, low, ops)
					testutil.RequireSliceNearlyEqual(t, got, wantA, 0)

					wantM, wantMD := make([]float64, n), make([]float64, n)
					direct.MODWTCombined(wantM, wantMD, signal, low, high, ops)
					gotM, gotMD := make([]float64, n), make([]float64, n)
					exec.MODWTCombined(gotM, gotMD, signal, low, high, ops)
					testutil.RequireSliceNearlyEqual(t, gotM, wantM, 0)
					testutil.RequireSliceNearlyEqual(t, gotMD, wantMD, 0)

					gotM = make([]float64, n)
					exec.MODWT(gotM, signal, low, ops)
					if d, _ := testutil.MaxAbsDiff(gotM, wantM); d != 0 {
						t.Fatalf("%s: modwt differs by %g", name, d)
					}
				}
			}
		}
	}
}

func TestExecutorStrategyFollowsSize(t *testing.T) {
	exec, err := NewExecutor(smallParams())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	if exec.Strategy(16) != Direct || exec.Strategy(100) != Blocked || exec.Strategy(4096) != TiledPrefetch {
		t.Fatal("unforced executor must select by size")
	}
	if exec.Params() != smallParams() {
		t.Fatal("Params() must return construction params")
	}
}

func TestNewExecutorRejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"zero L1", Params{L2Bytes: 1, TileOutputs: 1, LineFloats: 1}},
		{"L2 below L1", Params{L1Bytes: 64, L2Bytes: 32, TileOutputs: 1, LineFloats: 1}},
		{"zero tile", Params{L1Bytes: 64, L2Bytes: 64, LineFloats: 1}},
		{"zero line", Params{L1Bytes: 64, L2Bytes: 64, TileOutputs: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutor(tt.p)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if _, err := NewExecutor(smallParams(), WithStrategy(Strategy(9))); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown strategy: got %v, want validation error", err)
	}
}

func TestParamsFor(t *testing.T) {
	tests := []struct {
		level cpu.SIMDLevel
		want  Params
	}{
		{cpu.SIMDNone, ParamsFallback()},
		{cpu.SIMDSSE2, ParamsFallback()},
		{cpu.SIMDAVX2, ParamsAVX2()},
		{cpu.SIMDAVX512, ParamsAVX512()},
		{cpu.SIMDNEON, ParamsNEON()},
	}
	for _, tt := range tests {
		got := ParamsFor(kernel.Capability{SIMDLevel: tt.level})
		if got != tt.want {
			t.Fatalf("ParamsFor(%v) = %+v, want %+v", tt.level, got, tt.want)
		}
		if err := got.Validate(); err != nil {
			t.Fatalf("ParamsFor(%v) invalid: %v", tt.level, err)
		}
	}
}

func TestTouchClampsToSignal(t *testing.T) {
	signal := []float64{1, 2, 3, 4, 5}
	if got := touch(signal, 1, 100, 2); got != 2+4 {
		t.Fatalf("touch = %v, want 6", got)
	}
	if got := touch(signal, 5, 10, 8); got != 0 {
		t.Fatalf("touch past end = %v, want 0", got)
	}
}
