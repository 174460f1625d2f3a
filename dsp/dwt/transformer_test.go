package dwt

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-vecmath/cpu"
	"github.com/cwbudde/algo-wavelet/dsp/buffer"
	"github.com/cwbudde/algo-wavelet/dsp/cache"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"github.com/cwbudde/algo-wavelet/internal/testutil"
)

const tol = 1e-9

func mustNew(t *testing.T, w wavelet.Wavelet, opts ...Option) *Transformer {
	t.Helper()
	tr, err := New(w, opts...)
	if err != nil {
		t.Fatalf("New(%s): %v", w.Name(), err)
	}
	return tr
}

func TestForwardHaarStaircase(t *testing.T) {
	tr := mustNew(t, wavelet.Haar())
	res, err := tr.Forward([]float64{1, 1, 2, 2, 3, 3, 4, 4})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	s := math.Sqrt2
	testutil.RequireSliceNearlyEqual(t, res.Approximation().Values(), []float64{s, 2 * s, 3 * s, 4 * s}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, res.Detail().Values(), []float64{0, 0, 0, 0}, 1e-12)
	if res.Mode() != ModeDWT || res.SignalLength() != 8 {
		t.Fatalf("mode/length = %s/%d", res.Mode(), res.SignalLength())
	}
}

func TestForwardConstantSignal(t *testing.T) {
	tr := mustNew(t, wavelet.Haar())
	res, err := tr.Forward(testutil.DC(5, 8))
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	for i := range res.Approximation().Len() {
		if !core.NearlyEqual(res.Approximation().At(i), 5*math.Sqrt2, 1e-12) {
			t.Fatalf("approx[%d] = %v", i, res.Approximation().At(i))
		}
		if res.Detail().At(i) != 0 {
			t.Fatalf("detail[%d] = %v, want 0", i, res.Detail().At(i))
		}
	}
}

func TestRoundTripAndEnergy(t *testing.T) {
	for _, w := range wavelet.Builtin() {
		tr := mustNew(t, w)
		for _, n := range []int{2, 4, 16, 64, 128, 1000, 4096} {
			t.Run(fmt.Sprintf("%s/N=%d", w.Name(), n), func(t *testing.T) {
				signal := testutil.DeterministicNoise(int64(n), 1, n)
				energy := core.Energy(signal)

				res, err := tr.Forward(signal)
				if err != nil {
					t.Fatalf("Forward: %v", err)
				}
				if res.Approximation().Len() != n/2 || res.Detail().Len() != n/2 {
					t.Fatalf("band lengths %d/%d, want %d", res.Approximation().Len(), res.Detail().Len(), n/2)
				}
				if !core.NearlyEqual(res.Energy(), energy, tol) {
					t.Fatalf("energy %v, want %v", res.Energy(), energy)
				}
				back, err := tr.Inverse(res)
				if err != nil {
					t.Fatalf("Inverse: %v", err)
				}
				testutil.RequireSliceNearlyEqual(t, back, signal, tol)

				mres, err := tr.ForwardMODWT(signal)
				if err != nil {
					t.Fatalf("ForwardMODWT: %v", err)
				}
				if mres.Approximation().Len() != n || mres.Detail().Len() != n {
					t.Fatalf("MODWT band lengths %d/%d, want %d", mres.Approximation().Len(), mres.Detail().Len(), n)
				}
				if !core.NearlyEqual(mres.Energy(), energy, tol) {
					t.Fatalf("MODWT energy %v, want %v", mres.Energy(), energy)
				}
				mback, err := tr.InverseMODWT(mres)
				if err != nil {
					t.Fatalf("InverseMODWT: %v", err)
				}
				testutil.RequireSliceNearlyEqual(t, mback, signal, tol)
			})
		}
	}
}

func TestMODWTOddLength(t *testing.T) {
	tr := mustNew(t, wavelet.DB4())
	signal := testutil.DeterministicNoise(5, 1, 13)
	res, err := tr.Transform(signal, ModeMODWT)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	back, err := tr.InverseMODWT(res)
	if err != nil {
		t.Fatalf("InverseMODWT: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, back, signal, tol)
}

// MODWT of a shifted signal is the shifted MODWT.
func TestMODWTShiftInvariance(t *testing.T) {
	tr := mustNew(t, wavelet.Sym4())
	n := 64
	signal := testutil.DeterministicNoise(11, 1, n)
	shifted := make([]float64, n)
	for i := range shifted {
		shifted[i] = signal[(i+3)%n]
	}

	a, _ := tr.ForwardMODWT(signal)
	b, _ := tr.ForwardMODWT(shifted)
	for i := range n {
		if !core.NearlyEqual(b.Detail().At(i), a.Detail().At((i+3)%n), 1e-12) {
			t.Fatalf("detail[%d] not shift-invariant", i)
		}
	}
}

func TestForcedPathsAgree(t *testing.T) {
	capabilities := []kernel.Capability{
		kernel.CapabilityFor(cpu.Features{ForceGeneric: true}),
		kernel.DetectCapability(),
	}
	for _, c := range capabilities {
		for _, w := range wavelet.Builtin() {
			for n := 2; n <= 1<<14; n *= 4 {
				signal := testutil.DeterministicNoise(int64(n), 1, n)
				var ref *Result
				for _, cfg := range []Config{
					{Boundary: BoundaryPeriodic, ForceScalar: true},
					{Boundary: BoundaryPeriodic, ForceSIMD: true},
					{Boundary: BoundaryPeriodic, ForceSIMD: true, UseCacheBlocking: true},
					DefaultConfig(),
				} {
					tr := mustNew(t, w, WithConfig(cfg), WithSelector(kernel.NewSelector(c)))
					res, err := tr.Forward(signal)
					if err != nil {
						t.Fatalf("Forward: %v", err)
					}
					if ref == nil {
						ref = res
						if res.Algorithm() != kernel.Scalar {
							t.Fatalf("ForceScalar produced %s", res.Algorithm())
						}
						continue
					}
					testutil.RequireSliceRelativeEqual(t, res.Approximation().Values(), ref.Approximation().Values(), tol)
					testutil.RequireSliceRelativeEqual(t, res.Detail().Values(), ref.Detail().Values(), tol)
				}
			}
		}
	}
}

func TestForwardWithEveryAlgorithm(t *testing.T) {
	tr := mustNew(t, wavelet.DB4())
	signal := testutil.DeterministicNoise(1, 1, 256)
	ref, err := tr.ForwardWith(signal, kernel.Scalar)
	if err != nil {
		t.Fatalf("ForwardWith: %v", err)
	}
	for _, alg := range kernel.Algorithms() {
		res, err := tr.ForwardWith(signal, alg)
		if err != nil {
			t.Fatalf("ForwardWith(%s): %v", alg, err)
		}
		if res.Algorithm() != alg {
			t.Fatalf("Algorithm() = %s, want %s", res.Algorithm(), alg)
		}
		testutil.RequireSliceRelativeEqual(t, res.Approximation().Values(), ref.Approximation().Values(), tol)

		mres, err := tr.ForwardMODWTWith(signal, alg)
		if err != nil {
			t.Fatalf("ForwardMODWTWith(%s): %v", alg, err)
		}
		if mres.Mode() != ModeMODWT || mres.Algorithm() != alg {
			t.Fatalf("unexpected MODWT result metadata %s/%s", mres.Mode(), mres.Algorithm())
		}
	}

	if _, err := tr.ForwardWith(signal, kernel.Algorithm(7)); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown algorithm: got %v", err)
	}
	if _, err := tr.ForwardMODWTWith(signal, kernel.Algorithm(-1)); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("unknown algorithm: got %v", err)
	}
}

func TestForwardBandsMatchesForward(t *testing.T) {
	signal := testutil.DeterministicNoise(5, 1, 128)
	for _, w := range wavelet.Builtin() {
		tr := mustNew(t, w)
		res, err := tr.Forward(signal)
		if err != nil {
			t.Fatalf("%s: Forward: %v", w.Name(), err)
		}
		a, d, err := tr.ForwardBands(signal)
		if err != nil {
			t.Fatalf("%s: ForwardBands: %v", w.Name(), err)
		}
		testutil.RequireSliceNearlyEqual(t, a, res.Approximation().Values(), 0)
		testutil.RequireSliceNearlyEqual(t, d, res.Detail().Values(), 0)
	}
	if _, _, err := mustNew(t, wavelet.Haar()).ForwardBands([]float64{1, 2, 3}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("odd length: got %v", err)
	}
}

func TestExplicitMODWTFilters(t *testing.T) {
	signal := testutil.DeterministicNoise(6, 1, 96)
	vector := kernel.NewSelector(kernel.Capability{Lanes: 4, VectorAvailable: true})
	for _, cfg := range []Config{DefaultConfig(), {ForceScalar: true}, {ForceSIMD: true}} {
		tr := mustNew(t, wavelet.DB4(), WithConfig(cfg), WithSelector(vector), WithPool(buffer.NewPool()))
		res, err := tr.ForwardMODWT(signal)
		if err != nil {
			t.Fatalf("ForwardMODWT: %v", err)
		}
		a, d, err := tr.AnalyzeMODWT(signal, tr.mLow, tr.mHigh)
		if err != nil {
			t.Fatalf("AnalyzeMODWT: %v", err)
		}
		testutil.RequireSliceRelativeEqual(t, a, res.Approximation().Values(), tol)
		testutil.RequireSliceRelativeEqual(t, d, res.Detail().Values(), tol)

		rec, err := tr.SynthesizeMODWT(a, d, tr.mLowRec, tr.mHighRec)
		if err != nil {
			t.Fatalf("SynthesizeMODWT: %v", err)
		}
		testutil.RequireSliceRelativeEqual(t, rec, signal, tol)
	}

	tr := mustNew(t, wavelet.DB4())
	if _, _, err := tr.AnalyzeMODWT(signal, tr.mLow, tr.mHigh[:3]); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("mismatched filters: got %v", err)
	}
	if _, err := tr.SynthesizeMODWT(signal, signal[:4], tr.mLowRec, tr.mHighRec); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("mismatched bands: got %v", err)
	}
}

func TestCheckConsistency(t *testing.T) {
	pool := buffer.NewPool()
	for _, w := range wavelet.Builtin() {
		tr := mustNew(t, w, WithPool(pool))
		for _, n := range []int{1, 7, 64, 1024} {
			if err := tr.CheckConsistency(testutil.DeterministicNoise(int64(n), 1, n), DefaultTolerance); err != nil {
				t.Fatalf("%s N=%d: %v", w.Name(), n, err)
			}
		}
	}
	if s := pool.Stats(); s.Releases == 0 {
		t.Fatal("consistency scratch must come from the pool")
	}
}

func TestCompareBandsReportsFirstDivergence(t *testing.T) {
	want := []float64{1, 2, 3}
	err := compareBands("op", "vector/dwt", []float64{1, 2, 3}, []float64{0, 5, 0}, want, []float64{0, 0, 0}, 1e-9)

	var inc *core.InconsistencyError
	if !errors.As(err, &inc) {
		t.Fatalf("expected InconsistencyError, got %v", err)
	}
	if !errors.Is(err, core.ErrInconsistent) {
		t.Fatal("InconsistencyError must match ErrInconsistent")
	}
	if inc.Path != "vector/dwt/detail" || inc.Index != 1 || inc.Got != 5 || inc.Want != 0 {
		t.Fatalf("unexpected error %+v", inc)
	}

	// Differences are judged relative to the largest reference value.
	big := []float64{1e6, 0}
	if err := compareBands("op", "p", []float64{1e6 + 1e-4, 0}, []float64{0, 0}, big, []float64{0, 0}, 1e-9); err != nil {
		t.Fatalf("relative difference flagged: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("New(nil) = %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"both forced", Config{ForceScalar: true, ForceSIMD: true}},
		{"symmetric", Config{Boundary: BoundarySymmetric}},
		{"zero", Config{Boundary: BoundaryZero}},
		{"unknown boundary", Config{Boundary: Boundary(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(wavelet.Haar(), WithConfig(tt.cfg)); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInputValidation(t *testing.T) {
	tr := mustNew(t, wavelet.Haar())
	tests := []struct {
		name string
		run  func() error
	}{
		{"nil", func() error { _, err := tr.Forward(nil); return err }},
		{"odd", func() error { _, err := tr.Forward([]float64{1, 2, 3}); return err }},
		{"single", func() error { _, err := tr.Forward([]float64{1}); return err }},
		{"nan", func() error { _, err := tr.Forward([]float64{1, math.NaN()}); return err }},
		{"modwt inf", func() error { _, err := tr.ForwardMODWT([]float64{math.Inf(-1)}); return err }},
		{"mode", func() error { _, err := tr.Transform([]float64{1, 2}, Mode(5)); return err }},
		{"inverse nil", func() error { _, err := tr.Inverse(nil); return err }},
		{"inverse wrong mode", func() error {
			_, err := tr.Inverse(NewResult([]float64{1}, []float64{1}, ModeMODWT, 1, kernel.Scalar))
			return err
		}},
		{"inverse mismatched bands", func() error {
			_, err := tr.Inverse(NewResult([]float64{1, 2}, []float64{1}, ModeDWT, 4, kernel.Scalar))
			return err
		}},
		{"inverse nan detail", func() error {
			_, err := tr.Inverse(NewResult([]float64{1}, []float64{math.NaN()}, ModeDWT, 2, kernel.Scalar))
			return err
		}},
		{"inverse modwt empty", func() error {
			_, err := tr.InverseMODWT(NewResult(nil, nil, ModeMODWT, 0, kernel.Scalar))
			return err
		}},
		{"consistency tol", func() error { return tr.CheckConsistency([]float64{1, 2}, math.NaN()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestResultDoesNotAlias(t *testing.T) {
	tr := mustNew(t, wavelet.Haar())
	signal := []float64{1, 2, 3, 4}
	res, err := tr.Forward(signal)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	want := res.Approximation().At(0)

	signal[0] = 100
	v := res.Approximation().Values()
	v[0] = -1
	dst := make([]float64, 2)
	res.Approximation().CopyTo(dst)
	dst[0] = -2

	if res.Approximation().At(0) != want {
		t.Fatal("result storage was reachable from outside")
	}
}

func TestCacheExecutorIsUsed(t *testing.T) {
	exec, err := cache.NewExecutor(cache.Params{L1Bytes: 64, L2Bytes: 128, TileOutputs: 3, LineFloats: 2}, cache.WithStrategy(cache.TiledPrefetch))
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	signal := testutil.DeterministicNoise(4, 1, 100)

	tiled := mustNew(t, wavelet.Sym4(), WithExecutor(exec))
	plain := mustNew(t, wavelet.Sym4(), WithConfig(Config{Boundary: BoundaryPeriodic, UseSpecializedKernels: true}))

	a, _ := tiled.Forward(signal)
	b, _ := plain.Forward(signal)
	testutil.RequireSliceNearlyEqual(t, a.Approximation().Values(), b.Approximation().Values(), 0)
	ma, _ := tiled.ForwardMODWT(signal)
	mb, _ := plain.ForwardMODWT(signal)
	testutil.RequireSliceNearlyEqual(t, ma.Detail().Values(), mb.Detail().Values(), 0)
}

func TestStrings(t *testing.T) {
	if BoundaryPeriodic.String() != "periodic" || Boundary(8).String() != "Boundary(8)" {
		t.Fatal("unexpected Boundary string")
	}
	if ModeMODWT.String() != "modwt" || Mode(3).String() != "Mode(3)" {
		t.Fatal("unexpected Mode string")
	}
}
