package conv

import (
	"errors"
	"fmt"
	"sync"

	algofft "github.com/cwbudde/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/algo-wavelet/dsp/core"
)

// Errors returned by the circular routines.
var (
	ErrEmptyInput     = errors.New("conv: empty input")
	ErrEmptyFilter    = errors.New("conv: empty filter")
	ErrLengthMismatch = errors.New("conv: buffer length mismatch")
	ErrNotPowerOfTwo  = errors.New("conv: FFT path needs a power-of-two length")
)

// PreferFFT reports whether the FFT path is expected to beat the direct
// one for a period of n and a filter of taps coefficients.
func PreferFFT(n, taps int) bool {
	return core.IsPowerOfTwo(n) && n >= 64 && 4*taps >= n
}

// CircularCorrelate computes out[t] = sum_l signal[(t+l) mod N] * filter[l],
// choosing the strategy with PreferFFT.
func CircularCorrelate(signal, filter []float64) ([]float64, error) {
	if err := checkInputs(signal, filter); err != nil {
		return nil, err
	}
	if PreferFFT(len(signal), len(filter)) {
		return CircularCorrelateFFT(signal, filter)
	}
	return CircularCorrelateDirect(signal, filter)
}

// CircularConvolve computes the adjoint of CircularCorrelate:
// out[(t+l) mod N] += coeffs[t] * filter[l].
func CircularConvolve(coeffs, filter []float64) ([]float64, error) {
	if err := checkInputs(coeffs, filter); err != nil {
		return nil, err
	}
	if PreferFFT(len(coeffs), len(filter)) {
		return CircularConvolveFFT(coeffs, filter)
	}
	return CircularConvolveDirect(coeffs, filter)
}

// CircularCorrelateDirect is the time-domain form of CircularCorrelate.
func CircularCorrelateDirect(signal, filter []float64) ([]float64, error) {
	if err := checkInputs(signal, filter); err != nil {
		return nil, err
	}
	out := make([]float64, len(signal))
	CircularCorrelateDirectTo(out, signal, filter)
	return out, nil
}

// CircularCorrelateDirectTo writes the correlation into dst, which must
// have len(signal) elements.
func CircularCorrelateDirectTo(dst, signal, filter []float64) {
	n := len(signal)
	folded := Fold(filter, n)
	temp := make([]float64, n)
	core.Zero(dst)

	// out[t] += f[j] * signal[(t+j) mod n]: signal rotated left by j.
	for j, c := range folded {
		if c == 0 {
			continue
		}
		vecmath.ScaleBlock(temp[:n-j], signal[j:], c)
		vecmath.AddBlockInPlace(dst[:n-j], temp[:n-j])
		if j > 0 {
			vecmath.ScaleBlock(temp[:j], signal[:j], c)
			vecmath.AddBlockInPlace(dst[n-j:], temp[:j])
		}
	}
}

// CircularConvolveDirect is the time-domain form of CircularConvolve.
func CircularConvolveDirect(coeffs, filter []float64) ([]float64, error) {
	if err := checkInputs(coeffs, filter); err != nil {
		return nil, err
	}
	n := len(coeffs)
	folded := Fold(filter, n)
	out := make([]float64, n)
	temp := make([]float64, n)

	// out[s] += f[j] * coeffs[(s-j) mod n]: coeffs rotated right by j.
	for j, c := range folded {
		if c == 0 {
			continue
		}
		vecmath.ScaleBlock(temp[:n-j], coeffs[:n-j], c)
		vecmath.AddBlockInPlace(out[j:], temp[:n-j])
		if j > 0 {
			vecmath.ScaleBlock(temp[:j], coeffs[n-j:], c)
			vecmath.AddBlockInPlace(out[:j], temp[:j])
		}
	}
	return out, nil
}

// CircularCorrelateFFT computes CircularCorrelate in the frequency domain:
// IFFT(FFT(signal) * conj(FFT(folded filter))).
func CircularCorrelateFFT(signal, filter []float64) ([]float64, error) {
	return spectral(signal, filter, true)
}

// CircularConvolveFFT computes CircularConvolve in the frequency domain:
// IFFT(FFT(coeffs) * FFT(folded filter)).
func CircularConvolveFFT(coeffs, filter []float64) ([]float64, error) {
	return spectral(coeffs, filter, false)
}

// Fold wraps filter onto a period of n: out[j] = sum_{k mod n = j} filter[k].
func Fold(filter []float64, n int) []float64 {
	out := make([]float64, n)
	for k, c := range filter {
		out[k%n] += c
	}
	return out
}

func spectral(x, filter []float64, conjugate bool) ([]float64, error) {
	if err := checkInputs(x, filter); err != nil {
		return nil, err
	}
	n := len(x)
	if !core.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}

	if n == 1 {
		var sum float64
		for _, c := range filter {
			sum += c
		}
		return []float64{x[0] * sum}, nil
	}

	ws := getWorkspace(n)
	defer putWorkspace(ws)
	if ws.err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", ws.err)
	}

	folded := Fold(filter, n)
	for i := range n {
		ws.a[i] = complex(x[i], 0)
		ws.b[i] = complex(folded[i], 0)
	}

	if err := ws.plan.Forward(ws.aFreq, ws.a); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}
	if err := ws.plan.Forward(ws.bFreq, ws.b); err != nil {
		return nil, fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range ws.aFreq {
		f := ws.bFreq[i]
		if conjugate {
			f = complex(real(f), -imag(f))
		}
		ws.aFreq[i] *= f
	}

	if err := ws.plan.Inverse(ws.a, ws.aFreq); err != nil {
		return nil, fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = real(ws.a[i])
	}
	return out, nil
}

func checkInputs(x, filter []float64) error {
	if len(x) == 0 {
		return ErrEmptyInput
	}
	if len(filter) == 0 {
		return ErrEmptyFilter
	}
	return nil
}

// workspace holds a plan and its scratch for one transform size.
type workspace struct {
	plan  *algofft.Plan[complex128]
	a     []complex128
	b     []complex128
	aFreq []complex128
	bFreq []complex128
	err   error
}

var (
	workspacePoolsMu sync.RWMutex
	workspacePools   = map[int]*sync.Pool{}
)

// getWorkspacePool returns the pool for the given FFT size, creating it if needed.
func getWorkspacePool(n int) *sync.Pool {
	workspacePoolsMu.RLock()
	pool, ok := workspacePools[n]
	workspacePoolsMu.RUnlock()
	if ok {
		return pool
	}

	workspacePoolsMu.Lock()
	defer workspacePoolsMu.Unlock()

	if pool, ok := workspacePools[n]; ok {
		return pool
	}
	pool = &sync.Pool{
		New: func() any {
			plan, err := algofft.NewPlan64(n)
			return &workspace{
				plan:  plan,
				a:     make([]complex128, n),
				b:     make([]complex128, n),
				aFreq: make([]complex128, n),
				bFreq: make([]complex128, n),
				err:   err,
			}
		},
	}
	workspacePools[n] = pool
	return pool
}

func getWorkspace(n int) *workspace {
	return getWorkspacePool(n).Get().(*workspace)
}

func putWorkspace(ws *workspace) {
	if ws.err != nil {
		return
	}
	getWorkspacePool(len(ws.a)).Put(ws)
}
