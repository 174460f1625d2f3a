package batch

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"go.uber.org/zap"
)

const calibrationHeader = "# algo-wavelet soa-crossover v2"

// Never marks a (mode, length, filter) class for which the SoA pass did not win
// at any measured batch size.
const Never = 0

// DefaultCrossover is the batch size from which the SoA pass is assumed to
// win when nothing was measured: two full vector registers, at least four.
func DefaultCrossover(lanes int) int {
	return max(4, 2*lanes)
}

// LengthClass buckets signal lengths by their power-of-two floor.
func LengthClass(n int) int {
	if n < 1 {
		return 0
	}
	return core.Log2Floor(n)
}

type calibrationKey struct {
	mode         dwt.Mode
	lengthClass  int
	filterLength int
}

// Calibration maps (mode, length class, filter length) to the smallest
// batch size for which the SoA pass beats per-signal processing. The two
// modes are kept apart because MODWT doubles the outputs per signal. It is
// safe for concurrent use.
type Calibration struct {
	mu       sync.RWMutex
	fallback int
	entries  map[calibrationKey]int
}

// NewCalibration returns an empty table whose default crossover is derived
// from the capability's lane count.
func NewCalibration(c kernel.Capability) *Calibration {
	return &Calibration{
		fallback: DefaultCrossover(c.Lanes),
		entries:  make(map[calibrationKey]int),
	}
}

// Crossover returns the crossover batch size for mode, signals of length n
// and filters of taps coefficients, or Never.
func (c *Calibration) Crossover(mode dwt.Mode, n, taps int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.entries[calibrationKey{mode, LengthClass(n), taps}]; ok {
		return v
	}
	return c.fallback
}

// UseSoA reports whether a batch of the given size should take the SoA path.
func (c *Calibration) UseSoA(mode dwt.Mode, batch, n, taps int) bool {
	x := c.Crossover(mode, n, taps)
	return x != Never && batch >= x
}

// Set records a crossover for mode and the length class of n. crossover is
// a batch size >= 1, or Never.
func (c *Calibration) Set(mode dwt.Mode, n, taps, crossover int) error {
	const op = "batch.Calibration.Set"
	if !knownMode(mode) {
		return core.Invalid(op, "mode", mode, "unknown transform mode")
	}
	if n < 1 {
		return core.Invalid(op, "n", n, "must be >= 1")
	}
	if taps < 1 {
		return core.Invalid(op, "taps", taps, "must be >= 1")
	}
	if crossover < 0 {
		return core.Invalid(op, "crossover", crossover, "must be >= 0")
	}
	c.mu.Lock()
	c.entries[calibrationKey{mode, LengthClass(n), taps}] = crossover
	c.mu.Unlock()
	return nil
}

// Len returns the number of measured entries.
func (c *Calibration) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Measure times the SoA pass against sequential per-signal transforms of
// the given mode for batch sizes 1, 2, 4, ... up to maxBatch, records the
// smallest size at which SoA wins and returns it (Never if it never wins).
func (c *Calibration) Measure(w wavelet.Wavelet, mode dwt.Mode, n, maxBatch, reps int) (int, error) {
	const op = "batch.Calibration.Measure"
	if !knownMode(mode) {
		return 0, core.Invalid(op, "mode", mode, "unknown transform mode")
	}
	if n < 2 || n%2 != 0 {
		return 0, core.Invalid(op, "n", n, "must be even and at least 2")
	}
	if maxBatch < 1 {
		return 0, core.Invalid(op, "maxBatch", maxBatch, "must be >= 1")
	}
	reps = max(reps, 1)

	eng, err := NewEngine(w, EngineConfig{Parallelism: 1, UseSpecializedKernels: true, UseCacheBlocking: true})
	if err != nil {
		return 0, err
	}
	defer eng.Close()

	rng := rand.New(rand.NewSource(int64(n)))
	signals := make([][]float64, maxBatch)
	for s := range signals {
		signals[s] = make([]float64, n)
		for t := range signals[s] {
			signals[s][t] = rng.Float64()*2 - 1
		}
	}

	crossover := Never
	for b := 1; b <= maxBatch; b *= 2 {
		sub := signals[:b]
		seq, err := bestOf(reps, func() error {
			_, err := eng.transformEach(sub, mode)
			return err
		})
		if err != nil {
			return 0, err
		}
		soa, err := bestOf(reps, func() error {
			_, err := eng.transformSoA(sub, n, mode)
			return err
		})
		if err != nil {
			return 0, err
		}
		core.Logger().Debug("soa calibration sample",
			zap.String("wavelet", w.Name()),
			zap.Stringer("mode", mode),
			zap.Int("length", n),
			zap.Int("batch", b),
			zap.Duration("sequential", seq),
			zap.Duration("soa", soa))
		if soa < seq {
			crossover = b
			break
		}
	}

	if err := c.Set(mode, n, eng.tr.FilterLength(), crossover); err != nil {
		return 0, err
	}
	return crossover, nil
}

func bestOf(reps int, fn func() error) (time.Duration, error) {
	best := time.Duration(1<<63 - 1)
	for range reps {
		start := time.Now()
		if err := fn(); err != nil {
			return 0, err
		}
		best = min(best, time.Since(start))
	}
	return best, nil
}

// Export writes the measured entries, one "mode class taps crossover" line
// each.
func (c *Calibration) Export(w io.Writer) error {
	c.mu.RLock()
	keys := make([]calibrationKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].mode != keys[j].mode {
			return keys[i].mode < keys[j].mode
		}
		if keys[i].lengthClass != keys[j].lengthClass {
			return keys[i].lengthClass < keys[j].lengthClass
		}
		return keys[i].filterLength < keys[j].filterLength
	})

	var sb strings.Builder
	sb.WriteString(calibrationHeader)
	sb.WriteByte('\n')
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d %d %d\n", k.mode, k.lengthClass, k.filterLength, c.entries[k])
	}
	c.mu.RUnlock()

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("batch: export calibration: %w", err)
	}
	return nil
}

// Import merges entries produced by Export. Blank lines and lines starting
// with '#' are ignored. Nothing is merged if any line is malformed.
func (c *Calibration) Import(r io.Reader) error {
	parsed := make(map[calibrationKey]int)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return fmt.Errorf("batch: calibration line %d: want 4 fields, got %d", line, len(fields))
		}
		mode, ok := parseMode(fields[0])
		if !ok {
			return fmt.Errorf("batch: calibration line %d: unknown mode %q", line, fields[0])
		}
		var vals [3]int
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(f)
			if err != nil || v < 0 {
				return fmt.Errorf("batch: calibration line %d: bad field %q", line, f)
			}
			vals[i] = v
		}
		if vals[1] < 1 {
			return fmt.Errorf("batch: calibration line %d: filter length must be >= 1", line)
		}
		parsed[calibrationKey{mode, vals[0], vals[1]}] = vals[2]
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("batch: import calibration: %w", err)
	}

	c.mu.Lock()
	for k, v := range parsed {
		c.entries[k] = v
	}
	c.mu.Unlock()
	return nil
}

func knownMode(m dwt.Mode) bool {
	return m == dwt.ModeDWT || m == dwt.ModeMODWT
}

func parseMode(s string) (dwt.Mode, bool) {
	for _, m := range []dwt.Mode{dwt.ModeDWT, dwt.ModeMODWT} {
		if s == m.String() {
			return m, true
		}
	}
	return 0, false
}
