// Command wavecal measures, for DWT and MODWT batches, the batch size from
// which the SoA batch path beats per-signal transforms on this machine and
// writes the resulting calibration table.
//
// Usage:
//
//	wavecal [flags] [wavelet-name ...]
//
// Without arguments it calibrates every built-in wavelet.
//
// Examples:
//
//	wavecal
//	wavecal -sizes 256,4096 db4 sym4
//	wavecal -o soa.cal
//	wavecal -in soa.cal -o soa.cal haar
//	wavecal -list
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-wavelet/dsp/batch"
	"github.com/cwbudde/algo-wavelet/dsp/cache"
	"github.com/cwbudde/algo-wavelet/dsp/core"
	"github.com/cwbudde/algo-wavelet/dsp/dwt"
	"github.com/cwbudde/algo-wavelet/dsp/kernel"
	"github.com/cwbudde/algo-wavelet/dsp/wavelet"
	"go.uber.org/zap"
)

func main() {
	sizes := flag.String("sizes", "256,1024,4096,16384", "comma-separated signal lengths (even)")
	maxBatch := flag.Int("max-batch", 64, "largest batch size to try")
	reps := flag.Int("reps", 5, "repetitions per measurement; the fastest counts")
	in := flag.String("in", "", "calibration file to merge before measuring")
	out := flag.String("o", "", "write the calibration table to this file instead of stdout")
	list := flag.Bool("list", false, "list available wavelet names")
	verbose := flag.Bool("v", false, "log every measurement to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wavecal [flags] [wavelet-name ...]\n\n")
		fmt.Fprintf(os.Stderr, "Measures the SoA batch crossover and prints the calibration table.\n")
		fmt.Fprintf(os.Stderr, "Without arguments, calibrates all built-in wavelets.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  wavecal -sizes 256,4096 db4 sym4\n")
		fmt.Fprintf(os.Stderr, "  wavecal -in soa.cal -o soa.cal haar\n")
		fmt.Fprintf(os.Stderr, "  wavecal -list\n")
	}
	flag.Parse()

	if *list {
		printList()
		return
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			core.SetLogger(logger)
			defer func() { _ = logger.Sync() }()
		}
	}

	lengths, err := parseSizes(*sizes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	wavelets := resolveWavelets(flag.Args())
	if len(wavelets) == 0 {
		fmt.Fprintf(os.Stderr, "error: no matching wavelets\n")
		os.Exit(1)
	}

	capability := kernel.DetectCapability()
	cal := batch.NewCalibration(capability)
	if *in != "" {
		if err := importFile(cal, *in); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	// The report goes to stderr when stdout carries the table.
	report := io.Writer(os.Stderr)
	if *out != "" {
		report = os.Stdout
	}
	printCapability(report, capability, lengths)
	if err := measure(report, cal, wavelets, lengths, *maxBatch, *reps); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := exportTable(cal, *out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printList() {
	names := make([]string, 0, len(wavelet.Builtin()))
	for _, w := range wavelet.Builtin() {
		names = append(names, w.Name())
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
}

func parseSizes(s string) ([]int, error) {
	var sizes []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad size %q: %w", f, err)
		}
		if n < 2 || n%2 != 0 {
			return nil, fmt.Errorf("size %d must be even and at least 2", n)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no sizes given")
	}
	return sizes, nil
}

func resolveWavelets(names []string) []*wavelet.Orthogonal {
	builtin := wavelet.Builtin()
	if len(names) == 0 {
		return builtin
	}
	byName := make(map[string]*wavelet.Orthogonal, len(builtin))
	for _, w := range builtin {
		byName[w.Name()] = w
	}

	var result []*wavelet.Orthogonal
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		w, ok := byName[name]
		if !ok {
			fmt.Fprintf(os.Stderr, "warning: unknown wavelet %q (use -list to see available)\n", name)
			continue
		}
		result = append(result, w)
	}
	return result
}

func importFile(cal *batch.Calibration, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return cal.Import(f)
}

func exportTable(cal *batch.Calibration, path string) error {
	if path == "" {
		return cal.Export(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := cal.Export(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printCapability(w io.Writer, c kernel.Capability, lengths []int) {
	p := cache.ParamsFor(c)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Architecture\t%s\n", c.Architecture)
	_, _ = fmt.Fprintf(tw, "Backend\t%s\n", c.Backend)
	_, _ = fmt.Fprintf(tw, "Lanes\t%d\n", c.Lanes)
	_, _ = fmt.Fprintf(tw, "Vector\t%v\n", c.VectorAvailable)
	_, _ = fmt.Fprintf(tw, "L1 / L2\t%d / %d bytes\n", p.L1Bytes, p.L2Bytes)
	_, _ = fmt.Fprintf(tw, "Default crossover\t%d\n", batch.DefaultCrossover(c.Lanes))
	for _, n := range lengths {
		_, _ = fmt.Fprintf(tw, "Cache strategy N=%d\t%s\n", n, cache.SelectStrategy(n, p))
	}
	if err := tw.Flush(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
	_, _ = fmt.Fprintln(w)
}

func measure(w io.Writer, cal *batch.Calibration, wavelets []*wavelet.Orthogonal, lengths []int, maxBatch, reps int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Wavelet\tTaps\tMode\tLength\tCrossover\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "-------\t----\t----\t------\t---------\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}

	for _, wv := range wavelets {
		for _, mode := range []dwt.Mode{dwt.ModeDWT, dwt.ModeMODWT} {
			for _, n := range lengths {
				x, err := cal.Measure(wv, mode, n, maxBatch, reps)
				if err != nil {
					return fmt.Errorf("%s %s N=%d: %w", wv.Name(), mode, n, err)
				}
				label := strconv.Itoa(x)
				if x == batch.Never {
					label = "never"
				}
				if _, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n", wv.Name(), len(wv.LowPassDecomposition()), mode, n, label); err != nil {
					return fmt.Errorf("failed to write output row: %w", err)
				}
			}
		}
	}
	return tw.Flush()
}
