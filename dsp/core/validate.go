package core

import (
	"math"
	"strconv"
)

// CheckSignal rejects nil, empty, and non-finite input.
func CheckSignal(op, param string, x []float64) error {
	if x == nil {
		return Invalid(op, param, "nil", "must not be nil")
	}
	if len(x) == 0 {
		return Invalid(op, param, "len 0", "must not be empty")
	}
	return CheckFinite(op, param, x)
}

// CheckFinite rejects NaN and ±Inf values, reporting the first offender.
func CheckFinite(op, param string, x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InvalidAt(op, param, i, v, "must be finite")
		}
	}
	return nil
}

// CheckEvenLength rejects signals that cannot be decimated by two.
func CheckEvenLength(op, param string, x []float64) error {
	if len(x) < 2 || len(x)%2 != 0 {
		return Invalid(op, param, len(x), "length must be even and at least 2")
	}
	return nil
}

// CheckLength rejects buffers whose length differs from want.
func CheckLength(op, param string, x []float64, want int) error {
	if len(x) != want {
		return Invalid(op, param, len(x), "length mismatch, want "+strconv.Itoa(want))
	}
	return nil
}
