// Package core holds the pieces shared by every transform package: the
// error taxonomy, input validation, numeric helpers, and the package logger.
package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Structured errors below report errors.Is against these.
var (
	// ErrValidation marks a violated precondition detected before any
	// computation starts.
	ErrValidation = errors.New("wavelet: validation failed")

	// ErrInconsistent marks two execution paths that disagree beyond
	// tolerance for identical input.
	ErrInconsistent = errors.New("wavelet: execution paths disagree")

	// ErrResourceExhausted is returned when scratch memory or workers
	// cannot be provided. It is propagated, never retried.
	ErrResourceExhausted = errors.New("wavelet: resource exhausted")
)

// NoIndex is used for ValidationError.Index when the violation is not tied
// to a position.
const NoIndex = -1

// ValidationError describes a rejected input.
type ValidationError struct {
	Op     string // operation that rejected the input, e.g. "dwt.Forward"
	Param  string // offending parameter
	Index  int    // offending position, or NoIndex
	Value  any    // offending value
	Reason string // violated precondition
}

func (e *ValidationError) Error() string {
	if e.Index != NoIndex {
		return fmt.Sprintf("%s: %s[%d] = %v: %s", e.Op, e.Param, e.Index, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s = %v: %s", e.Op, e.Param, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError without a position.
func Invalid(op, param string, value any, reason string) *ValidationError {
	return &ValidationError{Op: op, Param: param, Index: NoIndex, Value: value, Reason: reason}
}

// InvalidAt builds a ValidationError for a specific position.
func InvalidAt(op, param string, index int, value any, reason string) *ValidationError {
	return &ValidationError{Op: op, Param: param, Index: index, Value: value, Reason: reason}
}

// InconsistencyError reports a cross-path numerical divergence. It signals a
// defect in one of the kernels and is not recoverable at runtime.
type InconsistencyError struct {
	Op        string
	Path      string // execution path that diverged from the reference
	Index     int
	Got       float64
	Want      float64
	Tolerance float64
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: path %s diverges at index %d: got %v, want %v (tolerance %g)",
		e.Op, e.Path, e.Index, e.Got, e.Want, e.Tolerance)
}

// Is reports whether target is ErrInconsistent.
func (e *InconsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}
