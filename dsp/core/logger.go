package core

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerPtr stores the active logger. Accessed atomically so that SetLogger
// can be called concurrently with logging from worker goroutines.
var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger shared by all transform packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Levels used:
//   - Debug: strategy decisions (kernel, cache tier, SoA vs per-signal),
//     calibration measurements, pool clears, worker pool lifecycle.
//   - Warn: recovered worker panics.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *zap.Logger {
	return loggerPtr.Load()
}
