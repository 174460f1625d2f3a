//go:build arm64 && !purego

package kernel

import (
	_ "github.com/cwbudde/algo-wavelet/internal/arch/arm64/neon" // register NEON backend
	_ "github.com/cwbudde/algo-wavelet/internal/arch/generic"    // register generic backend
)
