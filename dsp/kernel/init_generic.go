//go:build (!amd64 && !arm64) || purego

package kernel

import (
	_ "github.com/cwbudde/algo-wavelet/internal/arch/generic" // register generic backend
)
