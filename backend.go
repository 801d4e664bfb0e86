package contrast

import (
	"fmt"
	"strings"
)

// Backend selects where the analysis runs.
type Backend int

const (
	// BackendGPU prefers the registered GPU accelerator and falls back to
	// the CPU when it is missing, fails, or stalls.
	BackendGPU Backend = iota

	// BackendCPU always runs the parallel CPU bands.
	BackendCPU
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendGPU:
		return "GPU"
	case BackendCPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// Valid reports whether b is a defined backend.
func (b Backend) Valid() bool {
	return b == BackendGPU || b == BackendCPU
}

// ParseBackend parses "gpu" or "cpu", case-insensitively.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpu":
		return BackendGPU, nil
	case "cpu":
		return BackendCPU, nil
	default:
		return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidInput, s)
	}
}

// selectBackend chooses the backend for one analysis.
//
// The GPU is used only when it is preferred, an accelerator is available
// and ready, and the image has pixels to dispatch.
func selectBackend(preferred Backend, a GPUAccelerator, width, height int) Backend {
	if preferred != BackendGPU || a == nil || !a.Ready() {
		return BackendCPU
	}
	if width <= 0 || height <= 0 {
		return BackendCPU
	}
	return BackendGPU
}
