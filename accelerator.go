package contrast

import (
	"context"
	"errors"
	"sync"

	"github.com/gogpu/gpucontext"
)

// ErrFallbackToCPU indicates the GPU accelerator declines a request.
// The analyzer transparently falls back to the CPU backend.
var ErrFallbackToCPU = errors.New("contrast: falling back to CPU analysis")

// GPURequest describes one GPU analysis pass.
type GPURequest struct {
	// Width and Height are the bitmap dimensions in pixels.
	Width, Height int

	// Pix is the source RGBA buffer, row 0 at the top. Read-only.
	Pix []uint8

	// Radius is the largest ring searched, in [1, 3].
	Radius int

	// Threshold is the minimum qualifying contrast ratio.
	Threshold float64
}

// GPUAccelerator is an optional GPU analysis provider.
//
// When registered via RegisterAccelerator, an Analyzer whose settings prefer
// the GPU tries the accelerator first. Any error, including
// ErrFallbackToCPU, makes the analysis fall back to the CPU backend.
//
// Implementations live in GPU backend packages. Users opt in via blank import:
//
//	import _ "github.com/gogpu/contrast/gpu" // enables GPU analysis
type GPUAccelerator interface {
	// Name returns the accelerator name (e.g., "contrast-gpu").
	Name() string

	// Init initializes GPU resources. Called once during registration.
	Init() error

	// Close releases GPU resources.
	Close()

	// Ready reports whether the accelerator can currently run passes.
	// This is a fast check used to skip the GPU entirely.
	Ready() bool

	// Analyze runs the contrast program over req and writes the mask,
	// top row first, into dst (Width*Height*4 bytes). It must honor ctx.
	Analyze(ctx context.Context, req GPURequest, dst []uint8) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with a host application instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider gpucontext.DeviceProvider) error
}

var (
	accelMu sync.RWMutex
	accel   GPUAccelerator
)

// RegisterAccelerator registers a GPU accelerator.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called during registration; if it fails the
// accelerator is not registered and the error is returned.
func RegisterAccelerator(a GPUAccelerator) error {
	if a == nil {
		return errors.New("contrast: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	return nil
}

// UnregisterAccelerator removes and closes the registered accelerator, if any.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Accelerator returns the registered GPU accelerator, or nil if none.
func Accelerator() GPUAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator so it reuses the host's GPU device. It is a no-op when no
// accelerator is registered or it does not support device sharing.
func SetAcceleratorDeviceProvider(provider gpucontext.DeviceProvider) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
