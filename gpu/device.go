package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/contrast"
)

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from an external provider (e.g., gogpu). This avoids creating a separate
// GPU instance. It is a no-op when no accelerator is registered.
//
// The provider must also expose HalDevice() and HalQueue() for direct HAL
// access.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return contrast.SetAcceleratorDeviceProvider(provider)
}

// Available reports whether the registered accelerator can run analyses.
func Available() bool {
	a := contrast.Accelerator()
	return a != nil && a.Ready()
}
