package gpu

import (
	"github.com/gogpu/contrast"
	gpuimpl "github.com/gogpu/contrast/internal/gpu"
)

// NewEmulator returns an accelerator that executes the GPU program on the
// CPU. It produces the masks the GPU would, without a device.
//
//	a := contrast.NewAnalyzer(contrast.WithAccelerator(gpu.NewEmulator()))
func NewEmulator() contrast.GPUAccelerator {
	return gpuimpl.NewEmulator()
}
