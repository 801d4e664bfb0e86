//go:build !nogpu

package gpu

import (
	"github.com/gogpu/contrast"
	gpuimpl "github.com/gogpu/contrast/internal/gpu"
)

func init() {
	accel := &gpuimpl.ContrastAccelerator{}
	if err := contrast.RegisterAccelerator(accel); err != nil {
		contrast.Logger().Warn("GPU accelerator not available", "err", err)
		return
	}
	if !accel.Ready() {
		contrast.Logger().Warn("GPU accelerator not ready, analyses run on the CPU", "err", accel.Err())
	}
}
