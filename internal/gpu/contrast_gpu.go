//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/contrast"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// DefaultFenceTimeout bounds the wait for one submitted analysis.
const DefaultFenceTimeout = 5 * time.Second

// ContrastAccelerator runs the contrast program as wgpu/hal compute passes.
// It implements contrast.GPUAccelerator.
//
// Each analysis uploads the image as a storage buffer, encodes one compute
// pass per ring offset in a single command encoder, submits once and waits
// on a fence, then reads the framebuffer back and flips it to top-down rows.
type ContrastAccelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	tableBuf   hal.Buffer

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
	adapterName    string
	initErr        error

	// FenceTimeout bounds each fence wait. Zero means DefaultFenceTimeout.
	FenceTimeout time.Duration
}

var (
	_ contrast.GPUAccelerator      = (*ContrastAccelerator)(nil)
	_ contrast.DeviceProviderAware = (*ContrastAccelerator)(nil)
)

// Name returns "contrast-gpu".
func (a *ContrastAccelerator) Name() string { return "contrast-gpu" }

// Init opens a Vulkan device and builds the pipeline. A failure is logged
// and leaves the accelerator not ready; Analyze then reports
// contrast.ErrBackendUnavailable and the caller falls back to the CPU.
func (a *ContrastAccelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.initGPU(); err != nil {
		a.initErr = err
		slogger().Warn("contrast-gpu: GPU init failed, using CPU fallback", "err", err)
		a.releaseLocked()
	}
	return nil
}

// Close releases GPU resources. A shared device is left to its owner.
func (a *ContrastAccelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
}

// Ready reports whether a device and pipeline are available.
func (a *ContrastAccelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Err returns the reason the last Init left the accelerator not ready.
func (a *ContrastAccelerator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.initErr
}

// AdapterName returns the name of the selected GPU adapter, if any.
func (a *ContrastAccelerator) AdapterName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.adapterName
}

// SetLogger sets the logger for the GPU backend.
// Called by contrast.SetLogger to propagate logging configuration.
func (a *ContrastAccelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// SetDeviceProvider switches the accelerator to a shared GPU device. The
// provider must also implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (a *ContrastAccelerator) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := any(provider).(halProvider)
	if !ok {
		return fmt.Errorf("contrast-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("contrast-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("contrast-gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()
	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipelines(); err != nil {
		a.gpuReady = false
		a.initErr = err
		return fmt.Errorf("contrast-gpu: create pipelines with shared device: %w", err)
	}
	a.gpuReady = true
	a.initErr = nil
	slogger().Info("contrast-gpu: switched to shared GPU device")
	return nil
}

// Analyze runs the contrast program for req and writes the top-down mask
// into dst.
func (a *ContrastAccelerator) Analyze(ctx context.Context, req contrast.GPURequest, dst []uint8) error {
	if err := checkRequest(req, dst); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.gpuReady {
		if a.initErr != nil {
			return fmt.Errorf("%w: %w", contrast.ErrBackendUnavailable, a.initErr)
		}
		return contrast.ErrBackendUnavailable
	}
	if err := a.dispatch(ctx, req, dst); err != nil {
		return fmt.Errorf("%w: %w", contrast.ErrBackendUnavailable, err)
	}
	return nil
}

// dispatch uploads the image, encodes every pass, submits once and reads
// the framebuffer back.
func (a *ContrastAccelerator) dispatch(ctx context.Context, req contrast.GPURequest, dst []uint8) error {
	w, h := req.Width, req.Height
	bufSize := uint64(w * h * 4) //nolint:gosec // bounded by maxBufferSize

	texBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "contrast_texels", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create texel buffer: %w", err)
	}
	defer a.device.DestroyBuffer(texBuf)

	frameBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "contrast_frame", Size: bufSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create framebuffer: %w", err)
	}
	defer a.device.DestroyBuffer(frameBuf)

	stagingBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "contrast_staging", Size: bufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer a.device.DestroyBuffer(stagingBuf)

	a.queue.WriteBuffer(texBuf, 0, packTexels(req.Pix))
	a.queue.WriteBuffer(frameBuf, 0, unmarkedFrame(w*h))

	passes := planPasses(w, h, req.Radius, req.Threshold)
	uniformBufs, bindGroups, err := a.createPassBindings(passes, texBuf, frameBuf, bufSize)
	defer a.cleanupBindings(uniformBufs, bindGroups)
	if err != nil {
		return err
	}
	slogger().Debug("contrast-gpu: dispatch",
		"width", w, "height", h, "passes", len(passes), "bytes", bufSize)

	if err := a.encodeAndSubmit(ctx, bindGroups, frameBuf, stagingBuf, w, h, bufSize); err != nil {
		return err
	}

	readback := make([]byte, bufSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackFrame(readback, w, h, dst)
	return nil
}

// createPassBindings creates one uniform buffer and bind group per pass.
// All bind groups share the texel, table and framebuffer buffers.
func (a *ContrastAccelerator) createPassBindings(
	passes []passParams, texBuf, frameBuf hal.Buffer, bufSize uint64,
) ([]hal.Buffer, []hal.BindGroup, error) {
	uniformBufs := make([]hal.Buffer, 0, len(passes))
	bindGroups := make([]hal.BindGroup, 0, len(passes))
	tableSize := uint64(len(linearTableBytes()))

	for i, p := range passes {
		ub, err := a.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "contrast_params", Size: paramsSize,
			Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return uniformBufs, bindGroups, fmt.Errorf("create uniform buffer %d: %w", i, err)
		}
		uniformBufs = append(uniformBufs, ub)
		a.queue.WriteBuffer(ub, 0, p.bytes())

		bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label: "contrast_bind", Layout: a.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Offset: 0, Size: paramsSize}},
				{Binding: 1, Resource: gputypes.BufferBinding{Buffer: texBuf.NativeHandle(), Offset: 0, Size: bufSize}},
				{Binding: 2, Resource: gputypes.BufferBinding{Buffer: a.tableBuf.NativeHandle(), Offset: 0, Size: tableSize}},
				{Binding: 3, Resource: gputypes.BufferBinding{Buffer: frameBuf.NativeHandle(), Offset: 0, Size: bufSize}},
			},
		})
		if err != nil {
			return uniformBufs, bindGroups, fmt.Errorf("create bind group %d: %w", i, err)
		}
		bindGroups = append(bindGroups, bg)
	}
	return uniformBufs, bindGroups, nil
}

// cleanupBindings destroys uniform buffers and bind groups.
func (a *ContrastAccelerator) cleanupBindings(uniformBufs []hal.Buffer, bindGroups []hal.BindGroup) {
	for _, bg := range bindGroups {
		if bg != nil {
			a.device.DestroyBindGroup(bg)
		}
	}
	for _, ub := range uniformBufs {
		if ub != nil {
			a.device.DestroyBuffer(ub)
		}
	}
}

// encodeAndSubmit records one compute pass per bind group in a single
// encoder. Storage buffer barriers between passes keep the ring order.
func (a *ContrastAccelerator) encodeAndSubmit(
	ctx context.Context, bindGroups []hal.BindGroup, frameBuf, stagingBuf hal.Buffer,
	w, h int, bufSize uint64,
) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "contrast_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("contrast"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	gx, gy := workgroups(w, h)
	for _, bg := range bindGroups {
		computePass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "contrast_pass"})
		computePass.SetPipeline(a.pipeline)
		computePass.SetBindGroup(0, bg, nil)
		computePass.Dispatch(gx, gy, 1)
		computePass.End()
	}

	encoder.CopyBufferToBuffer(frameBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: bufSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	fenceOK, err := a.device.Wait(fence, 1, a.fenceTimeout(ctx))
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.New("wait for GPU: fence timeout")
	}
	return nil
}

// fenceTimeout returns the fence wait bound, shortened to the context
// deadline when that comes first.
func (a *ContrastAccelerator) fenceTimeout(ctx context.Context) time.Duration {
	d := a.FenceTimeout
	if d <= 0 {
		d = DefaultFenceTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = max(left, 0)
		}
	}
	return d
}

func (a *ContrastAccelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipelines(); err != nil {
		return fmt.Errorf("create pipelines: %w", err)
	}
	a.adapterName = selected.Info.Name
	a.gpuReady = true
	a.initErr = nil
	slogger().Info("contrast-gpu: GPU accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *ContrastAccelerator) createPipelines() error {
	spirv, err := compileSPIRV(contrastShaderWGSL)
	if err != nil {
		return err
	}
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "contrast",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("%w: create shader module: %w", contrast.ErrShaderCompile, err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "contrast_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "contrast_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "contrast_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	a.pipeline = pipeline

	table := linearTableBytes()
	tableBuf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "contrast_linear_table", Size: uint64(len(table)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create table buffer: %w", err)
	}
	a.tableBuf = tableBuf
	a.queue.WriteBuffer(tableBuf, 0, table)
	return nil
}

func (a *ContrastAccelerator) destroyPipelines() {
	if a.device == nil {
		return
	}
	if a.tableBuf != nil {
		a.device.DestroyBuffer(a.tableBuf)
		a.tableBuf = nil
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

// releaseLocked destroys pipelines and, unless shared, the device and instance.
func (a *ContrastAccelerator) releaseLocked() {
	a.destroyPipelines()
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}
