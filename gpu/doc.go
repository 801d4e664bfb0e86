// Package gpu registers the GPU contrast accelerator.
//
// Import this package to run analyses on the GPU when the settings prefer
// it. The accelerator uses wgpu/hal compute passes on a Vulkan device.
//
// If GPU initialization fails (no Vulkan driver, no adapter, or a shader
// that does not compile) the accelerator stays registered but not ready, and
// every analysis runs on the CPU.
//
// Built with the nogpu tag, the package registers nothing: Available reports
// false and analyses run on the CPU. NewEmulator works either way.
//
// Usage:
//
//	import _ "github.com/gogpu/contrast/gpu" // enable GPU analysis
package gpu
