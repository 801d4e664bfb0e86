// Package gpu implements the GPU contrast backend.
//
// ContrastAccelerator runs the analysis as wgpu/hal compute passes on a
// Vulkan device. The WGSL program is compiled to SPIR-V with naga. The
// bind group holds four buffers:
//
//	0  uniform   Params {width, height, dx, dy, gray, threshold}
//	1  storage   texels, packed RGBA u32, top row first
//	2  storage   256-entry float32 sRGB linearization table
//	3  storage   framebuffer, packed RGBA u32, bottom row first
//
// The program has no loops. Every ring offset of every radius is its own
// compute pass, smallest ring first, so a fragment marked by an earlier
// pass is skipped by the later ones. This reproduces the CPU search, which
// stops at the first qualifying ring.
//
// Fragments are addressed bottom-up while texels are uploaded top-down. The
// program flips the fragment row before any texel lookup, and the host
// flips the framebuffer readback before building the mask.
//
// Emulator executes the same passes on the CPU in float32 and needs no
// device.
package gpu
